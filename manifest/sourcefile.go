package manifest

import (
	"bytes"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// SourceFile identifies one file in the test tree and lazily derives the
// properties classification needs. It is constructed fresh on every scan and
// never persisted.
type SourceFile struct {
	root    string
	relPath string
	urlBase string

	parsed    *html.Node
	parseDone bool
}

// NewSourceFile builds a SourceFile for relPath under root. urlBase is the
// URL prefix the tree is served under ("/" when empty).
func NewSourceFile(root, relPath, urlBase string) *SourceFile {
	if urlBase == "" {
		urlBase = "/"
	}
	return &SourceFile{
		root:    root,
		relPath: relPath,
		urlBase: urlBase,
	}
}

// Path returns the absolute filesystem path.
func (s *SourceFile) Path() string {
	return filepath.Join(s.root, s.relPath)
}

// RelPath returns the path relative to the tree root.
func (s *SourceFile) RelPath() string {
	return s.relPath
}

// URL returns the file's URL under the url base.
func (s *SourceFile) URL() string {
	return s.urlBase + filepath.ToSlash(s.relPath)
}

// Filename returns the base name of the file.
func (s *SourceFile) Filename() string {
	return filepath.Base(s.relPath)
}

// Ext returns the filename extension, including the dot.
func (s *SourceFile) Ext() string {
	return filepath.Ext(s.relPath)
}

// Name returns the filename stem, without the extension.
func (s *SourceFile) Name() string {
	return strings.TrimSuffix(s.Filename(), s.Ext())
}

// TypeFlag returns the suffix after the last "-" in the stem, or "" when the
// stem carries no flag.
func (s *SourceFile) TypeFlag() string {
	name := s.Name()
	if idx := strings.LastIndex(name, "-"); idx >= 0 {
		return name[idx+1:]
	}
	return ""
}

// MetaFlags returns the dot-separated segments of the stem.
func (s *SourceFile) MetaFlags() []string {
	return strings.Split(s.Name(), ".")
}

// HasMetaFlag reports whether flag appears among the stem's dot-separated
// segments.
func (s *SourceFile) HasMetaFlag(flag string) bool {
	for _, f := range s.MetaFlags() {
		if f == flag {
			return true
		}
	}
	return false
}

// IsDir reports whether the path names a directory. A stat failure counts as
// "not a directory": classification by filename alone must not require the
// file to be open-able.
func (s *SourceFile) IsDir() bool {
	info, err := os.Stat(s.Path())
	return err == nil && info.IsDir()
}

// markup returns the parsed markup tree, or nil when the file cannot be read
// or parsed. Parse failures are recovered here so malformed content falls
// through to "not a test".
func (s *SourceFile) markup() *html.Node {
	if s.parseDone {
		return s.parsed
	}
	s.parseDone = true

	data, err := os.ReadFile(s.Path())
	if err != nil {
		return nil
	}
	node, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	s.parsed = node
	return s.parsed
}

// Timeout returns "long" when the markup declares
// <meta name=timeout content=long>; any other content value, or absence,
// means the default timeout and returns "".
func (s *SourceFile) Timeout() string {
	timeout := ""
	s.eachElement("meta", func(n *html.Node) {
		if attr(n, "name") == "timeout" && attr(n, "content") == "long" {
			timeout = "long"
		}
	})
	return timeout
}

// Variants returns the declared test variants: the content of each
// <meta name=variant> tag that is empty or begins with "#" or "?".
func (s *SourceFile) Variants() []string {
	var variants []string
	s.eachElement("meta", func(n *html.Node) {
		if attr(n, "name") != "variant" {
			return
		}
		content := attr(n, "content")
		if content == "" || strings.HasPrefix(content, "#") || strings.HasPrefix(content, "?") {
			variants = append(variants, content)
		}
	})
	return variants
}

// HasTestharnessScript reports whether the markup references the testharness
// runtime via <script src="/resources/testharness.js">.
func (s *SourceFile) HasTestharnessScript() bool {
	found := false
	s.eachElement("script", func(n *html.Node) {
		src := attr(n, "src")
		if src == "/resources/testharness.js" || strings.HasSuffix(src, "/resources/testharness.js") {
			found = true
		}
	})
	return found
}

// RefLinks returns the reference relations declared via <link rel=match> and
// <link rel=mismatch>, with each href resolved against the file's own URL.
func (s *SourceFile) RefLinks() []Reference {
	base, err := url.Parse(s.URL())
	if err != nil {
		return nil
	}

	var refs []Reference
	s.eachElement("link", func(n *html.Node) {
		var relation string
		switch attr(n, "rel") {
		case "match":
			relation = RelationEqual
		case "mismatch":
			relation = RelationNotEqual
		default:
			return
		}
		href := attr(n, "href")
		if href == "" {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		refs = append(refs, Reference{URL: resolved.String(), Relation: relation})
	})
	return refs
}

// eachElement walks the markup tree calling fn on every element named tag.
// With no markup root the walk is a no-op.
func (s *SourceFile) eachElement(tag string, fn func(*html.Node)) {
	root := s.markup()
	if root == nil {
		return
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			fn(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// urlToRelPath maps a URL under urlBase back to a tree-relative filesystem
// path, dropping any query or fragment. It returns false for URLs outside the
// base.
func urlToRelPath(rawURL, urlBase string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	p := u.Path
	if !strings.HasPrefix(p, urlBase) {
		return "", false
	}
	rel := strings.TrimPrefix(p, urlBase)
	rel = path.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.FromSlash(rel), true
}
