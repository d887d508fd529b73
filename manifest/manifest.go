package manifest

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
)

// refKey guards reference-graph recursion. The key is symmetric in the two
// URLs: (A,B,==) and (B,A,==) collapse to the same entry. This is coarser
// than a directed-edge guard and intentionally so; do not tighten it without
// confirming the intended semantics upstream.
type refKey struct {
	relation string
	lo, hi   string
}

func newRefKey(relation, a, b string) refKey {
	if b < a {
		a, b = b, a
	}
	return refKey{relation: relation, lo: a, hi: b}
}

// Builder scans a directory tree and produces the manifest items it contains,
// linking reftest reference graphs as it goes.
type Builder struct {
	root       string
	urlBase    string
	classifier *Classifier
	log        *slog.Logger

	// nodes is the arena of reference nodes, addressed by URL. A nil entry
	// records a reference that resolved to a leaf (or unreadable) page.
	nodes   map[string]*RefTest
	visited map[refKey]bool
}

// NewBuilder creates a manifest builder for the tree rooted at root, served
// under urlBase.
func NewBuilder(root, urlBase string, classifier *Classifier, log *slog.Logger) *Builder {
	if urlBase == "" {
		urlBase = "/"
	}
	if classifier == nil {
		classifier = NewClassifier()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Builder{
		root:       root,
		urlBase:    urlBase,
		classifier: classifier,
		log:        log,
		nodes:      make(map[string]*RefTest),
		visited:    make(map[refKey]bool),
	}
}

// Build walks the tree once and returns all manifest items, sorted by URL.
// Directories named .git are skipped. The walk itself has no side effects
// beyond the returned slice.
func (b *Builder) Build() ([]Item, error) {
	var items []Item

	err := filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(b.root, path)
		if err != nil {
			return err
		}

		sf := NewSourceFile(b.root, rel, b.urlBase)
		fileItems, err := b.classifier.Classify(sf)
		if err != nil {
			return err
		}

		for _, it := range fileItems {
			if rt, ok := it.(*RefTest); ok {
				b.linkReferences(rt)
			}
			items = append(items, it)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building manifest for %s: %w", b.root, err)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].URL() < items[j].URL() })

	b.log.Debug("manifest built", "root", b.root, "items", len(items))
	return items, nil
}

// linkReferences resolves rt's references recursively. References may chain
// through further reference nodes and may form cycles; the visited set bounds
// the recursion.
func (b *Builder) linkReferences(rt *RefTest) {
	for i := range rt.References {
		ref := &rt.References[i]
		key := newRefKey(ref.Relation, rt.URL(), ref.URL)
		if b.visited[key] {
			// Already traversed (possibly from the other direction); keep the
			// edge but reuse the arena node without recursing again.
			ref.Node = b.nodes[ref.URL]
			continue
		}
		b.visited[key] = true

		node := b.nodeFor(ref.URL)
		ref.Node = node
		if node != nil {
			b.linkReferences(node)
		}
	}
}

// nodeFor returns the arena node for a reference URL, creating it if the
// referenced page is itself a reference node. Leaf pages map to nil.
func (b *Builder) nodeFor(url string) *RefTest {
	if node, ok := b.nodes[url]; ok {
		return node
	}
	// Claim the slot before descending so cyclic graphs terminate.
	b.nodes[url] = nil

	rel, ok := urlToRelPath(url, b.urlBase)
	if !ok {
		return nil
	}
	sf := NewSourceFile(b.root, rel, b.urlBase)
	refs := sf.RefLinks()
	if len(refs) == 0 {
		return nil
	}

	node, err := NewRefTest(sf.Path(), sf.URL(), sf.Timeout(), refs)
	if err != nil {
		b.log.Warn("skipping malformed reference node", "url", url, "error", err)
		return nil
	}
	b.nodes[url] = node
	return node
}
