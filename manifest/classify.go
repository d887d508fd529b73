package manifest

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultWebdriverGlob matches the files treated as WebDriver spec tests
// inside the webdriver/ tree.
const DefaultWebdriverGlob = "*.py"

// defaultBlacklist holds URL prefixes that never contain tests.
var defaultBlacklist = []string{
	"/tools/",
	"/resources/",
	"/common/",
	"/conformance-checkers/",
}

// Classifier decides which test-entity kind(s) a source file represents.
type Classifier struct {
	// WebdriverGlob is the filename glob for WebDriver spec tests.
	WebdriverGlob string
	// Blacklist holds URL prefixes excluded from classification.
	Blacklist []string
}

// NewClassifier returns a classifier with the default webdriver glob and URL
// blacklist.
func NewClassifier() *Classifier {
	return &Classifier{
		WebdriverGlob: DefaultWebdriverGlob,
		Blacklist:     defaultBlacklist,
	}
}

// Classify inspects a source file and returns the manifest items it yields.
// The decision order is fixed; the first matching rule wins:
//
//  1. non-test: directory, MANIFEST-prefixed, dotfile or blacklisted URL
//  2. stub: "stub-" filename prefix
//  3. manual: "-manual" type flag
//  4. worker: "worker" meta flag on a .js file
//  5. webdriver spec test
//  6. testharness content (one item per variant)
//  7. reference node (<link rel=match|mismatch>)
//  8. helper file: no items
//
// Classification has no side effects; reference graphs are linked by the
// manifest builder afterwards.
func (c *Classifier) Classify(sf *SourceFile) ([]Item, error) {
	switch {
	case c.isNonTest(sf):
		return nil, nil

	case strings.HasPrefix(sf.Filename(), "stub-"):
		return []Item{Stub{item{path: sf.Path(), url: sf.URL()}}}, nil

	case sf.TypeFlag() == "manual":
		return []Item{ManualTest{item{path: sf.Path(), url: sf.URL()}}}, nil

	case sf.HasMetaFlag("worker") && sf.Ext() == ".js":
		// The worker URL drops the trailing 3 characters (the ".js"
		// extension). Inherited convention; preserved exactly.
		url := sf.URL()
		return []Item{TestharnessTest{
			item:    item{path: sf.Path(), url: url[:len(url)-3]},
			Timeout: sf.Timeout(),
		}}, nil

	case c.isWebdriverSpec(sf):
		return []Item{WebdriverSpecTest{item{path: sf.Path(), url: sf.URL()}}}, nil
	}

	if sf.HasTestharnessScript() {
		variants := sf.Variants()
		if len(variants) == 0 {
			variants = []string{""}
		}
		items := make([]Item, 0, len(variants))
		for _, variant := range variants {
			items = append(items, TestharnessTest{
				item:    item{path: sf.Path(), url: sf.URL() + variant},
				Timeout: sf.Timeout(),
			})
		}
		return items, nil
	}

	if refs := sf.RefLinks(); len(refs) > 0 {
		rt, err := NewRefTest(sf.Path(), sf.URL(), sf.Timeout(), refs)
		if err != nil {
			return nil, fmt.Errorf("classifying %s: %w", sf.RelPath(), err)
		}
		return []Item{rt}, nil
	}

	// Helper file.
	return nil, nil
}

func (c *Classifier) isNonTest(sf *SourceFile) bool {
	name := sf.Filename()
	return sf.IsDir() ||
		strings.HasPrefix(name, "MANIFEST") ||
		strings.HasPrefix(name, ".") ||
		c.blacklisted(sf.URL())
}

func (c *Classifier) blacklisted(url string) bool {
	for _, prefix := range c.Blacklist {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

func (c *Classifier) isWebdriverSpec(sf *SourceFile) bool {
	components := strings.Split(strings.ReplaceAll(sf.RelPath(), "\\", "/"), "/")
	if len(components) <= 2 || components[0] != "webdriver" {
		return false
	}
	name := sf.Filename()
	if name == "__init__.py" {
		return false
	}
	glob := c.WebdriverGlob
	if glob == "" {
		glob = DefaultWebdriverGlob
	}
	matched, err := doublestar.Match(glob, name)
	return err == nil && matched
}
