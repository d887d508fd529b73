// Package manifest discovers test files on disk and classifies them into
// typed manifest items.
package manifest

import "fmt"

// Kind identifies the test-entity kind a manifest item represents.
type Kind string

const (
	KindStub        Kind = "stub"
	KindManual      Kind = "manual"
	KindWdspec      Kind = "wdspec"
	KindTestharness Kind = "testharness"
	KindReftest     Kind = "reftest"
)

// Reference relation types for reftests.
const (
	RelationEqual    = "=="
	RelationNotEqual = "!="
)

// Item is one test entity extracted from a source file. Items are immutable
// once created; they are owned by the manifest-build pass.
type Item interface {
	Kind() Kind
	URL() string
	Path() string
}

type item struct {
	path string
	url  string
}

func (i item) URL() string  { return i.url }
func (i item) Path() string { return i.path }

// Stub is a placeholder file for a test that is not yet written.
type Stub struct{ item }

func (Stub) Kind() Kind { return KindStub }

// ManualTest requires a human to judge pass/fail.
type ManualTest struct{ item }

func (ManualTest) Kind() Kind { return KindManual }

// WebdriverSpecTest is a WebDriver protocol conformance test.
type WebdriverSpecTest struct{ item }

func (WebdriverSpecTest) Kind() Kind { return KindWdspec }

// TestharnessTest is a test whose pass/fail is determined by the in-page
// JavaScript harness.
type TestharnessTest struct {
	item
	Timeout string
}

func (TestharnessTest) Kind() Kind { return KindTestharness }

// Reference relates a reftest to one comparison URL. Node points at the
// reference's own RefTest when the reference page is itself a reference node;
// it is nil for leaf references.
type Reference struct {
	URL      string
	Relation string
	Node     *RefTest
}

// RefTest is a test validated by rendering comparison against one or more
// reference pages.
type RefTest struct {
	item
	Timeout    string
	References []Reference
}

func (RefTest) Kind() Kind { return KindReftest }

// NewRefTest builds a reftest item. Every reference must carry a relation of
// "==" or "!="; anything else fails immediately.
func NewRefTest(path, url, timeout string, references []Reference) (*RefTest, error) {
	if len(references) == 0 {
		return nil, fmt.Errorf("reftest %s has no references", url)
	}
	for _, ref := range references {
		if ref.Relation != RelationEqual && ref.Relation != RelationNotEqual {
			return nil, fmt.Errorf("invalid reference relation %q for %s", ref.Relation, ref.URL)
		}
	}
	return &RefTest{
		item:       item{path: path, url: url},
		Timeout:    timeout,
		References: references,
	}, nil
}
