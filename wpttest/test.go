package wpttest

import (
	"fmt"
	"strings"
	"time"
)

// Timeout classes resolved from the manifest item's timeout flag.
const (
	DefaultTimeout = 10 * time.Second
	LongTimeout    = 60 * time.Second
)

// TimeoutLong is the manifest timeout value selecting LongTimeout. Any other
// value, or absence, selects DefaultTimeout.
const TimeoutLong = "long"

// Kind discriminates the runtime test flavors.
type Kind string

const (
	KindTestharness Kind = "testharness"
	KindReftest     Kind = "reftest"
	KindManual      Kind = "manual"
	KindWdspec      Kind = "wdspec"
	KindStub        Kind = "stub"
)

// Reference relation types for reftests.
const (
	RelationEqual    = "=="
	RelationNotEqual = "!="
)

// Test wraps a manifest item's URL with resolved configuration and the
// ordered metadata chain it inherits.
type Test struct {
	URL      string
	Path     string
	Protocol string
	Kind     Kind

	timeout         time.Duration
	inheritMetadata []Metadata
	testMetadata    Metadata
}

// NewTest builds a runnable test. timeoutClass is the manifest item's
// detected timeout value; the duration is resolved once here. inherit holds
// the outer metadata layers, outermost first; own is the test's own layer.
func NewTest(kind Kind, url, path string, timeoutClass string, inherit []Metadata, own Metadata) *Test {
	timeout := DefaultTimeout
	if timeoutClass == TimeoutLong {
		timeout = LongTimeout
	}

	protocol := "http"
	if strings.HasPrefix(url, "https:") {
		protocol = "https"
	}

	return &Test{
		URL:             url,
		Path:            path,
		Protocol:        protocol,
		Kind:            kind,
		timeout:         timeout,
		inheritMetadata: inherit,
		testMetadata:    own,
	}
}

// Timeout returns the timeout resolved at construction.
func (t *Test) Timeout() time.Duration {
	return t.timeout
}

// layers returns the full metadata chain, outermost first, the test's own
// metadata last.
func (t *Test) layers() []Metadata {
	layers := make([]Metadata, 0, len(t.inheritMetadata)+1)
	layers = append(layers, t.inheritMetadata...)
	layers = append(layers, t.testMetadata)
	return layers
}

// defaultExpected is the status assumed when no metadata layer overrides it.
func (t *Test) defaultExpected(subtest string) Status {
	if subtest != "" {
		return StatusPass
	}
	if t.Kind == KindTestharness {
		return StatusOK
	}
	return StatusPass
}

// Expected returns the expected status for the test (subtest == "") or one of
// its subtests. Layers are scanned in inheritance order and the first defined
// expectation wins; with none defined the type default applies.
func (t *Test) Expected(subtest string) Status {
	if status, ok := firstExpected(t.layers(), subtest); ok {
		return status
	}
	return t.defaultExpected(subtest)
}

// Disabled returns the disabled reason, or "" when the test is enabled. The
// first layer that defines a value wins.
func (t *Test) Disabled() string {
	if reason := firstDisabled(t.layers()); reason != nil {
		return *reason
	}
	return ""
}

// RestartAfter reports whether the runner should be restarted after this
// test. The first layer that defines a value wins.
func (t *Test) RestartAfter() bool {
	if v := firstRestartAfter(t.layers()); v != nil {
		return *v
	}
	return false
}

// Tags returns the merged tag set across all layers.
func (t *Test) Tags() []string {
	return ResolveTags(t.layers())
}

// Prefs returns the merged pref map across all layers.
func (t *Test) Prefs() map[string]string {
	return ResolvePrefs(t.layers())
}

// Reference relates a reftest to one comparison page.
type Reference struct {
	URL      string
	Relation string
}

// ReftestTest is a test validated by rendering comparison against one or
// more reference pages.
type ReftestTest struct {
	*Test
	References []Reference
}

// NewReftestTest builds a reftest. Any reference relation other than "==" or
// "!=" is rejected immediately.
func NewReftestTest(test *Test, references []Reference) (*ReftestTest, error) {
	for _, ref := range references {
		if ref.Relation != RelationEqual && ref.Relation != RelationNotEqual {
			return nil, fmt.Errorf("invalid reference relation %q for %s", ref.Relation, ref.URL)
		}
	}
	return &ReftestTest{Test: test, References: references}, nil
}
