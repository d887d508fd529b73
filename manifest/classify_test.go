package manifest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testharnessPage = `<script src="/resources/testharness.js"></script>`

func classify(t *testing.T, c *Classifier, root, rel, content string) []Item {
	t.Helper()
	sf := writeSource(t, root, rel, content)
	items, err := c.Classify(sf)
	require.NoError(t, err)
	return items
}

func TestClassify_Stub(t *testing.T) {
	c := NewClassifier()
	items := classify(t, c, t.TempDir(), "stub-feature.html", testharnessPage)

	require.Len(t, items, 1, "stub prefix wins over testharness content")
	assert.Equal(t, KindStub, items[0].Kind())
	assert.Equal(t, "/stub-feature.html", items[0].URL())
}

func TestClassify_Manual(t *testing.T) {
	c := NewClassifier()
	items := classify(t, c, t.TempDir(), "drag-and-drop-manual.html", testharnessPage)

	require.Len(t, items, 1, "the -manual flag wins over testharness content")
	assert.Equal(t, KindManual, items[0].Kind())
}

func TestClassify_Worker(t *testing.T) {
	c := NewClassifier()
	items := classify(t, c, t.TempDir(), "postmessage.worker.js", "importScripts('/resources/testharness.js');")

	require.Len(t, items, 1)
	assert.Equal(t, KindTestharness, items[0].Kind())
	assert.Equal(t, "/postmessage.worker", items[0].URL(),
		"the worker URL drops the .js extension")
}

func TestClassify_WebdriverSpec(t *testing.T) {
	c := NewClassifier()
	root := t.TempDir()

	items := classify(t, c, root, filepath.Join("webdriver", "tests", "get_title.py"), "def test(): pass")
	require.Len(t, items, 1)
	assert.Equal(t, KindWdspec, items[0].Kind())

	// __init__.py is packaging, not a test.
	items = classify(t, c, root, filepath.Join("webdriver", "tests", "__init__.py"), "")
	assert.Empty(t, items)

	// Files directly under webdriver/ are support code.
	items = classify(t, c, root, filepath.Join("webdriver", "conftest.py"), "")
	assert.Empty(t, items)

	// Outside the webdriver tree a .py file is a helper.
	items = classify(t, c, root, filepath.Join("tools-extra", "script.py"), "")
	assert.Empty(t, items)
}

func TestClassify_WebdriverGlobOverride(t *testing.T) {
	c := NewClassifier()
	c.WebdriverGlob = "test_*.py"
	root := t.TempDir()

	items := classify(t, c, root, filepath.Join("webdriver", "tests", "test_title.py"), "")
	assert.Len(t, items, 1)

	items = classify(t, c, root, filepath.Join("webdriver", "tests", "helpers.py"), "")
	assert.Empty(t, items)
}

func TestClassify_Testharness(t *testing.T) {
	c := NewClassifier()
	items := classify(t, c, t.TempDir(), filepath.Join("dom", "nodes", "append.html"), testharnessPage)

	require.Len(t, items, 1)
	assert.Equal(t, KindTestharness, items[0].Kind())
	assert.Equal(t, "/dom/nodes/append.html", items[0].URL())
}

func TestClassify_TestharnessVariants(t *testing.T) {
	c := NewClassifier()
	page := `
		<meta name="variant" content="?default">
		<meta name="variant" content="?wss">
		<script src="/resources/testharness.js"></script>`
	items := classify(t, c, t.TempDir(), "ws.html", page)

	require.Len(t, items, 2, "one item per declared variant")
	assert.Equal(t, "/ws.html?default", items[0].URL())
	assert.Equal(t, "/ws.html?wss", items[1].URL())
}

func TestClassify_TestharnessLongTimeout(t *testing.T) {
	c := NewClassifier()
	page := `<meta name="timeout" content="long">` + testharnessPage
	items := classify(t, c, t.TempDir(), "slow.html", page)

	require.Len(t, items, 1)
	th, ok := items[0].(TestharnessTest)
	require.True(t, ok)
	assert.Equal(t, "long", th.Timeout)
}

func TestClassify_Reftest(t *testing.T) {
	c := NewClassifier()
	page := `<link rel="match" href="box-ref.html"><div id="box"></div>`
	items := classify(t, c, t.TempDir(), filepath.Join("css", "box.html"), page)

	require.Len(t, items, 1)
	rt, ok := items[0].(*RefTest)
	require.True(t, ok)
	assert.Equal(t, KindReftest, rt.Kind())
	require.Len(t, rt.References, 1)
	assert.Equal(t, "/css/box-ref.html", rt.References[0].URL)
	assert.Equal(t, RelationEqual, rt.References[0].Relation)
}

func TestClassify_NonTest(t *testing.T) {
	c := NewClassifier()
	root := t.TempDir()

	// Blacklisted URL prefixes never contain tests.
	items := classify(t, c, root, filepath.Join("resources", "testharness.js"), "")
	assert.Empty(t, items)
	items = classify(t, c, root, filepath.Join("common", "util.html"), testharnessPage)
	assert.Empty(t, items)

	// Manifest files and dotfiles.
	items = classify(t, c, root, "MANIFEST.json", "{}")
	assert.Empty(t, items)
	items = classify(t, c, root, ".hidden.html", testharnessPage)
	assert.Empty(t, items)
}

func TestClassify_Helper(t *testing.T) {
	c := NewClassifier()

	// A page without testharness script or reference links yields nothing.
	items := classify(t, c, t.TempDir(), "support.html", `<div>helper content</div>`)
	assert.Empty(t, items)

	// A file that is not parseable markup also yields nothing.
	items = classify(t, c, t.TempDir(), "data.bin", string([]byte{0x00, 0xff, 0xfe, 0x01}))
	assert.Empty(t, items)
}
