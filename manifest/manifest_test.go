package manifest

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Build(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, filepath.Join("dom", "append.html"), testharnessPage)
	writeSource(t, root, filepath.Join("css", "box.html"),
		`<link rel="match" href="box-ref.html">`)
	writeSource(t, root, filepath.Join("css", "box-ref.html"), `<div></div>`)
	writeSource(t, root, filepath.Join("resources", "helper.js"), "")

	b := NewBuilder(root, "/", nil, nil)
	items, err := b.Build()
	require.NoError(t, err)

	require.Len(t, items, 2, "helpers and blacklisted files yield no items")
	assert.True(t, sort.SliceIsSorted(items, func(i, j int) bool {
		return items[i].URL() < items[j].URL()
	}), "items are sorted by URL")

	rt, ok := items[0].(*RefTest)
	require.True(t, ok)
	assert.Equal(t, "/css/box.html", rt.URL())
	require.Len(t, rt.References, 1)
	assert.Nil(t, rt.References[0].Node, "a leaf reference page has no node")

	assert.Equal(t, KindTestharness, items[1].Kind())
	assert.Equal(t, "/dom/append.html", items[1].URL())
}

func TestBuilder_ReferenceChain(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "a.html", `<link rel="match" href="b.html">`)
	writeSource(t, root, "b.html", `<link rel="match" href="c.html">`)
	writeSource(t, root, "c.html", `<div></div>`)

	b := NewBuilder(root, "/", nil, nil)
	items, err := b.Build()
	require.NoError(t, err)

	var a *RefTest
	for _, it := range items {
		if it.URL() == "/a.html" {
			a = it.(*RefTest)
		}
	}
	require.NotNil(t, a)

	// a -> b resolves to b's own reference node, which points at leaf c.
	require.Len(t, a.References, 1)
	bNode := a.References[0].Node
	require.NotNil(t, bNode, "b is itself a reference node")
	require.Len(t, bNode.References, 1)
	assert.Equal(t, "/c.html", bNode.References[0].URL)
	assert.Nil(t, bNode.References[0].Node)
}

func TestBuilder_ReferenceCycleTerminates(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "cycle-a.html", `<link rel="match" href="cycle-b.html">`)
	writeSource(t, root, "cycle-b.html", `<link rel="match" href="cycle-a.html">`)

	b := NewBuilder(root, "/", nil, nil)
	items, err := b.Build()
	require.NoError(t, err, "a mutual reference pair must not loop forever")

	var kinds []Kind
	for _, it := range items {
		kinds = append(kinds, it.Kind())
	}
	assert.Equal(t, []Kind{KindReftest, KindReftest}, kinds)
}

func TestBuilder_SkipsGitDir(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, filepath.Join(".git", "stash.html"), testharnessPage)
	writeSource(t, root, "real.html", testharnessPage)

	b := NewBuilder(root, "/", nil, nil)
	items, err := b.Build()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "/real.html", items[0].URL())
}

func TestNewRefTest_Validation(t *testing.T) {
	_, err := NewRefTest("/tree/a.html", "/a.html", "", nil)
	assert.ErrorContains(t, err, "has no references")

	_, err = NewRefTest("/tree/a.html", "/a.html", "", []Reference{
		{URL: "/b.html", Relation: "~="},
	})
	assert.ErrorContains(t, err, "invalid reference relation")
}
