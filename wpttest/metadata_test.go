package wpttest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTags(t *testing.T) {
	layers := []Metadata{
		{Tags: []string{"slow", "network"}},
		{Tags: []string{"network", "gpu"}},
	}
	assert.Equal(t, []string{"slow", "network", "gpu"}, ResolveTags(layers),
		"tags merge across layers without duplicates")
}

func TestResolveTags_Reset(t *testing.T) {
	layers := []Metadata{
		{Tags: []string{"slow", "network"}},
		{Tags: []string{Reset, "gpu"}},
		{Tags: []string{"audio"}},
	}
	assert.Equal(t, []string{"gpu", "audio"}, ResolveTags(layers),
		"Reset discards everything accumulated before its layer")
}

func TestResolvePrefs(t *testing.T) {
	layers := []Metadata{
		{Prefs: map[string]string{"gfx.webrender": "true", "dom.workers": "4"}},
		{Prefs: map[string]string{"dom.workers": "8"}},
	}
	prefs := ResolvePrefs(layers)
	assert.Equal(t, "true", prefs["gfx.webrender"])
	assert.Equal(t, "8", prefs["dom.workers"], "inner layers override outer values")
}

func TestResolvePrefs_Reset(t *testing.T) {
	layers := []Metadata{
		{Prefs: map[string]string{"gfx.webrender": "true"}},
		{Prefs: map[string]string{Reset: "", "dom.workers": "8"}},
	}
	prefs := ResolvePrefs(layers)
	assert.NotContains(t, prefs, "gfx.webrender")
	assert.NotContains(t, prefs, Reset)
	assert.Equal(t, "8", prefs["dom.workers"])
}

func TestFirstExpected(t *testing.T) {
	layers := []Metadata{
		{Expected: map[string]Status{"": StatusError}},
		{Expected: map[string]Status{"": StatusTimeout, "sub": StatusFail}},
	}

	status, ok := firstExpected(layers, "")
	require.True(t, ok)
	assert.Equal(t, StatusError, status, "the outermost defined layer wins")

	status, ok = firstExpected(layers, "sub")
	require.True(t, ok)
	assert.Equal(t, StatusFail, status)

	_, ok = firstExpected(layers, "other-sub")
	assert.False(t, ok)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadChain(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "meta.yaml"), "tags: [global]\n")
	writeFile(t, filepath.Join(root, "dom", "meta.yaml"), "tags: [dom]\ndisabled: flaky on CI\n")
	writeFile(t, filepath.Join(root, "dom", "nodes", "a.html.meta.yaml"), "expected:\n  \"\": ERROR\n")

	layers, err := LoadChain(root, filepath.Join("dom", "nodes", "a.html"))
	require.NoError(t, err)
	require.Len(t, layers, 3, "root meta, dom meta, per-file meta")

	assert.Equal(t, []string{"global"}, layers[0].Tags)
	assert.Equal(t, []string{"dom"}, layers[1].Tags)
	require.NotNil(t, layers[1].Disabled)
	assert.Equal(t, "flaky on CI", *layers[1].Disabled)
	assert.Equal(t, StatusError, layers[2].Expected[""])
}

func TestLoadChain_MissingFilesSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "dom", "meta.yaml"), "tags: [dom]\n")

	layers, err := LoadChain(root, filepath.Join("dom", "a.html"))
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, []string{"dom"}, layers[0].Tags)
}

func TestLoadChain_MalformedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "meta.yaml"), "tags: [unclosed\n")

	_, err := LoadChain(root, "a.html")
	assert.ErrorContains(t, err, "parsing metadata file")
}
