package reconciler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadExpectations_MissingFile(t *testing.T) {
	parser := NewLineParser("wpt")
	records, err := LoadExpectations(filepath.Join(t.TempDir(), "expected_dom.txt"), parser)
	require.NoError(t, err)
	assert.Empty(t, records, "missing baseline means every result is NEW, not an error")
}

func TestExpectationPath(t *testing.T) {
	assert.Equal(t, filepath.Join("exp", "expected_dom.txt"), ExpectationPath("exp", "dom"))
}

func TestWriteLoadRoundTrip(t *testing.T) {
	parser := NewLineParser("wpt")
	path := filepath.Join(t.TempDir(), "sub", "expected_dom.txt")

	in := map[string]Record{}
	for _, line := range []string{
		"[wpt] [2/0/2] /dom/a.html",
		"[wpt] [0/1/1] /dom/b.html",
	} {
		r, ok := parser.Parse(line)
		require.True(t, ok)
		in[r.Name] = r
	}

	require.NoError(t, WriteExpectations(path, in))

	out, err := LoadExpectations(path, parser)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// A run identical to the baseline reconciles clean.
	summary := Reconcile("dom", in, out)
	assert.Equal(t, 0, summary.Unexpected)
	assert.Equal(t, 2, summary.OK)
}

func TestLoadExpectations_SkipsGarbageLines(t *testing.T) {
	parser := NewLineParser("wpt")
	path := filepath.Join(t.TempDir(), "expected_dom.txt")
	content := "# edited by hand\n[wpt] [1/0/1] /dom/a.html\n\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	records, err := LoadExpectations(path, parser)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, records, "/dom/a.html")
}
