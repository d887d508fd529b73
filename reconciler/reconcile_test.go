package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(name string, passed, failed int) Record {
	return Record{
		Name:   name,
		Passed: passed,
		Failed: failed,
		Total:  passed + failed,
	}
}

func TestReconcile_AllMatching(t *testing.T) {
	current := map[string]Record{
		"/a.html": rec("/a.html", 2, 0),
		"/b.html": rec("/b.html", 1, 1),
	}
	expected := map[string]Record{
		"/a.html": rec("/a.html", 2, 0),
		"/b.html": rec("/b.html", 1, 1),
	}

	summary := Reconcile("dom", current, expected)
	assert.Equal(t, 2, summary.TestsRun)
	assert.Equal(t, 2, summary.OK)
	assert.Equal(t, 0, summary.Unexpected)
	assert.Empty(t, summary.Mismatches)
	assert.InDelta(t, 75.0, summary.PassPercent, 0.001)
}

func TestReconcile_NewAndMissing(t *testing.T) {
	// Baseline knows A and B; the run produced A and C. B went missing and C
	// is new, both count as unexpected.
	expected := map[string]Record{
		"/a.html": rec("/a.html", 1, 0),
		"/b.html": rec("/b.html", 1, 0),
	}
	current := map[string]Record{
		"/a.html": rec("/a.html", 1, 0),
		"/c.html": rec("/c.html", 1, 0),
	}

	summary := Reconcile("dom", current, expected)
	assert.Equal(t, 1, summary.OK)
	assert.Equal(t, 2, summary.Unexpected)
	require.Len(t, summary.Mismatches, 2)

	byName := make(map[string]Mismatch)
	for _, m := range summary.Mismatches {
		byName[m.Name] = m
	}

	newM := byName["/c.html"]
	assert.Equal(t, OutcomeNew, newM.Outcome)
	assert.Nil(t, newM.Before)
	require.NotNil(t, newM.After)

	missingM := byName["/b.html"]
	assert.Equal(t, OutcomeMissing, missingM.Outcome)
	require.NotNil(t, missingM.Before)
	assert.Nil(t, missingM.After)
}

func TestReconcile_Regression(t *testing.T) {
	expected := map[string]Record{
		"/a.html": rec("/a.html", 3, 0),
	}
	current := map[string]Record{
		"/a.html": rec("/a.html", 2, 1),
	}

	summary := Reconcile("dom", current, expected)
	assert.Equal(t, 1, summary.Unexpected)
	require.Len(t, summary.Mismatches, 1)

	m := summary.Mismatches[0]
	assert.Equal(t, OutcomeRegression, m.Outcome)
	require.NotNil(t, m.Before)
	require.NotNil(t, m.After)
	assert.Equal(t, 3, m.Before.Passed)
	assert.Equal(t, 2, m.After.Passed)
}

func TestReconcile_ZeroTotal(t *testing.T) {
	current := map[string]Record{
		"/a.html": {Name: "/a.html"},
	}
	summary := Reconcile("dom", current, map[string]Record{"/a.html": {Name: "/a.html"}})
	assert.Equal(t, 0.0, summary.PassPercent)
	assert.Equal(t, 0, summary.Unexpected)
}

func TestReconcile_Deterministic(t *testing.T) {
	current := map[string]Record{
		"/c.html": rec("/c.html", 1, 0),
		"/a.html": rec("/a.html", 1, 0),
		"/b.html": rec("/b.html", 1, 0),
	}

	summary := Reconcile("dom", current, map[string]Record{})
	require.Len(t, summary.Mismatches, 3)
	assert.Equal(t, "/a.html", summary.Mismatches[0].Name)
	assert.Equal(t, "/b.html", summary.Mismatches[1].Name)
	assert.Equal(t, "/c.html", summary.Mismatches[2].Name)
}
