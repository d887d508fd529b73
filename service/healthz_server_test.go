package service

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthzHandle(t *testing.T) {
	h := &HealthzServer{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	h.Handle(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestNew_ContentServerOptional(t *testing.T) {
	withContent := New("/srv/tests")
	require.NotNil(t, withContent.Content)
	assert.Equal(t, "/srv/tests", withContent.Content.Root)

	withoutContent := New("")
	assert.Nil(t, withoutContent.Content)
}
