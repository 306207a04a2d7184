package hub

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadFile(t *testing.T) {
	var (
		gotMethod, gotPath, gotAuth string
		gotBody                     []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "hf_secret")
	err := c.UploadFile(context.Background(), "ruwya/daily-digest", "daily/2025-06-01.json", []byte(`{"ok":true}`))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/datasets/ruwya/daily-digest/upload/main/daily/2025-06-01.json", gotPath)
	assert.Equal(t, "Bearer hf_secret", gotAuth)
	assert.JSONEq(t, `{"ok":true}`, string(gotBody))
}

func TestUploadFileErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "repo not found", http.StatusNotFound)
	}))
	defer srv.Close()

	err := New(srv.URL, "tok").UploadFile(context.Background(), "nobody/nothing", "latest.json", []byte("{}"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "status 404")
}

func TestNewDefaultsBaseURL(t *testing.T) {
	c := New("", "tok")
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}
