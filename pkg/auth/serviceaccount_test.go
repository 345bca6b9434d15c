package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CliForge/siemctl/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClientAuthorizesRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", testutil.TokenHandler)
	mux.HandleFunc("/v1/feeds", func(w http.ResponseWriter, r *http.Request) {
		if !testutil.Authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"feeds":[]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	path := testutil.WriteServiceAccount(t, t.TempDir(), server.URL+"/token")

	client, err := NewHTTPClient(context.Background(), &ServiceAccountConfig{
		CredentialFile: path,
		Timeout:        5 * time.Second,
		BaseClient:     server.Client(),
	})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout)

	resp, err := client.Get(server.URL + "/v1/feeds")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewHTTPClientErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewHTTPClient(context.Background(), &ServiceAccountConfig{CredentialFile: filepath.Join(dir, "missing.json")})
	assert.True(t, errors.Is(err, os.ErrNotExist), "missing file should surface the OS error, got %v", err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"type":"authorized_user"}`), 0600))
	_, err = NewHTTPClient(context.Background(), &ServiceAccountConfig{CredentialFile: bad})
	assert.Error(t, err)

	_, err = NewHTTPClient(context.Background(), nil)
	assert.Error(t, err)
}
