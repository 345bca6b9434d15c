package runtime

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/CliForge/siemctl/internal/testutil"
	"github.com/CliForge/siemctl/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settings(t *testing.T, url, credentials string) *config.Settings {
	t.Helper()
	return &config.Settings{
		Region:         "US",
		Env:            config.EnvProd,
		URL:            url,
		CredentialFile: credentials,
		ConfigDir:      t.TempDir(),
		Timeout:        config.DefaultTimeout,
	}
}

func TestNewRequiresSettings(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)
}

func TestNewMissingCredentials(t *testing.T) {
	_, err := New(context.Background(), &Options{Settings: settings(t, "", "/nonexistent/credentials.json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file or directory")
}

func TestNewAuthorizesRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", testutil.TokenHandler)
	mux.HandleFunc("/v1/feeds/1", func(w http.ResponseWriter, r *http.Request) {
		if !testutil.Authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	dir := t.TempDir()
	credentials := testutil.WriteServiceAccount(t, dir, server.URL+"/token")

	out := &bytes.Buffer{}
	rt, err := New(context.Background(), &Options{
		Settings:  settings(t, server.URL, credentials),
		Input:     strings.NewReader(""),
		Output:    out,
		ErrOutput: &bytes.Buffer{},
	})
	require.NoError(t, err)
	assert.Equal(t, "US", rt.Settings().Region)

	require.NoError(t, rt.Executor().DeleteFeed(context.Background(), "1"))
	assert.Equal(t, "Feed with ID 1 deleted successfully.\n", out.String())
}

func TestNewInvalidRegion(t *testing.T) {
	s := settings(t, "", "")
	s.Region = "MARS"
	_, err := New(context.Background(), &Options{Settings: s, HTTPClient: http.DefaultClient})
	assert.Error(t, err)
}

func TestPagerCommand(t *testing.T) {
	t.Setenv("PAGER", "more -s")
	assert.Equal(t, []string{"more", "-s"}, pagerCommand())

	t.Setenv("PAGER", "")
	assert.Equal(t, defaultPager, pagerCommand())
}
