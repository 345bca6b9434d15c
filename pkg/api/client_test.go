package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "nil config", config: nil, wantErr: true},
		{name: "missing base URL", config: &Config{}, wantErr: true},
		{name: "valid", config: &Config{BaseURL: "https://backstory.googleapis.com/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && c.BaseURL() != "https://backstory.googleapis.com" {
				t.Errorf("BaseURL() = %q, trailing slash not trimmed", c.BaseURL())
			}
		})
	}
}

func TestClientDo(t *testing.T) {
	var gotMethod, gotPath, gotMask, gotContentType string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotMask = r.URL.Query().Get("update_mask")
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"feeds/123"}`))
	}))
	defer server.Close()

	c, err := NewClient(&Config{BaseURL: server.URL, HTTPClient: server.Client()})
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), &Request{
		Method: http.MethodPatch,
		Path:   "/v1/feeds/123",
		Query:  url.Values{"update_mask": {"details.a,details.b"}},
		Body:   map[string]interface{}{"displayName": "x"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/v1/feeds/123", gotPath)
	assert.Equal(t, "details.a,details.b", gotMask)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "x", gotBody["displayName"])
	assert.True(t, resp.OK())

	name, err := resp.String("name")
	require.NoError(t, err)
	assert.Equal(t, "feeds/123", name)
}

func TestClientErrorResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad"}}`))
		case "/html":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>gateway</html>`))
		case "/garbage":
			_, _ = w.Write([]byte(`not json`))
		case "/empty":
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	c, err := NewClient(&Config{BaseURL: server.URL, HTTPClient: server.Client()})
	require.NoError(t, err)
	ctx := context.Background()

	resp, err := c.Get(ctx, "/json")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad", resp.ErrorMessage())

	resp, err = c.Get(ctx, "/html")
	require.NoError(t, err)
	assert.Equal(t, "<html>gateway</html>", resp.ErrorMessage())

	_, err = c.Get(ctx, "/garbage")
	assert.True(t, errors.Is(err, ErrInvalidResponse))

	resp, err = c.Get(ctx, "/empty")
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Empty(t, resp.Body)
}

func TestClientUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	c, err := NewClient(&Config{BaseURL: base})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/v1/feeds")
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("Get() error = %v, want ErrUnreachable", err)
	}
}

func TestResponseHelpers(t *testing.T) {
	resp, err := decodeResponse(http.StatusOK, []byte(`{"feeds":[{"name":"feeds/1"},{"name":"feeds/2"}],"count":2}`))
	require.NoError(t, err)

	feeds, err := resp.List("feeds")
	require.NoError(t, err)
	assert.Len(t, feeds, 2)

	missing, err := resp.List("forwarders")
	require.NoError(t, err)
	assert.Empty(t, missing)

	_, err = resp.List("count")
	assert.Error(t, err)

	_, err = resp.String("name")
	var missingKey *MissingKeyError
	require.True(t, errors.As(err, &missingKey))
	assert.Equal(t, `Key "name" not found in the response.`, missingKey.Error())
}
