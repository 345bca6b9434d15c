// Package testutil holds fixtures shared by tests across packages.
package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

// AccessToken is the bearer issued by TokenHandler.
const AccessToken = "test-access-token"

// WriteServiceAccount writes a service-account key whose token_uri points at
// tokenURL and returns its path.
func WriteServiceAccount(t *testing.T, dir, tokenURL string) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("failed to marshal key: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	data, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "test-project",
		"private_key_id": "test-key",
		"private_key":    string(keyPEM),
		"client_email":   "siemctl@test-project.iam.gserviceaccount.com",
		"client_id":      "1234567890",
		"token_uri":      tokenURL,
	})
	if err != nil {
		t.Fatalf("failed to marshal credentials: %v", err)
	}

	path := filepath.Join(dir, "credentials.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to write credentials: %v", err)
	}
	return path
}

// TokenHandler answers JWT-bearer token requests with AccessToken.
func TokenHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.Form.Get("assertion") == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_request"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"access_token":"` + AccessToken + `","token_type":"Bearer","expires_in":3600}`))
}

// Authorized reports whether r carries the bearer issued by TokenHandler.
func Authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+AccessToken
}
