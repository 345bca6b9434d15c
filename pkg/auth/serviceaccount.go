// Package auth turns a service-account credential file into an authorized
// HTTP session.
//
// The credential file is the JSON key downloaded for a service account. The
// session signs a JWT assertion with the key, exchanges it for an OAuth2
// access token at the key's token_uri and attaches the token as a bearer to
// every request. Tokens are refreshed transparently and are never written to
// disk.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scope is the OAuth2 scope of the SIEM API.
const Scope = "https://www.googleapis.com/auth/chronicle-backstory"

// ServiceAccountConfig configures NewHTTPClient.
type ServiceAccountConfig struct {
	// CredentialFile is the path of the service-account JSON key.
	CredentialFile string
	// Scopes default to Scope.
	Scopes []string
	// Timeout bounds every request made through the session.
	Timeout time.Duration
	// BaseClient carries token and API requests. It defaults to
	// http.DefaultClient.
	BaseClient *http.Client
}

// NewHTTPClient returns an http.Client that authorizes every request with a
// token obtained for the service account. Errors reading the credential file
// are returned unwrapped so the OS message reaches the user verbatim.
func NewHTTPClient(ctx context.Context, config *ServiceAccountConfig) (*http.Client, error) {
	if config == nil || config.CredentialFile == "" {
		return nil, fmt.Errorf("credential file is required")
	}

	data, err := os.ReadFile(config.CredentialFile)
	if err != nil {
		return nil, err
	}

	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{Scope}
	}

	jwtConfig, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid credential file %s: %w", config.CredentialFile, err)
	}

	if config.BaseClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, config.BaseClient)
	}

	client := oauth2.NewClient(ctx, jwtConfig.TokenSource(ctx))
	client.Timeout = config.Timeout
	return client, nil
}
