package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// ErrNoCredentials is returned when the OAuth client secret file is missing.
var ErrNoCredentials = errors.New("google: client secret file not found")

// ErrNoToken is returned when no cached OAuth token exists. Run the auth
// command to perform the interactive consent flow.
var ErrNoToken = errors.New("google: no cached OAuth token, run 'zara auth' first")

// Config holds the paths to the local OAuth credential files.
type Config struct {
	// CredentialsFile is the OAuth client secret JSON for a desktop app.
	CredentialsFile string

	// TokenFile is where the authorized token is cached.
	TokenFile string
}

// DefaultCredentialsFile returns the default location of the client secret file.
func DefaultCredentialsFile() string {
	return "desktop_credentials.json"
}

// DefaultTokenFile returns the default token cache location in the user
// cache directory.
func DefaultTokenFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "token.json"
	}
	return filepath.Join(dir, "zara", "token.json")
}

// HasToken reports whether a cached token file exists.
func (c Config) HasToken() bool {
	_, err := os.Stat(c.TokenFile)
	return err == nil
}

// oauthConfig parses the client secret file into an oauth2 config with the
// calendar scope. Fails without any network call if the file is missing.
func (c Config) oauthConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(c.CredentialsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoCredentials, c.CredentialsFile)
		}
		return nil, fmt.Errorf("google: reading client secret file: %w", err)
	}

	conf, err := google.ConfigFromJSON(data, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("google: parsing client secret file: %w", err)
	}
	return conf, nil
}

// TokenSource returns an oauth2 token source backed by the cached token.
// The source refreshes the token as needed using the refresh token.
// Returns ErrNoToken if no token has been cached yet, and ErrNoCredentials
// if the client secret file is missing; both checks happen before any
// network call.
func (c Config) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	conf, err := c.oauthConfig()
	if err != nil {
		return nil, err
	}

	token, err := c.loadToken()
	if err != nil {
		return nil, err
	}

	return conf.TokenSource(ctx, token), nil
}

// HTTPClient returns an HTTP client that authenticates requests with the
// cached token.
func (c Config) HTTPClient(ctx context.Context) (*http.Client, error) {
	ts, err := c.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

func (c Config) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w (looked in %s)", ErrNoToken, c.TokenFile)
		}
		return nil, fmt.Errorf("google: reading token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("google: parsing token file: %w", err)
	}
	return &token, nil
}

// SaveToken persists a token to the token cache file.
func (c Config) SaveToken(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("google: encoding token: %w", err)
	}

	if dir := filepath.Dir(c.TokenFile); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("google: creating token directory: %w", err)
		}
	}
	if err := os.WriteFile(c.TokenFile, data, 0600); err != nil {
		return fmt.Errorf("google: writing token file: %w", err)
	}
	return nil
}
