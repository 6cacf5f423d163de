package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
)

// Authorize runs the interactive OAuth consent flow: it prints the consent
// URL, starts a local listener for the redirect, exchanges the authorization
// code for a token and persists it to the token cache file.
//
// Fails with ErrNoCredentials before any network call if the client secret
// file is missing.
func (c Config) Authorize(ctx context.Context) (*oauth2.Token, error) {
	conf, err := c.oauthConfig()
	if err != nil {
		return nil, err
	}

	// Bind an ephemeral port and point the redirect there.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("google: starting redirect listener: %w", err)
	}
	conf.RedirectURL = fmt.Sprintf("http://%s/callback", listener.Addr())

	state := fmt.Sprintf("zara-%d", time.Now().UTC().UnixNano())
	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(os.Stdout, "\nGo to the following link in your browser\n%s\n", authURL)

	type result struct {
		token *oauth2.Token
		err   error
	}
	resultCh := make(chan result, 1)

	mux := http.NewServeMux()
	server := &http.Server{Handler: mux}

	mux.HandleFunc("/callback", func(w http.ResponseWriter, req *http.Request) {
		query := req.URL.Query()
		if query.Get("state") != state {
			http.Error(w, "oauth state mismatch", http.StatusBadRequest)
			resultCh <- result{err: errors.New("google: oauth state mismatch")}
			return
		}
		if errMsg := query.Get("error"); errMsg != "" {
			http.Error(w, "consent denied", http.StatusForbidden)
			resultCh <- result{err: fmt.Errorf("google: consent denied: %s", errMsg)}
			return
		}

		token, err := conf.Exchange(req.Context(), query.Get("code"))
		if err != nil {
			http.Error(w, "unable to retrieve token", http.StatusInternalServerError)
			resultCh <- result{err: fmt.Errorf("google: exchanging auth code: %w", err)}
			return
		}

		fmt.Fprintln(w, "Authorized. You can close this window and return to the terminal.")
		resultCh <- result{token: token}
	})

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			resultCh <- result{err: fmt.Errorf("google: redirect server: %w", err)}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		if err := c.SaveToken(res.token); err != nil {
			return nil, err
		}
		return res.token, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
