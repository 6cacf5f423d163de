package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zeeshanhm/zara/internal/google"
	"github.com/zeeshanhm/zara/internal/instrumentation"
	"github.com/zeeshanhm/zara/internal/logging"
)

func newAuthCmd() *cobra.Command {
	var (
		credentialsFile string
		tokenFile       string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Run the Google OAuth consent flow and cache the token",
		Long: `Authorize the assistant against the owner's Google Calendar. Opens a
consent URL in the browser, receives the callback on a local port, and
caches the resulting token for the serve command.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()

			instrConfig := instrumentation.DefaultConfig()
			instrConfig.ServiceVersion = version
			provider, err := instrumentation.NewProvider(ctx, instrConfig)
			if err != nil {
				return fmt.Errorf("failed to create instrumentation provider: %w", err)
			}
			defer func() {
				if err := provider.Shutdown(context.Background()); err != nil {
					slog.Warn("instrumentation shutdown failed", logging.Err(err))
				}
			}()

			config := google.Config{
				CredentialsFile: credentialsFile,
				TokenFile:       tokenFile,
			}
			if _, err := config.Authorize(ctx); err != nil {
				provider.Metrics().RecordOAuthAuth(ctx, logging.StatusError)
				return fmt.Errorf("authorization failed: %w", err)
			}
			provider.Metrics().RecordOAuthAuth(ctx, logging.StatusSuccess)
			fmt.Printf("Token saved to %s\n", tokenFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&credentialsFile, "credentials", google.DefaultCredentialsFile(), "Path to the Google OAuth client secret file")
	cmd.Flags().StringVar(&tokenFile, "token-file", google.DefaultTokenFile(), "Path to write the cached Google OAuth token")

	return cmd
}
