// ABOUTME: dev-server command running an in-memory fake of the content API
// ABOUTME: Seeded with a demo admin so the CLI and console can be tried offline

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/markalston/newsdesk/internal/apitest"
	"github.com/markalston/newsdesk/internal/logger"
)

var devServerAddr string

var devServerCmd = &cobra.Command{
	Use:   "dev-server",
	Short: "Run an in-memory content API for local testing",
	Long: fmt.Sprintf(`Run an in-memory content API with demo data. Nothing is persisted.

Log in with:
  newsdesk login --email %s   (password: %s)`, apitest.DemoEmail, apitest.DemoPassword),
	Run: runWithSignals(func(ctx context.Context, _ []string) int {
		if err := runDevServer(ctx, devServerAddr); err != nil {
			fmt.Fprintf(os.Stdout, "Error: %v\n", err)
			return exitRemote
		}
		return exitOK
	}),
}

func init() {
	devServerCmd.Flags().StringVar(&devServerAddr, "listen", "127.0.0.1:8080", "Address to listen on")
	rootCmd.AddCommand(devServerCmd)
}

// runDevServer serves the fake API until ctx is canceled
func runDevServer(ctx context.Context, addr string) error {
	log := logger.New(os.Stderr, "info", "text")

	api := apitest.New(apitest.WithLogger(log), apitest.WithRequireAuth())
	apitest.Seed(api)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("dev server listening", "addr", addr, "email", apitest.DemoEmail)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down dev server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
