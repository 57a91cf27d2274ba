// ABOUTME: Root command for the newsdesk CLI
// ABOUTME: Handles global flags, exit codes, and configuration precedence

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/newsdesk/internal/config"
)

var (
	apiURL     string
	jsonOutput bool
	queryExpr  string
	configDir  string
	assumeYes  bool
	verbose    bool
)

// Exit codes
const (
	exitOK = 0
	// exitLocal covers local validation failures, declined confirmations,
	// and actions the resource does not permit
	exitLocal = 1
	// exitRemote covers transport and server errors, and a missing login
	exitRemote = 2
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "newsdesk",
	Short: "CLI for the newsdesk content API",
	Long: `newsdesk manages a news site through its REST API: posts, categories, and
administrator accounts. Log in once; the session is kept in the config directory.

Environment Variables:
  NEWSDESK_API_URL            Backend API URL (default: http://localhost:8080)
  NEWSDESK_CONFIG_DIR         Session and log directory (default: ~/.config/newsdesk)
  NEWSDESK_SESSION_BACKEND    Session storage: file or sqlite (default: file)
  NEWSDESK_REQUEST_TIMEOUT    HTTP timeout (default: 30s)
  NEWSDESK_PAGE_SIZE          Posts shown by "posts latest" (default: 10)
  NEWSDESK_SYNTHESIZE_PROFILE Build a placeholder profile when login returns none (default: true)
  LOG_LEVEL, LOG_FORMAT       Log verbosity and format (text or json)`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&apiURL, "api-url", "", "Backend API URL (overrides NEWSDESK_API_URL)")
	flags.BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	flags.StringVar(&queryExpr, "query", "", "JMESPath expression applied to JSON output (implies --json)")
	flags.StringVar(&configDir, "config-dir", "", "Directory for the session and log file (overrides NEWSDESK_CONFIG_DIR)")
	flags.BoolVarP(&assumeYes, "yes", "y", false, "Acknowledge destructive prompts without asking")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Write logs to stderr instead of the log file")
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	if envURL := os.Getenv("NEWSDESK_API_URL"); envURL != "" {
		return envURL
	}
	return config.DefaultAPIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput || queryExpr != ""
}

// runWithSignals adapts an exit-code returning function to a cobra Run func.
// The context is canceled on SIGINT or SIGTERM.
func runWithSignals(fn func(ctx context.Context, args []string) int) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		exitCode := fn(ctx, args)
		cancel()
		if exitCode != exitOK {
			os.Exit(exitCode)
		}
	}
}
