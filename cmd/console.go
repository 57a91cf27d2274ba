// ABOUTME: console command launching the interactive terminal UI
// ABOUTME: Shares the session and configuration with the other commands

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/markalston/newsdesk/internal/crud"
	"github.com/markalston/newsdesk/internal/tui"
)

var consoleCmd = &cobra.Command{
	Use:     "console",
	Aliases: []string{"ui"},
	Short:   "Open the interactive console",
	Long: `Browse and edit posts, categories, and admins in a full-screen terminal UI.
The console signs in with the stored session, or asks for credentials when
there is none. Logs always go to the log file while the console is open.`,
	Run: runWithSignals(func(ctx context.Context, _ []string) int {
		return runConsole(ctx, os.Stdout)
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

// runConsole opens the console on the restored session
func runConsole(ctx context.Context, w io.Writer) int {
	if !stdinIsTerminal() {
		return fail(w, &crud.ValidationError{Message: "the console needs a terminal"})
	}

	// stderr output would draw over the console
	verbose = false

	env, err := openEnv(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	err = tui.Run(ctx, env.session, tui.Config{
		APIURL:   env.cfg.APIURL,
		PageSize: env.cfg.PageSize,
		Logger:   env.log,
	})
	if err != nil {
		fmt.Fprintf(w, "Error: console: %v\n", err)
		return exitLocal
	}
	return exitOK
}
