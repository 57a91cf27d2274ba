// ABOUTME: Output helpers shared by commands: JSON with JMESPath, tables, errors
// ABOUTME: Also provides the notifier and confirmer used by CRUD commands

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/term"

	"github.com/markalston/newsdesk/internal/authgate"
	"github.com/markalston/newsdesk/internal/crud"
	"github.com/markalston/newsdesk/internal/tui/styles"
)

// printJSON writes v as indented JSON, filtered through --query when set
func printJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var out any = json.RawMessage(data)
	if queryExpr != "" {
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		result, err := jmespath.Search(queryExpr, doc)
		if err != nil {
			return &crud.ValidationError{Field: "--query", Message: err.Error()}
		}
		out = result
	}

	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(pretty))
	return err
}

// renderTable formats rows as a bordered table
func renderTable(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Muted)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

// truncate shortens s to max runes, marking the cut with an ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

// exitCodeFor maps an error to the command exit code
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, authgate.ErrUnauthenticated):
		return exitRemote
	case crud.IsLocal(err):
		return exitLocal
	default:
		return exitRemote
	}
}

// fail prints err and returns its exit code
func fail(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %v\n", err)
	return exitCodeFor(err)
}

// cliNotifier prints mutation outcomes
type cliNotifier struct {
	w io.Writer
}

func (n cliNotifier) Success(message string) {
	if IsJSONOutput() {
		if err := printJSON(n.w, map[string]string{"message": message}); err != nil {
			fmt.Fprintln(n.w, message)
		}
		return
	}
	fmt.Fprintln(n.w, styles.StatusOK.Render(message))
}

// Failure bypasses --query so the error object is never filtered away.
func (n cliNotifier) Failure(message string, err error) {
	if IsJSONOutput() {
		data, jerr := json.MarshalIndent(map[string]string{"error": fmt.Sprintf("%s: %v", message, err)}, "", "  ")
		if jerr == nil {
			fmt.Fprintln(n.w, string(data))
			return
		}
	}
	fmt.Fprintf(n.w, "Error: %s: %v\n", message, err)
}

// reportMutation turns the result of a controller mutation into an exit
// code. Server and transport failures were already printed by cliNotifier.
func reportMutation(w io.Writer, err error) int {
	if err == nil {
		return exitOK
	}
	if crud.IsLocal(err) {
		return fail(w, err)
	}
	return exitCodeFor(err)
}

// stdinIsTerminal reports whether prompts can be shown
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// askConfirm shows an interactive yes/no prompt
var askConfirm = func(ctx context.Context, prompt string) (bool, error) {
	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(prompt).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&ok),
	))
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// cliConfirmer acknowledges prompts through --yes or an interactive prompt.
// Without a terminal and without --yes it declines.
func cliConfirmer(w io.Writer) crud.Confirmer {
	return crud.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		if assumeYes {
			return true, nil
		}
		if !stdinIsTerminal() {
			fmt.Fprintf(w, "%s\nNo terminal to confirm on; pass --yes to proceed.\n", prompt)
			return false, nil
		}
		return askConfirm(ctx, prompt)
	})
}

// joinNonEmpty joins the non-empty parts with sep
func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
