// ABOUTME: Login, logout, and whoami commands
// ABOUTME: Manage the persisted session shared by every other command

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/markalston/newsdesk/internal/crud"
	"github.com/markalston/newsdesk/internal/session"
)

var (
	loginEmail         string
	loginPasswordStdin bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Long: `Exchange an email and password for an API token. The token and the admin
profile are stored in the config directory and reused by later commands.

Without a terminal, pass --email and pipe the password with --password-stdin.`,
	Run: runWithSignals(func(ctx context.Context, _ []string) int {
		email, password, err := promptCredentials(ctx, os.Stdin, loginEmail, loginPasswordStdin)
		if err != nil {
			return fail(os.Stdout, err)
		}
		return runLogin(ctx, os.Stdout, email, password)
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Run: runWithSignals(func(ctx context.Context, _ []string) int {
		return runLogout(ctx, os.Stdout)
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in admin",
	Run: runWithSignals(func(ctx context.Context, _ []string) int {
		return runWhoami(ctx, os.Stdout)
	}),
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Admin email")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from stdin")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

// readPassword is a test seam for term.ReadPassword
var readPassword = term.ReadPassword

// promptCredentials collects whatever the flags did not provide. With a
// terminal a huh form asks for the email and a hidden password.
func promptCredentials(ctx context.Context, in io.Reader, email string, passwordFromStdin bool) (string, string, error) {
	if passwordFromStdin {
		if email == "" {
			return "", "", crud.Required("--email")
		}
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", "", fmt.Errorf("read password: %w", err)
		}
		return email, strings.TrimRight(line, "\r\n"), nil
	}

	if !stdinIsTerminal() {
		return "", "", &crud.ValidationError{Message: "no terminal for prompts; use --email with --password-stdin"}
	}

	if email != "" {
		fmt.Fprint(os.Stderr, "Password: ")
		pw, err := readPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
		return email, string(pw), nil
	}

	var password string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Value(&email).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("email is required")
				}
				return nil
			}),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&password),
	))
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", "", &crud.ValidationError{Message: "login canceled"}
		}
		return "", "", err
	}
	return strings.TrimSpace(email), password, nil
}

// runLogin performs the login and returns the exit code
func runLogin(ctx context.Context, w io.Writer, email, password string) int {
	env, err := openEnv(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	if !env.session.Login(ctx, email, password) {
		fmt.Fprintf(w, "Error: login failed for %s at %s\n", email, env.cfg.APIURL)
		fmt.Fprintln(w, "Check the credentials and that the API is reachable; details are in the log.")
		return exitRemote
	}

	st := env.session.State()
	if IsJSONOutput() {
		if err := printJSON(w, whoamiView(env.cfg.APIURL, st.User, env.session.Token())); err != nil {
			return fail(w, err)
		}
		return exitOK
	}
	fmt.Fprintln(w, formatLoginHuman(st.User, email))
	return exitOK
}

// runLogout clears the stored session
func runLogout(ctx context.Context, w io.Writer) int {
	env, err := openEnv(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	if !env.session.State().Authenticated {
		fmt.Fprintln(w, "Not logged in.")
		return exitOK
	}
	if err := env.session.Logout(ctx); err != nil {
		return fail(w, err)
	}
	fmt.Fprintln(w, "Logged out.")
	return exitOK
}

// runWhoami prints the cached profile of the logged-in admin
func runWhoami(ctx context.Context, w io.Writer) int {
	env, err := openAuthenticated(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	st := env.session.State()
	view := whoamiView(env.cfg.APIURL, st.User, env.session.Token())
	if IsJSONOutput() {
		if err := printJSON(w, view); err != nil {
			return fail(w, err)
		}
		return exitOK
	}
	fmt.Fprintln(w, formatWhoamiHuman(view))
	return exitOK
}

// identity is the JSON shape of whoami and login output
type identity struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Synthesized bool       `json:"synthesized"`
	APIURL      string     `json:"api_url"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func whoamiView(apiURL string, user *session.UserProfile, token string) identity {
	v := identity{APIURL: apiURL}
	if user != nil {
		v.ID = user.ID
		v.Name = user.Name
		v.Email = user.Email
		v.Synthesized = user.Synthesized
	}
	if exp, ok := session.TokenExpiry(token); ok {
		v.ExpiresAt = &exp
	}
	return v
}

func formatLoginHuman(user *session.UserProfile, email string) string {
	if user == nil {
		return fmt.Sprintf("Logged in as %s.", email)
	}
	msg := fmt.Sprintf("Logged in as %s <%s>.", user.Name, user.Email)
	if user.Synthesized {
		msg += "\nThe server did not return a profile; showing a placeholder."
	}
	return msg
}

func formatWhoamiHuman(v identity) string {
	name := v.Name
	if name == "" {
		name = "(unknown)"
	}
	if v.Synthesized {
		name += " (placeholder)"
	}

	id := "-"
	if v.ID != 0 {
		id = fmt.Sprintf("%d", v.ID)
	}

	expires := "unknown"
	if v.ExpiresAt != nil {
		expires = v.ExpiresAt.Local().Format(time.RFC1123)
		if time.Until(*v.ExpiresAt) < 0 {
			expires += " (expired)"
		}
	}

	return fmt.Sprintf(`Name:     %s
Email:    %s
ID:       %s
Backend:  %s
Expires:  %s`, name, v.Email, id, v.APIURL, expires)
}
