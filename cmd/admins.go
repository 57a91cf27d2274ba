// ABOUTME: Admin account commands: list, create, and update
// ABOUTME: Deletion is refused because the API policy disables it

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markalston/newsdesk/internal/client"
	"github.com/markalston/newsdesk/internal/crud"
	"github.com/markalston/newsdesk/internal/resources"
)

// adminFields holds the admin flags that were explicitly set
type adminFields struct {
	Name        *string
	Email       *string
	Bio         *string
	Password    string
	PictureFile string
	PictureURL  string
}

var (
	adminName          string
	adminEmail         string
	adminBio           string
	adminPicture       string
	adminPictureURL    string
	adminPasswordStdin bool
	adminPromptPass    bool
)

var adminsCmd = &cobra.Command{
	Use:     "admins",
	Aliases: []string{"admin", "users"},
	Short:   "Manage administrator accounts",
}

var adminsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List administrators",
	Run: runWithSignals(func(ctx context.Context, _ []string) int {
		return runAdminsList(ctx, os.Stdout)
	}),
}

var adminsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an administrator",
	Long: `Create an administrator. A password and a profile picture are required.
The password is prompted for on a terminal, or read from stdin with --password-stdin.`,
	Example: `  echo "s3cret" | newsdesk admins create --name "Ana" --email ana@example.com --password-stdin --picture ana.png`,
	Run: func(cmd *cobra.Command, args []string) {
		adminPromptPass = true
		runAdminMutation(cmd, args, 0)
	},
}

var adminsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an administrator; only the flags given are changed",
	Long: `Update an administrator. The password is kept unless --password-stdin
or --password is given.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			os.Exit(fail(os.Stdout, err))
		}
		runAdminMutation(cmd, args, id)
	},
}

var adminsDeleteCmd = &cobra.Command{
	Use:    "delete <id>",
	Short:  "Administrators cannot be deleted",
	Args:   cobra.ExactArgs(1),
	Hidden: true,
	Run: runWithSignals(func(ctx context.Context, args []string) int {
		id, err := parseID(args[0])
		if err != nil {
			return fail(os.Stdout, err)
		}
		return runAdminsDelete(ctx, os.Stdout, id)
	}),
}

func init() {
	for _, c := range []*cobra.Command{adminsCreateCmd, adminsUpdateCmd} {
		c.Flags().StringVar(&adminName, "name", "", "Display name")
		c.Flags().StringVar(&adminEmail, "email", "", "Login email")
		c.Flags().StringVar(&adminBio, "bio", "", "Short biography")
		c.Flags().StringVar(&adminPicture, "picture", "", "Upload a profile picture file")
		c.Flags().StringVar(&adminPictureURL, "picture-url", "", "Use an external profile picture URL")
		c.Flags().BoolVar(&adminPasswordStdin, "password-stdin", false, "Read the password from stdin")
		c.MarkFlagsMutuallyExclusive("picture", "picture-url")
	}
	adminsUpdateCmd.Flags().BoolVar(&adminPromptPass, "password", false, "Prompt for a new password")

	adminsCmd.AddCommand(adminsListCmd, adminsCreateCmd, adminsUpdateCmd, adminsDeleteCmd)
	rootCmd.AddCommand(adminsCmd)
}

// runAdminMutation collects the flags and password, then creates (id 0) or
// updates an admin
func runAdminMutation(cmd *cobra.Command, args []string, id int) {
	f := collectAdminFields(cmd)
	if adminPasswordStdin || adminPromptPass {
		pw, err := readNewPassword(os.Stdin, adminPasswordStdin)
		if err != nil {
			os.Exit(fail(os.Stdout, err))
		}
		f.Password = pw
	}
	runWithSignals(func(ctx context.Context, _ []string) int {
		if id == 0 {
			return runAdminsCreate(ctx, os.Stdout, f)
		}
		return runAdminsUpdate(ctx, os.Stdout, id, f)
	})(cmd, args)
}

func collectAdminFields(cmd *cobra.Command) adminFields {
	var f adminFields
	flags := cmd.Flags()
	if flags.Changed("name") {
		f.Name = &adminName
	}
	if flags.Changed("email") {
		f.Email = &adminEmail
	}
	if flags.Changed("bio") {
		f.Bio = &adminBio
	}
	f.PictureFile = adminPicture
	f.PictureURL = adminPictureURL
	return f
}

// readNewPassword reads a password from stdin or from a hidden terminal prompt
func readNewPassword(in io.Reader, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	if !stdinIsTerminal() {
		return "", nil
	}
	fmt.Fprint(os.Stderr, "New password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// apply copies the set fields onto the draft
func (f adminFields) apply(d *resources.AdminDraft) {
	if f.Name != nil {
		d.Name = *f.Name
	}
	if f.Email != nil {
		d.Email = *f.Email
	}
	if f.Bio != nil {
		d.Bio = *f.Bio
	}
	if f.Password != "" {
		d.Password = f.Password
	}
	switch {
	case f.PictureFile != "":
		d.Picture.SelectFile(f.PictureFile)
	case f.PictureURL != "":
		d.Picture.SetURL(f.PictureURL)
	}
}

func (e *appEnv) adminsController(w io.Writer) *crud.Controller[client.Admin, resources.AdminDraft] {
	return resources.NewAdminsController(e.session,
		crud.WithNotifier(cliNotifier{w: w}),
		crud.WithLogger(e.log),
	)
}

func runAdminsList(ctx context.Context, w io.Writer) int {
	env, err := openAuthenticated(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	ctrl := env.adminsController(w)
	if err := ctrl.List(ctx); err != nil {
		return fail(w, err)
	}

	items := ctrl.Items()
	if IsJSONOutput() {
		if err := printJSON(w, items); err != nil {
			return fail(w, err)
		}
		return exitOK
	}
	fmt.Fprintln(w, formatAdminsTable(items))
	return exitOK
}

func runAdminsCreate(ctx context.Context, w io.Writer, f adminFields) int {
	env, err := openAuthenticated(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	ctrl := env.adminsController(w)
	defer ctrl.Close()

	ctrl.BeginCreate()
	d := ctrl.Draft()
	f.apply(&d)
	return reportMutation(w, ctrl.Submit(ctx, d))
}

func runAdminsUpdate(ctx context.Context, w io.Writer, id int, f adminFields) int {
	env, err := openAuthenticated(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	ctrl := env.adminsController(w)
	defer ctrl.Close()

	if err := ctrl.List(ctx); err != nil {
		return fail(w, err)
	}
	admin, ok := ctrl.Find(id)
	if !ok {
		fmt.Fprintf(w, "Error: admin %d not found\n", id)
		return exitRemote
	}

	ctrl.BeginEdit(admin)
	d := ctrl.Draft()
	f.apply(&d)
	return reportMutation(w, ctrl.Submit(ctx, d))
}

func runAdminsDelete(ctx context.Context, w io.Writer, id int) int {
	env, err := openAuthenticated(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	ctrl := env.adminsController(w)
	defer ctrl.Close()
	return reportMutation(w, ctrl.Delete(ctx, id, cliConfirmer(w)))
}

func formatAdminsTable(admins []client.Admin) string {
	if len(admins) == 0 {
		return "No admins found."
	}
	rows := make([][]string, 0, len(admins))
	for _, a := range admins {
		rows = append(rows, []string{strconv.Itoa(a.ID), a.Name, a.Email, truncate(a.Bio, 40)})
	}
	return renderTable([]string{"ID", "Name", "Email", "Bio"}, rows)
}
