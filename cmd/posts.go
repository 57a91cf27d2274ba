// ABOUTME: Post commands: public reading plus create, update, and delete
// ABOUTME: Mutations go through the CRUD controller bound to the session

package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/markalston/newsdesk/internal/client"
	"github.com/markalston/newsdesk/internal/crud"
	"github.com/markalston/newsdesk/internal/resources"
	"github.com/markalston/newsdesk/internal/richtext"
	"github.com/markalston/newsdesk/internal/tui/styles"
)

// postFields holds the post flags that were explicitly set
type postFields struct {
	Title      *string
	Content    *string
	CategoryID *int
	ImageFile  string
	ImageURL   string
}

var (
	postSize        int
	postTitle       string
	postContent     string
	postContentFile string
	postCategory    int
	postImage       string
	postImageURL    string
)

var postsCmd = &cobra.Command{
	Use:     "posts",
	Aliases: []string{"post"},
	Short:   "Read and manage posts",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts with ids and categories (requires login)",
	Run: runWithSignals(func(ctx context.Context, _ []string) int {
		return runPostsList(ctx, os.Stdout, postSize)
	}),
}

var postsLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the latest posts as the home page does",
	Run: runWithSignals(func(ctx context.Context, _ []string) int {
		return runPostsLatest(ctx, os.Stdout, postSize)
	}),
}

var postsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search posts by title",
	Long:  `Search posts by title. An empty query shows the latest posts instead.`,
	Run: runWithSignals(func(ctx context.Context, args []string) int {
		return runPostsSearch(ctx, os.Stdout, strings.Join(args, " "))
	}),
}

var postsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one post",
	Args:  cobra.ExactArgs(1),
	Run: runWithSignals(func(ctx context.Context, args []string) int {
		id, err := parseID(args[0])
		if err != nil {
			return fail(os.Stdout, err)
		}
		return runPostsShow(ctx, os.Stdout, id)
	}),
}

var postsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a post",
	Example: `  newsdesk posts create --title "Launch day" --content-file body.html --category 3 --image cover.png
  newsdesk posts create --title "Linked" --image-url https://example.com/cover.jpg`,
	Run: func(cmd *cobra.Command, args []string) {
		f, err := collectPostFields(cmd)
		if err != nil {
			os.Exit(fail(os.Stdout, err))
		}
		runWithSignals(func(ctx context.Context, _ []string) int {
			return runPostsCreate(ctx, os.Stdout, f)
		})(cmd, args)
	},
}

var postsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a post; only the flags given are changed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			os.Exit(fail(os.Stdout, err))
		}
		f, err := collectPostFields(cmd)
		if err != nil {
			os.Exit(fail(os.Stdout, err))
		}
		runWithSignals(func(ctx context.Context, _ []string) int {
			return runPostsUpdate(ctx, os.Stdout, id, f)
		})(cmd, args)
	},
}

var postsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a post after confirmation",
	Args:  cobra.ExactArgs(1),
	Run: runWithSignals(func(ctx context.Context, args []string) int {
		id, err := parseID(args[0])
		if err != nil {
			return fail(os.Stdout, err)
		}
		return runPostsDelete(ctx, os.Stdout, id)
	}),
}

func init() {
	for _, c := range []*cobra.Command{postsListCmd, postsLatestCmd} {
		c.Flags().IntVar(&postSize, "size", 0, "Number of posts (default NEWSDESK_PAGE_SIZE)")
	}
	for _, c := range []*cobra.Command{postsCreateCmd, postsUpdateCmd} {
		c.Flags().StringVar(&postTitle, "title", "", "Post title")
		c.Flags().StringVar(&postContent, "content", "", "Post body (HTML)")
		c.Flags().StringVar(&postContentFile, "content-file", "", "Read the post body from a file")
		c.Flags().IntVar(&postCategory, "category", 0, "Category id (0 for none)")
		c.Flags().StringVar(&postImage, "image", "", "Upload a cover image file")
		c.Flags().StringVar(&postImageURL, "image-url", "", "Use an external cover image URL")
		c.MarkFlagsMutuallyExclusive("content", "content-file")
		c.MarkFlagsMutuallyExclusive("image", "image-url")
	}

	postsCmd.AddCommand(postsListCmd, postsLatestCmd, postsSearchCmd, postsShowCmd,
		postsCreateCmd, postsUpdateCmd, postsDeleteCmd)
	rootCmd.AddCommand(postsCmd)
}

// collectPostFields reads the post flags that were set on cmd
func collectPostFields(cmd *cobra.Command) (postFields, error) {
	var f postFields
	flags := cmd.Flags()
	if flags.Changed("title") {
		f.Title = &postTitle
	}
	if flags.Changed("content") {
		f.Content = &postContent
	}
	if flags.Changed("content-file") {
		data, err := os.ReadFile(postContentFile)
		if err != nil {
			return f, fmt.Errorf("read content file: %w", err)
		}
		content := string(data)
		f.Content = &content
	}
	if flags.Changed("category") {
		f.CategoryID = &postCategory
	}
	f.ImageFile = postImage
	f.ImageURL = postImageURL
	return f, nil
}

// apply copies the set fields onto the draft
func (f postFields) apply(d *resources.PostDraft) {
	if f.Title != nil {
		d.Title = *f.Title
	}
	if f.Content != nil {
		d.Content = *f.Content
	}
	if f.CategoryID != nil {
		d.CategoryID = *f.CategoryID
	}
	switch {
	case f.ImageFile != "":
		d.Image.SelectFile(f.ImageFile)
	case f.ImageURL != "":
		d.Image.SetURL(f.ImageURL)
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, &crud.ValidationError{Field: "id", Message: fmt.Sprintf("must be a positive number, got %q", s)}
	}
	return id, nil
}

func (e *appEnv) postsController(w io.Writer, size int) *crud.Controller[client.Post, resources.PostDraft] {
	if size <= 0 {
		size = e.cfg.PageSize
	}
	return resources.NewPostsController(e.session, size,
		crud.WithNotifier(cliNotifier{w: w}),
		crud.WithLogger(e.log),
	)
}

// runPostsList prints the admin post listing
func runPostsList(ctx context.Context, w io.Writer, size int) int {
	env, err := openAuthenticated(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	ctrl := env.postsController(w, size)
	if err := ctrl.List(ctx); err != nil {
		return fail(w, err)
	}
	return printPosts(w, ctrl.Items(), formatPostsTable)
}

// runPostsLatest prints the newest posts; no login needed
func runPostsLatest(ctx context.Context, w io.Writer, size int) int {
	env, err := openEnv(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	if size <= 0 {
		size = env.cfg.PageSize
	}
	posts, err := env.session.Client().ListPosts(ctx, client.ListOptions{Size: size})
	if err != nil {
		return fail(w, err)
	}
	return printPosts(w, posts, formatPostsReader)
}

// runPostsSearch searches by title, falling back to the latest posts
func runPostsSearch(ctx context.Context, w io.Writer, query string) int {
	query = strings.TrimSpace(query)
	if query == "" {
		return runPostsLatest(ctx, w, 0)
	}

	env, err := openEnv(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	posts, err := env.session.Client().SearchPosts(ctx, query)
	if err != nil {
		return fail(w, err)
	}
	if len(posts) == 0 && !IsJSONOutput() {
		fmt.Fprintf(w, "No posts match %q.\n", query)
		return exitOK
	}
	return printPosts(w, posts, formatPostsReader)
}

// runPostsShow prints a single post
func runPostsShow(ctx context.Context, w io.Writer, id int) int {
	env, err := openEnv(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	post, err := env.session.Client().GetPost(ctx, id)
	if err != nil {
		if client.IsStatus(err, http.StatusNotFound) {
			fmt.Fprintf(w, "Error: post %d not found\n", id)
			return exitRemote
		}
		return fail(w, err)
	}

	if IsJSONOutput() {
		if err := printJSON(w, post); err != nil {
			return fail(w, err)
		}
		return exitOK
	}
	fmt.Fprintln(w, formatPostHuman(post))
	return exitOK
}

// runPostsCreate submits a new post
func runPostsCreate(ctx context.Context, w io.Writer, f postFields) int {
	env, err := openAuthenticated(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	ctrl := env.postsController(w, 0)
	defer ctrl.Close()

	ctrl.BeginCreate()
	d := ctrl.Draft()
	f.apply(&d)
	return reportMutation(w, ctrl.Submit(ctx, d))
}

// runPostsUpdate loads the post and the categories together, then submits
// the changed fields as an update of that post
func runPostsUpdate(ctx context.Context, w io.Writer, id int, f postFields) int {
	env, err := openAuthenticated(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	var (
		post       *client.Post
		categories []client.Category
	)
	api := env.session.Client()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := api.GetPost(gctx, id)
		post = p
		return err
	})
	g.Go(func() error {
		c, err := api.ListCategories(gctx)
		categories = c
		return err
	})
	if err := g.Wait(); err != nil {
		if client.IsStatus(err, http.StatusNotFound) {
			fmt.Fprintf(w, "Error: post %d not found\n", id)
			return exitRemote
		}
		return fail(w, err)
	}

	if f.CategoryID != nil && *f.CategoryID != 0 && !hasCategory(categories, *f.CategoryID) {
		return fail(w, &crud.ValidationError{
			Field:   "category",
			Message: fmt.Sprintf("%d does not exist", *f.CategoryID),
		})
	}

	ctrl := env.postsController(w, 0)
	defer ctrl.Close()

	ctrl.BeginEdit(*post)
	d := ctrl.Draft()
	f.apply(&d)
	return reportMutation(w, ctrl.Submit(ctx, d))
}

// runPostsDelete deletes a post once the user confirms
func runPostsDelete(ctx context.Context, w io.Writer, id int) int {
	env, err := openAuthenticated(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	ctrl := env.postsController(w, 0)
	defer ctrl.Close()

	if err := ctrl.List(ctx); err != nil {
		env.log.Warn("could not load posts for the delete prompt", "error", err)
	}
	return reportMutation(w, ctrl.Delete(ctx, id, cliConfirmer(w)))
}

func hasCategory(categories []client.Category, id int) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func printPosts(w io.Writer, posts []client.Post, human func([]client.Post) string) int {
	if IsJSONOutput() {
		if err := printJSON(w, posts); err != nil {
			return fail(w, err)
		}
		return exitOK
	}
	fmt.Fprintln(w, human(posts))
	return exitOK
}

// formatPostsTable renders the admin listing
func formatPostsTable(posts []client.Post) string {
	if len(posts) == 0 {
		return "No posts found."
	}
	rows := make([][]string, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, []string{
			strconv.Itoa(p.ID),
			truncate(p.Title, 48),
			categoryLabel(p),
			formatDate(p.DataPublication),
		})
	}
	return renderTable([]string{"ID", "Title", "Category", "Published"}, rows)
}

// formatPostsReader renders posts the way the public home page lists them
func formatPostsReader(posts []client.Post) string {
	if len(posts) == 0 {
		return "No posts yet."
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(styles.Primary)
	meta := lipgloss.NewStyle().Foreground(styles.Muted)

	var sb strings.Builder
	for i, p := range posts {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(title.Render(fmt.Sprintf("#%d %s", p.ID, p.Title)))
		sb.WriteString("\n")
		sb.WriteString(meta.Render(joinNonEmpty(" · ", formatDate(p.DataPublication), p.CategoryName)))
		if excerpt := richtext.Excerpt(p.Content, 160); excerpt != "" {
			sb.WriteString("\n")
			sb.WriteString(excerpt)
		}
	}
	return sb.String()
}

// formatPostHuman renders a full post
func formatPostHuman(p *client.Post) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(styles.Primary)
	meta := lipgloss.NewStyle().Foreground(styles.Muted)
	body := lipgloss.NewStyle().Width(80)

	author := ""
	if p.Author != nil {
		author = "By " + p.Author.Name
	}

	var sb strings.Builder
	sb.WriteString(title.Render(p.Title))
	sb.WriteString("\n")
	sb.WriteString(meta.Render(joinNonEmpty(" · ", author, formatDate(p.DataPublication), p.CategoryName)))
	if p.ImageURL != "" {
		sb.WriteString("\n")
		sb.WriteString(meta.Render("Image: " + p.ImageURL))
	}
	if text := richtext.PlainText(p.Content); text != "" {
		sb.WriteString("\n\n")
		sb.WriteString(body.Render(text))
	}
	return sb.String()
}

func categoryLabel(p client.Post) string {
	if p.CategoryName != "" {
		return p.CategoryName
	}
	return "-"
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"}

// formatDate renders an API timestamp as a short date; unknown formats pass through
func formatDate(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return s
}
