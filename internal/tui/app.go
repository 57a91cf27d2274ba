// ABOUTME: Root bubbletea model for the console
// ABOUTME: Gates every screen on the session and routes input to tabs and forms

package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/newsdesk/internal/authgate"
	"github.com/markalston/newsdesk/internal/crud"
	"github.com/markalston/newsdesk/internal/logger"
	"github.com/markalston/newsdesk/internal/session"
	"github.com/markalston/newsdesk/internal/tui/forms"
	"github.com/markalston/newsdesk/internal/tui/icons"
	"github.com/markalston/newsdesk/internal/tui/menu"
	"github.com/markalston/newsdesk/internal/tui/styles"
	"github.com/markalston/newsdesk/internal/tui/widgets"
)

// Screen represents the current console screen
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenLogin
	ScreenBrowse
	ScreenForm
	ScreenConfirm
)

// Layout constants
const (
	minTerminalWidth = 80
	// header, tab bar, gaps, and footer around the table
	chromeHeight = 8
)

// restoredMsg is sent once the persisted session has been read
type restoredMsg struct {
	err error
}

// loginResultMsg is sent when a login attempt finishes
type loginResultMsg struct {
	ok bool
}

// loadedMsg is sent when a tab's collection has been fetched
type loadedMsg struct {
	tab menu.Tab
	err error
}

// mutationDoneMsg is sent when a submit or delete finishes
type mutationDoneMsg struct {
	tab      menu.Tab
	err      error
	fromForm bool
}

// loggedOutMsg is sent when logout finishes
type loggedOutMsg struct {
	err error
}

// banner is a notification that stays until a key is pressed
type banner struct {
	text  string
	level widgets.StatusLevel
}

// Config carries console settings
type Config struct {
	APIURL   string
	PageSize int
	Logger   *slog.Logger
}

// App is the root model for the console
type App struct {
	ctx     context.Context
	session *session.Session
	cfg     Config
	log     *slog.Logger

	screen Screen
	width  int
	height int

	spinner spinner.Model
	menu    *menu.Menu
	views   map[menu.Tab]resourceView
	table   table.Model
	notices *noticeQueue

	login     *forms.LoginForm
	lastEmail string
	form      openForm
	formTab   menu.Tab
	confirm   *forms.ConfirmForm
	deleteID  int
	deleteTab menu.Tab

	banner     *banner
	busy       bool
	loading    bool
	lastUpdate time.Time
}

// New creates the console for sess. Nothing is fetched until Init.
func New(ctx context.Context, sess *session.Session, cfg Config) *App {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}

	notices := &noticeQueue{}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	t := table.New(table.WithFocused(true), table.WithHeight(10))
	t.SetStyles(tableStyles())

	a := &App{
		ctx:     ctx,
		session: sess,
		cfg:     cfg,
		log:     log,
		screen:  ScreenLoading,
		spinner: sp,
		menu:    menu.New(),
		views:   newViews(sess, cfg.PageSize, crud.WithNotifier(notices), crud.WithLogger(log)),
		table:   t,
		notices: notices,
	}
	a.syncTable()
	return a
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Foreground(styles.Primary).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(styles.Text).
		Background(styles.Primary).
		Bold(false)
	return s
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.restore())
}

// Close stops the controllers so late results are dropped
func (a *App) Close() {
	for _, v := range a.views {
		v.Close()
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.table.SetHeight(a.tableHeight())
		if f := a.activeForm(); f != nil {
			f.Update(msg)
		}
		return a, nil

	case spinner.TickMsg:
		if a.screen != ScreenLoading && !a.busy && !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		// banners block input until acknowledged
		if a.banner != nil {
			a.banner = nil
			return a, nil
		}
		switch a.screen {
		case ScreenBrowse:
			return a.updateBrowse(msg)
		case ScreenLogin, ScreenForm, ScreenConfirm:
			return a.updateForm(msg)
		}
		return a, nil

	case restoredMsg:
		if msg.err != nil {
			a.log.Warn("session restore failed", "error", msg.err)
			a.showBanner("Could not read the saved session: "+msg.err.Error(), widgets.StatusCritical)
		}
		return a, a.navigate(ScreenBrowse, true)

	case loginResultMsg:
		a.busy = false
		if !msg.ok {
			a.showBanner("Login failed. Check the email and password and try again.", widgets.StatusCritical)
			return a, a.showLogin()
		}
		return a, a.navigate(ScreenBrowse, true)

	case loadedMsg:
		return a.handleLoaded(msg)

	case mutationDoneMsg:
		return a.handleMutationDone(msg)

	case loggedOutMsg:
		a.busy = false
		if msg.err != nil {
			a.showBanner("Could not log out: "+msg.err.Error(), widgets.StatusCritical)
		}
		return a, a.navigate(ScreenBrowse, false)

	case forms.SubmittedMsg:
		return a.handleSubmitted()

	case forms.CancelledMsg:
		return a.handleCancelled()

	default:
		// huh forms need their internal messages
		if f := a.activeForm(); f != nil && !a.busy {
			_, cmd := f.Update(msg)
			return a, cmd
		}
	}

	return a, nil
}

func (a *App) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.busy {
		if msg.String() == "q" {
			return a, tea.Quit
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "tab", "right":
		a.menu.Next()
		a.syncTable()
		return a, a.navigate(ScreenBrowse, true)
	case "shift+tab", "left":
		a.menu.Prev()
		a.syncTable()
		return a, a.navigate(ScreenBrowse, true)
	case "r":
		return a, a.navigate(ScreenBrowse, true)
	case "n":
		return a, a.openForm(a.currentView().Create())
	case "e", "enter":
		id, ok := a.selectedID()
		if !ok {
			return a, nil
		}
		of, ok := a.currentView().Edit(id)
		if !ok {
			return a, nil
		}
		return a, a.openForm(of)
	case "d":
		id, ok := a.selectedID()
		if !ok {
			return a, nil
		}
		return a, a.beginDelete(id)
	case "L":
		if cmd, ok := a.gate(); !ok {
			return a, cmd
		}
		a.busy = true
		return a, tea.Batch(a.spinner.Tick, func() tea.Msg {
			return loggedOutMsg{err: a.session.Logout(a.ctx)}
		})
	}

	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return a, cmd
}

func (a *App) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.busy {
		return a, nil
	}
	f := a.activeForm()
	if f == nil {
		return a, nil
	}
	_, cmd := f.Update(msg)
	return a, cmd
}

func (a *App) activeForm() *forms.Form {
	switch a.screen {
	case ScreenLogin:
		if a.login != nil {
			return a.login.Form
		}
	case ScreenForm:
		return a.form.form
	case ScreenConfirm:
		if a.confirm != nil {
			return a.confirm.Form
		}
	}
	return nil
}

func (a *App) currentView() resourceView {
	return a.views[a.menu.Selected()]
}

func (a *App) selectedID() (int, bool) {
	return a.currentView().IDAt(a.table.Cursor())
}

// gate applies the auth gate. It switches to the loading or login screen and
// returns false when content may not be shown.
func (a *App) gate() (tea.Cmd, bool) {
	switch authgate.Decide(a.session.State()) {
	case authgate.ShowLoading:
		a.screen = ScreenLoading
		return a.spinner.Tick, false
	case authgate.RedirectLogin:
		return a.showLogin(), false
	}
	return nil, true
}

// navigate moves to target when the gate allows it
func (a *App) navigate(target Screen, reload bool) tea.Cmd {
	if cmd, ok := a.gate(); !ok {
		return cmd
	}
	a.screen = target
	if target == ScreenBrowse && reload {
		return a.reload()
	}
	return nil
}

func (a *App) showLogin() tea.Cmd {
	a.form = openForm{}
	a.confirm = nil
	a.login = forms.NewLoginForm(a.lastEmail)
	a.login.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	a.screen = ScreenLogin
	return a.login.Init()
}

func (a *App) reload() tea.Cmd {
	tab := a.menu.Selected()
	v := a.views[tab]
	a.loading = true
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		return loadedMsg{tab: tab, err: v.Load(a.ctx)}
	})
}

func (a *App) openForm(of openForm) tea.Cmd {
	if cmd, ok := a.gate(); !ok {
		return cmd
	}
	a.form = of
	a.formTab = a.menu.Selected()
	a.screen = ScreenForm
	of.form.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	return of.form.Init()
}

func (a *App) beginDelete(id int) tea.Cmd {
	if cmd, ok := a.gate(); !ok {
		return cmd
	}
	v := a.currentView()
	tab := a.menu.Selected()

	if !v.CanDelete() {
		a.busy = true
		return func() tea.Msg {
			return mutationDoneMsg{tab: tab, err: v.Delete(a.ctx, id, false)}
		}
	}

	a.confirm = forms.NewConfirmForm(v.DeletePrompt(id))
	a.confirm.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	a.deleteID = id
	a.deleteTab = tab
	a.screen = ScreenConfirm
	return a.confirm.Init()
}

func (a *App) handleSubmitted() (tea.Model, tea.Cmd) {
	if a.busy {
		return a, nil
	}

	switch a.screen {
	case ScreenLogin:
		email, password := a.login.Credentials()
		a.lastEmail = email
		a.busy = true
		return a, tea.Batch(a.spinner.Tick, func() tea.Msg {
			return loginResultMsg{ok: a.session.Login(a.ctx, email, password)}
		})

	case ScreenForm:
		if cmd, ok := a.gate(); !ok {
			return a, cmd
		}
		submit := a.form.submit
		tab := a.formTab
		a.busy = true
		return a, tea.Batch(a.spinner.Tick, func() tea.Msg {
			return mutationDoneMsg{tab: tab, err: submit(a.ctx), fromForm: true}
		})

	case ScreenConfirm:
		if cmd, ok := a.gate(); !ok {
			return a, cmd
		}
		confirmed := a.confirm.Confirmed()
		id := a.deleteID
		tab := a.deleteTab
		v := a.views[tab]
		a.confirm = nil
		a.busy = true
		a.screen = ScreenBrowse
		return a, tea.Batch(a.spinner.Tick, func() tea.Msg {
			return mutationDoneMsg{tab: tab, err: v.Delete(a.ctx, id, confirmed)}
		})
	}
	return a, nil
}

func (a *App) handleCancelled() (tea.Model, tea.Cmd) {
	switch a.screen {
	case ScreenLogin:
		return a, tea.Quit
	case ScreenForm:
		a.views[a.formTab].CancelEdit()
		a.form = openForm{}
	case ScreenConfirm:
		a.confirm = nil
	}
	return a, a.navigate(ScreenBrowse, false)
}

func (a *App) handleLoaded(msg loadedMsg) (tea.Model, tea.Cmd) {
	a.loading = false
	if msg.err != nil {
		if !errors.Is(msg.err, crud.ErrClosed) {
			a.showBanner("Could not load data: "+msg.err.Error(), widgets.StatusCritical)
		}
	} else {
		a.lastUpdate = time.Now()
	}
	if msg.tab == a.menu.Selected() {
		a.syncTable()
	}
	return a, nil
}

func (a *App) handleMutationDone(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	a.showNotices()
	if msg.tab == a.menu.Selected() {
		a.syncTable()
	}

	var validation *crud.ValidationError
	switch {
	case msg.err == nil:
		a.form = openForm{}
		a.lastUpdate = time.Now()
		return a, a.navigate(ScreenBrowse, false)

	case errors.Is(msg.err, crud.ErrNotConfirmed):
		return a, a.navigate(ScreenBrowse, false)

	case errors.As(msg.err, &validation):
		a.showBanner(capitalize(validation.Error()), widgets.StatusWarning)

	case crud.IsLocal(msg.err):
		a.showBanner(capitalize(msg.err.Error()), widgets.StatusWarning)

	case errors.Is(msg.err, crud.ErrClosed):
		return a, nil
	}

	// the controller kept the draft and edit mode; show the form again
	if msg.fromForm {
		return a, a.openForm(a.views[msg.tab].Reopen())
	}
	return a, a.navigate(ScreenBrowse, false)
}

// showNotices turns queued controller notifications into a banner
func (a *App) showNotices() {
	notices := a.notices.drain()
	if len(notices) == 0 {
		return
	}

	level := widgets.StatusOK
	lines := make([]string, 0, len(notices))
	for _, n := range notices {
		if n.err != nil {
			level = widgets.StatusCritical
			lines = append(lines, fmt.Sprintf("%s: %v", n.message, n.err))
			continue
		}
		lines = append(lines, n.message)
	}
	a.showBanner(strings.Join(lines, "\n"), level)
}

func (a *App) showBanner(text string, level widgets.StatusLevel) {
	if a.banner == nil {
		a.banner = &banner{text: text, level: level}
		return
	}
	// stack onto the unacknowledged banner, keeping the worst level
	a.banner.text += "\n" + text
	if level == widgets.StatusCritical || a.banner.level == widgets.StatusOK {
		a.banner.level = level
	}
}

// syncTable loads the current tab's columns and rows into the table
func (a *App) syncTable() {
	v := a.currentView()
	rows := v.Rows()
	a.table.SetRows(nil)
	a.table.SetColumns(v.Columns())
	a.table.SetRows(rows)
	if a.table.Cursor() >= len(rows) {
		a.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (a *App) tableHeight() int {
	h := a.height - chromeHeight
	if h < 3 {
		h = 3
	}
	return h
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenLoading:
		content = a.spinner.View() + " Restoring session..."
	case ScreenLogin:
		content = a.loginHeading() + "\n" + a.login.View()
	case ScreenBrowse:
		content = a.viewBrowse()
	case ScreenForm:
		content = a.form.form.View()
		if a.busy {
			content += "\n" + a.spinner.View() + " Saving..."
		}
	case ScreenConfirm:
		content = a.confirm.View()
	}

	if a.banner != nil {
		content = a.renderBanner() + "\n\n" + content
	}
	return a.wrapWithFrame(content)
}

func (a *App) viewBrowse() string {
	var sb strings.Builder
	sb.WriteString(a.menu.View())
	sb.WriteString("\n\n")

	v := a.currentView()
	switch {
	case len(v.Rows()) > 0:
		sb.WriteString(a.table.View())
	case a.loading:
		sb.WriteString(a.spinner.View() + " Loading...")
	default:
		sb.WriteString(styles.Subtitle.Render(fmt.Sprintf("No %s yet. Press n to create one.", a.menu.Selected())))
	}

	if a.busy {
		sb.WriteString("\n" + a.spinner.View() + " Working...")
	}
	return sb.String()
}

func (a *App) renderBanner() string {
	color := styles.Secondary
	switch a.banner.level {
	case widgets.StatusWarning:
		color = styles.Warning
	case widgets.StatusCritical:
		color = styles.Danger
	case widgets.StatusInfo:
		color = styles.Info
	}

	lines := strings.Split(a.banner.text, "\n")
	lines[0] = widgets.StatusIcon(a.banner.level) + " " + bannerHeading(a.banner.level).Render(lines[0])
	body := strings.Join(lines, "\n") + "\n\n" + styles.Help.UnsetMarginTop().Render("Press any key to continue")
	return styles.Banner.BorderForeground(color).Render(body)
}

// bannerHeading styles the first line of a banner by severity
func bannerHeading(level widgets.StatusLevel) lipgloss.Style {
	switch level {
	case widgets.StatusWarning:
		return styles.StatusWarning
	case widgets.StatusCritical:
		return styles.StatusCritical
	case widgets.StatusInfo:
		return lipgloss.NewStyle().Foreground(styles.Info).Bold(true)
	default:
		return styles.StatusOK
	}
}

// loginHeading names the server the console signs in to
func (a *App) loginHeading() string {
	text := icons.Lock.String() + " Signed out"
	if a.cfg.APIURL != "" {
		text += " of " + a.cfg.APIURL
	}
	return styles.Title.Render(text)
}

// frameWidth is the rendered width of header and footer
func (a *App) frameWidth() int {
	width := a.width - 1
	if width < minTerminalWidth {
		width = minTerminalWidth
	}
	return width
}

// renderHeader creates the header bar with app branding and the signed-in user
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)

	leftText := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("Newsdesk"))

	rightText := ""
	if st := a.session.State(); !st.Loading {
		name, placeholder := "", false
		if st.User != nil {
			name, placeholder = st.User.Name, st.User.Synthesized
		}
		if !st.Authenticated {
			name = ""
		}
		rightText = " " + widgets.SessionBadge(name, placeholder) + " "
	}

	fillWidth := width - 4 - lipgloss.Width(leftText) - lipgloss.Width(rightText)
	if fillWidth < 0 {
		fillWidth = 0
	}

	return borderStyle.Render("╭─") + leftText + borderStyle.Render(strings.Repeat("─", fillWidth)) + rightText + borderStyle.Render("─╮")
}

// shortcut is one key hint in the footer
type shortcut struct {
	key   string
	label string
	icon  icons.Icon
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	var shortcuts []shortcut
	switch {
	case a.banner != nil:
		shortcuts = []shortcut{{key: "any", label: "Dismiss"}}
	case a.screen == ScreenLoading:
		shortcuts = []shortcut{{key: "ctrl+c", label: "Quit", icon: icons.Quit}}
	case a.screen == ScreenBrowse:
		shortcuts = []shortcut{
			{key: "tab", label: "Switch"},
			{key: "n", label: "New", icon: icons.New},
			{key: "e", label: "Edit", icon: icons.Edit},
			{key: "d", label: "Delete", icon: icons.Delete},
			{key: "r", label: "Refresh", icon: icons.Refresh},
			{key: "L", label: "Logout"},
			{key: "q", label: "Quit"},
		}
	default:
		shortcuts = []shortcut{{key: "Enter", label: "Confirm"}, {key: "Esc", label: "Cancel", icon: icons.Back}}
	}

	var styled []string
	for _, s := range shortcuts {
		label := s.label
		if s.icon != (icons.Icon{}) {
			label = s.icon.String() + " " + label
		}
		styled = append(styled, styles.KeyStyle.Render(s.key)+" "+labelStyle.Render(label))
	}

	leftText := " " + strings.Join(styled, "  ") + " "

	rightText := ""
	if !a.lastUpdate.IsZero() && a.screen == ScreenBrowse {
		rightText = " " + statusStyle.Render("Updated "+formatTimeSince(a.lastUpdate)) + " "
	}

	fillWidth := width - 4 - lipgloss.Width(leftText) - lipgloss.Width(rightText)
	if fillWidth < 0 {
		fillWidth = 0
	}

	return borderStyle.Render("╰─") + leftText + borderStyle.Render(strings.Repeat("─", fillWidth)) + rightText + borderStyle.Render("─╯")
}

// formatTimeSince formats a duration since the given time in human-readable form
func formatTimeSince(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}

	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}

	return fmt.Sprintf("%dh ago", int(d.Hours()))
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

func (a *App) restore() tea.Cmd {
	return func() tea.Msg {
		return restoredMsg{err: a.session.Restore(a.ctx)}
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Run starts the console and blocks until it exits
func Run(ctx context.Context, sess *session.Session, cfg Config) error {
	app := New(ctx, sess, cfg)
	defer app.Close()

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
