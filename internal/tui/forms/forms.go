// ABOUTME: huh forms hosted as bubbletea models for the console
// ABOUTME: Login, confirm, and draft forms that report completion as messages

package forms

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/newsdesk/internal/tui/styles"
)

// SubmittedMsg is sent when the active form completes
type SubmittedMsg struct{}

// CancelledMsg is sent when the active form is dismissed
type CancelledMsg struct{}

// Form hosts a huh form inside the console
type Form struct {
	title string
	form  *huh.Form
	width int
	done  bool
}

func newForm(title string, groups ...*huh.Group) *Form {
	return &Form{
		title: title,
		form:  huh.NewForm(groups...).WithTheme(createTheme()).WithShowHelp(true),
	}
}

// Title returns the heading shown above the fields
func (f *Form) Title() string {
	return f.title
}

// createTheme returns the huh theme matching the console palette
func createTheme() *huh.Theme {
	t := huh.ThemeBase()

	gray := lipgloss.Color("#9CA3AF")
	grayLight := lipgloss.Color("#E5E7EB")
	red := lipgloss.Color("#F87171")

	t.Group.Title = lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		MarginBottom(1)
	t.Group.Description = lipgloss.NewStyle().
		Foreground(gray).
		MarginBottom(1)

	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(styles.Primary)
	t.Focused.Title = lipgloss.NewStyle().
		Foreground(styles.Accent).
		Bold(true)
	t.Focused.Description = lipgloss.NewStyle().
		Foreground(gray)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().
		Foreground(red).
		SetString(" *")
	t.Focused.ErrorMessage = lipgloss.NewStyle().
		Foreground(red)

	t.Focused.SelectSelector = lipgloss.NewStyle().
		Foreground(styles.Primary).
		SetString("> ")
	t.Focused.Option = lipgloss.NewStyle().
		Foreground(grayLight)
	t.Focused.SelectedOption = lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true)

	t.Focused.TextInput.Cursor = lipgloss.NewStyle().
		Foreground(styles.Primary)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().
		Foreground(gray)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().
		Foreground(styles.Primary)
	t.Focused.TextInput.Text = lipgloss.NewStyle().
		Foreground(grayLight)

	t.Focused.FocusedButton = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(styles.Primary).
		Padding(0, 2).
		MarginRight(1)
	t.Focused.BlurredButton = lipgloss.NewStyle().
		Foreground(gray).
		Background(styles.Surface).
		Padding(0, 2).
		MarginRight(1)

	t.Blurred = t.Focused
	t.Blurred.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true)
	t.Blurred.Title = lipgloss.NewStyle().
		Foreground(gray)
	t.Blurred.SelectSelector = lipgloss.NewStyle().
		Foreground(gray).
		SetString("  ")
	t.Blurred.Option = lipgloss.NewStyle().
		Foreground(gray)

	return t
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if f.done {
		return f, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.width = msg.Width
	case tea.KeyMsg:
		if msg.String() == "esc" {
			f.done = true
			return f, func() tea.Msg { return CancelledMsg{} }
		}
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	// report completion once; the console rebuilds forms it reopens
	switch f.form.State {
	case huh.StateCompleted:
		f.done = true
		return f, func() tea.Msg { return SubmittedMsg{} }
	case huh.StateAborted:
		f.done = true
		return f, func() tea.Msg { return CancelledMsg{} }
	}
	return f, cmd
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder
	sb.WriteString(f.renderHeading())
	sb.WriteString("\n\n")
	sb.WriteString(f.form.View())
	return sb.String()
}

// renderHeading renders the boxed form title
func (f *Form) renderHeading() string {
	width := f.width - 1
	if width < 60 {
		width = 60
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)

	titleWidth := lipgloss.Width(f.title)
	topFill := max(0, width-5-titleWidth)
	top := "┌─ " + titleStyle.Render(f.title) + " " + strings.Repeat("─", topFill) + "┐"

	hint := "Enter to continue, Esc to cancel"
	hintPad := max(0, width-4-lipgloss.Width(hint))
	middle := "│ " + hint + strings.Repeat(" ", hintPad) + " │"

	bottom := "└" + strings.Repeat("─", width-2) + "┘"
	return borderStyle.Render(strings.Join([]string{top, middle, bottom}, "\n"))
}

// LoginForm asks for admin credentials
type LoginForm struct {
	*Form
	email    string
	password string
}

// NewLoginForm builds the login form, prefilled with email
func NewLoginForm(email string) *LoginForm {
	l := &LoginForm{email: email}
	l.Form = newForm("Sign in",
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("admin@example.com").
				Value(&l.email).
				Validate(validateRequired("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&l.password),
		).Title("Administrator login").
			Description("Use the credentials of an administrator account"),
	)
	return l
}

// Credentials returns the entered email and password
func (l *LoginForm) Credentials() (string, string) {
	return strings.TrimSpace(l.email), l.password
}

// ConfirmForm asks a yes/no question before a destructive action
type ConfirmForm struct {
	*Form
	ok bool
}

// NewConfirmForm builds a confirmation defaulting to "no"
func NewConfirmForm(prompt string) *ConfirmForm {
	c := &ConfirmForm{}
	c.Form = newForm("Confirm",
		huh.NewGroup(
			huh.NewConfirm().
				Title(prompt).
				Affirmative("Delete").
				Negative("Cancel").
				Value(&c.ok),
		),
	)
	return c
}

// Confirmed reports the answer
func (c *ConfirmForm) Confirmed() bool {
	return c.ok
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
