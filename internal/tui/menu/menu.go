// ABOUTME: Resource tab bar for the console
// ABOUTME: Switches between posts, categories, and admins

package menu

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/newsdesk/internal/tui/icons"
	"github.com/markalston/newsdesk/internal/tui/styles"
)

// Tab identifies a resource screen
type Tab int

const (
	TabPosts Tab = iota
	TabCategories
	TabAdmins
)

type option struct {
	label string
	icon  icons.Icon
	value Tab
}

// Menu is the tab bar shown above resource tables
type Menu struct {
	options  []option
	selected int
}

// New creates the tab bar with posts selected
func New() *Menu {
	return &Menu{
		options: []option{
			{label: "Posts", icon: icons.Post, value: TabPosts},
			{label: "Categories", icon: icons.Category, value: TabCategories},
			{label: "Admins", icon: icons.Admin, value: TabAdmins},
		},
	}
}

// Selected returns the active tab
func (m *Menu) Selected() Tab {
	return m.options[m.selected].value
}

// Select activates tab t
func (m *Menu) Select(t Tab) {
	for i, opt := range m.options {
		if opt.value == t {
			m.selected = i
			return
		}
	}
}

// Next moves to the following tab, wrapping around
func (m *Menu) Next() Tab {
	m.selected = (m.selected + 1) % len(m.options)
	return m.Selected()
}

// Prev moves to the previous tab, wrapping around
func (m *Menu) Prev() Tab {
	m.selected = (m.selected - 1 + len(m.options)) % len(m.options)
	return m.Selected()
}

// View renders the tab bar
func (m *Menu) View() string {
	var tabs []string
	for i, opt := range m.options {
		label := opt.icon.String() + " " + opt.label
		if i == m.selected {
			tabs = append(tabs, styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, styles.InactiveTab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(tabs, " "))
}

// String returns the string representation of a Tab
func (t Tab) String() string {
	switch t {
	case TabPosts:
		return "posts"
	case TabCategories:
		return "categories"
	case TabAdmins:
		return "admins"
	default:
		return "unknown"
	}
}
