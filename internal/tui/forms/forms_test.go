// ABOUTME: Tests for console forms
// ABOUTME: Validates draft round trips, image modes, and cancel handling

package forms

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/newsdesk/internal/client"
	"github.com/markalston/newsdesk/internal/resources"
)

func TestPostFormKeepsDraftValues(t *testing.T) {
	d := resources.PostDraft{
		Title:      "Hello",
		Content:    "<p>Body</p>",
		CategoryID: 3,
		Image:      resources.ExistingImage("https://example.com/a.png"),
	}

	f := NewPostForm(d, []client.Category{{ID: 3, Name: "World"}}, true)
	got := f.Draft()

	if got.Title != "Hello" || got.Content != "<p>Body</p>" || got.CategoryID != 3 {
		t.Errorf("expected fields to round trip, got %+v", got)
	}
	if got.Image.Mode() != resources.ImageURL {
		t.Errorf("expected URL mode for existing http image, got %s", got.Image.Mode())
	}
	if got.Image.URL() != "https://example.com/a.png" {
		t.Errorf("expected URL prefilled, got %q", got.Image.URL())
	}
}

func TestPostFormSwitchingModeDropsURL(t *testing.T) {
	f := NewPostForm(resources.PostDraft{Image: resources.ExistingImage("https://example.com/a.png")}, nil, true)

	f.image.mode = resources.ImageUpload
	f.image.file = "cover.png"
	got := f.Draft().Image

	if got.Mode() != resources.ImageUpload {
		t.Fatalf("expected upload mode, got %s", got.Mode())
	}
	if got.URL() != "" {
		t.Errorf("expected URL cleared, got %q", got.URL())
	}
	if got.File() != "cover.png" {
		t.Errorf("expected file cover.png, got %q", got.File())
	}
	if got.Existing() != "https://example.com/a.png" {
		t.Errorf("expected existing image kept, got %q", got.Existing())
	}
}

func TestPostFormTitle(t *testing.T) {
	if got := NewPostForm(resources.PostDraft{}, nil, false).Title(); got != "New post" {
		t.Errorf("expected 'New post', got %q", got)
	}
	if got := NewPostForm(resources.PostDraft{}, nil, true).Title(); got != "Edit post" {
		t.Errorf("expected 'Edit post', got %q", got)
	}
}

func TestCategoryFormDraft(t *testing.T) {
	f := NewCategoryForm(resources.CategoryDraft{Name: "Tech"}, false)
	f.name = "Science"

	if got := f.Draft().Name; got != "Science" {
		t.Errorf("expected Science, got %q", got)
	}
}

func TestAdminFormDraft(t *testing.T) {
	f := NewAdminForm(resources.AdminDraft{Name: "Ana", Email: "ana@example.com"}, true)
	f.bio = "Editor"

	got := f.Draft()
	if got.Name != "Ana" || got.Email != "ana@example.com" || got.Bio != "Editor" {
		t.Errorf("unexpected draft %+v", got)
	}
	if got.Password != "" {
		t.Errorf("expected empty password to keep the current one, got %q", got.Password)
	}
}

func TestLoginFormCredentialsTrimEmail(t *testing.T) {
	f := NewLoginForm("  admin@newsdesk.local ")
	f.password = "secret"

	email, pw := f.Credentials()
	if email != "admin@newsdesk.local" || pw != "secret" {
		t.Errorf("unexpected credentials %q %q", email, pw)
	}
}

func TestConfirmFormDefaultsToNo(t *testing.T) {
	if NewConfirmForm("Delete?").Confirmed() {
		t.Error("expected confirmation to default to no")
	}
}

func TestEscCancels(t *testing.T) {
	f := NewCategoryForm(resources.CategoryDraft{}, false)
	f.Init()

	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(CancelledMsg); !ok {
		t.Errorf("expected CancelledMsg, got %T", cmd())
	}
}

func TestFormIgnoresInputOnceDone(t *testing.T) {
	f := NewCategoryForm(resources.CategoryDraft{}, false)
	f.Init()
	f.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if _, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEsc}); cmd != nil {
		t.Error("expected no command after the form finished")
	}
	if _, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("expected enter to be ignored after the form finished")
	}
}

func TestValidateRequired(t *testing.T) {
	check := validateRequired("email")

	if err := check("  "); err == nil {
		t.Error("expected error for blank value")
	}
	if err := check("a@b"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
