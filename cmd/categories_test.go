// ABOUTME: Tests for the categories and admins commands
// ABOUTME: Verifies CRUD flows, not-found handling, and the disabled admin delete

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/markalston/newsdesk/internal/client"
)

func TestCategoriesList(t *testing.T) {
	newBackend(t)
	loginDemo(t)

	var buf bytes.Buffer
	if code := runCategoriesList(context.Background(), &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	for _, want := range []string{"Technology", "World", "Slug"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, buf.String())
		}
	}
}

func TestCategoriesCreate(t *testing.T) {
	srv := newBackend(t)
	loginDemo(t)

	var buf bytes.Buffer
	if code := runCategoriesCreate(context.Background(), &buf, "Local News"); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Category created") {
		t.Errorf("expected success message, got %q", buf.String())
	}

	c, ok := srv.Category(6)
	if !ok || c.Name != "Local News" {
		t.Fatalf("expected category 6 Local News, got %+v (found=%v)", c, ok)
	}

	jsonOutput = true
	buf.Reset()
	runCategoriesList(context.Background(), &buf)
	var items []client.Category
	if err := json.Unmarshal(buf.Bytes(), &items); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(items) != 3 {
		t.Errorf("expected 3 categories, got %d", len(items))
	}
}

func TestCategoriesCreate_BlankName(t *testing.T) {
	srv := newBackend(t)
	loginDemo(t)
	srv.ResetCalls()

	var buf bytes.Buffer
	if code := runCategoriesCreate(context.Background(), &buf, "  "); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if len(srv.CallsTo(http.MethodPost, "/categories")) != 0 {
		t.Error("expected no request for a blank name")
	}
}

func TestCategoriesUpdate(t *testing.T) {
	srv := newBackend(t)
	loginDemo(t)

	var buf bytes.Buffer
	if code := runCategoriesUpdate(context.Background(), &buf, 2, "Tech"); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	c, _ := srv.Category(2)
	if c.Name != "Tech" {
		t.Errorf("expected renamed category, got %q", c.Name)
	}
	if calls := srv.CallsTo(http.MethodPut, "/categories/2"); len(calls) != 1 {
		t.Errorf("expected one update request, got %d", len(calls))
	}
}

func TestCategoriesUpdate_NotFound(t *testing.T) {
	newBackend(t)
	loginDemo(t)

	var buf bytes.Buffer
	if code := runCategoriesUpdate(context.Background(), &buf, 99, "Ghost"); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(buf.String(), "category 99 not found") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestCategoriesDelete(t *testing.T) {
	srv := newBackend(t)
	loginDemo(t)
	assumeYes = true

	var buf bytes.Buffer
	if code := runCategoriesDelete(context.Background(), &buf, 2); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if _, ok := srv.Category(2); ok {
		t.Error("expected category 2 to be deleted")
	}
	if p, _ := srv.Post(5); p.CategoryName != "" {
		t.Errorf("expected post 5 to become uncategorized, got %q", p.CategoryName)
	}
}

func TestCategoriesList_RequiresLogin(t *testing.T) {
	newBackend(t)

	var buf bytes.Buffer
	if code := runCategoriesList(context.Background(), &buf); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}

func TestAdminsList(t *testing.T) {
	newBackend(t)
	loginDemo(t)

	var buf bytes.Buffer
	if code := runAdminsList(context.Background(), &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "admin@newsdesk.local") {
		t.Errorf("expected admin email, got:\n%s", buf.String())
	}
}

func TestAdminsCreate(t *testing.T) {
	srv := newBackend(t)
	loginDemo(t)

	var buf bytes.Buffer
	exitCode := runAdminsCreate(context.Background(), &buf, adminFields{
		Name:       strPtr("Rita Reporter"),
		Email:      strPtr("rita@newsdesk.local"),
		Password:   "hunter2",
		PictureURL: "https://example.com/rita.png",
	})
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}

	a, ok := srv.Admin(6)
	if !ok {
		t.Fatal("expected admin 6 to exist")
	}
	if a.Email != "rita@newsdesk.local" || a.ProfilePicture != "https://example.com/rita.png" {
		t.Errorf("unexpected admin %+v", a)
	}
	if !srv.CheckPassword(6, "hunter2") {
		t.Error("expected the new password to log in")
	}
}

func TestAdminsCreate_PasswordRequired(t *testing.T) {
	srv := newBackend(t)
	loginDemo(t)
	srv.ResetCalls()

	var buf bytes.Buffer
	exitCode := runAdminsCreate(context.Background(), &buf, adminFields{
		Name:       strPtr("Rita Reporter"),
		Email:      strPtr("rita@newsdesk.local"),
		PictureURL: "https://example.com/rita.png",
	})
	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if len(srv.CallsTo(http.MethodPost, "/admins")) != 0 {
		t.Error("expected no request without a password")
	}
}

func TestAdminsUpdate_KeepsPassword(t *testing.T) {
	srv := newBackend(t)
	loginDemo(t)

	var buf bytes.Buffer
	if code := runAdminsUpdate(context.Background(), &buf, 1, adminFields{Bio: strPtr("Editor in chief")}); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}

	a, _ := srv.Admin(1)
	if a.Bio != "Editor in chief" {
		t.Errorf("expected new bio, got %q", a.Bio)
	}
	if !srv.CheckPassword(1, "admin") {
		t.Error("expected password to be kept")
	}
}

func TestAdminsDelete_Disabled(t *testing.T) {
	srv := newBackend(t)
	loginDemo(t)
	assumeYes = true
	srv.ResetCalls()

	var buf bytes.Buffer
	if code := runAdminsDelete(context.Background(), &buf, 1); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "disabled") {
		t.Errorf("expected disabled message, got %q", buf.String())
	}
	if len(srv.CallsTo(http.MethodDelete, "/admins/1")) != 0 {
		t.Error("expected no delete request")
	}
}

func TestReadNewPassword(t *testing.T) {
	pw, err := readNewPassword(strings.NewReader("s3cret\r\n"), true)
	if err != nil || pw != "s3cret" {
		t.Errorf("got %q, %v", pw, err)
	}

	orig := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	defer func() { stdinIsTerminal = orig }()

	pw, err = readNewPassword(strings.NewReader(""), false)
	if err != nil || pw != "" {
		t.Errorf("expected empty password without a terminal, got %q, %v", pw, err)
	}
}
