// ABOUTME: Tests for resource validation rules and image source handling
// ABOUTME: Checks multipart parts sent for uploads versus external URLs

package resources

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markalston/newsdesk/internal/apitest"
	"github.com/markalston/newsdesk/internal/client"
	"github.com/markalston/newsdesk/internal/crud"
)

type staticAPI struct{ c *client.Client }

func (s staticAPI) Client() *client.Client { return s.c }

func writeImage(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(p, []byte("PNGDATA"), 0600))
	return p
}

func TestImageSource_SwitchingModesClearsOtherValue(t *testing.T) {
	var img ImageSource

	img.SelectFile("/tmp/a.png")
	assert.Equal(t, ImageUpload, img.Mode())
	assert.Equal(t, "/tmp/a.png", img.File())

	img.SetURL("https://example.com/a.png")
	assert.Equal(t, ImageURL, img.Mode())
	assert.Empty(t, img.File())

	img.SelectFile("/tmp/b.png")
	assert.Empty(t, img.URL())

	img.SetMode(ImageURL)
	assert.Empty(t, img.File())
	assert.Empty(t, img.URL())
	assert.False(t, img.Pending())
}

func TestExistingImage(t *testing.T) {
	remote := ExistingImage("https://cdn.example.com/x.jpg")
	assert.Equal(t, ImageURL, remote.Mode())
	assert.Equal(t, "https://cdn.example.com/x.jpg", remote.URL())
	assert.True(t, remote.HasImage())

	uploaded := ExistingImage("/uploads/x.jpg")
	assert.Equal(t, ImageUpload, uploaded.Mode())
	assert.False(t, uploaded.Pending())
	assert.True(t, uploaded.HasImage())

	assert.False(t, ExistingImage("").HasImage())
}

func TestPosts_Validate(t *testing.T) {
	assert.Error(t, Posts{}.Validate(PostDraft{Title: " "}, false))
	assert.NoError(t, Posts{}.Validate(PostDraft{Title: "Hello"}, false))

	d := PostDraft{Title: "Hello"}
	d.Image.SelectFile(filepath.Join(t.TempDir(), "missing.png"))
	var ve *crud.ValidationError
	require.ErrorAs(t, Posts{}.Validate(d, false), &ve)
	assert.Equal(t, "image", ve.Field)
}

func TestPosts_CreateWithUploadSendsFileOnly(t *testing.T) {
	srv, ts := apitest.NewTestServer(t)
	api := client.New(ts.URL)

	d := PostDraft{Title: "With cover", CategoryID: 3}
	d.Image.SetURL("https://example.com/ignored.png")
	d.Image.SelectFile(writeImage(t))

	require.NoError(t, Posts{}.Create(context.Background(), api, d))

	calls := srv.CallsTo(http.MethodPost, "/posts")
	require.Len(t, calls, 1)
	assert.Equal(t, "cover.png", calls[0].FileName)
	assert.NotContains(t, string(calls[0].JSONPart), "imageUrl")
	assert.Contains(t, string(calls[0].JSONPart), `"category":{"id":3}`)
}

func TestPosts_CreateWithURLSendsNoFile(t *testing.T) {
	srv, ts := apitest.NewTestServer(t)
	api := client.New(ts.URL)

	d := PostDraft{Title: "Linked"}
	d.Image.SelectFile(writeImage(t))
	d.Image.SetURL("https://example.com/cover.png")

	require.NoError(t, Posts{}.Create(context.Background(), api, d))

	calls := srv.CallsTo(http.MethodPost, "/posts")
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].FileName)
	assert.Contains(t, string(calls[0].JSONPart), `"imageUrl":"https://example.com/cover.png"`)
	assert.Contains(t, string(calls[0].JSONPart), `"category":null`)
}

func TestAdmins_Validate(t *testing.T) {
	a := Admins{}
	withPicture := AdminDraft{Name: "Ana", Email: "ana@x.com", Password: "pw"}
	withPicture.Picture.SelectFile(writeImage(t))

	tests := []struct {
		name    string
		draft   AdminDraft
		editing bool
		field   string
	}{
		{"missing name", AdminDraft{Email: "a@x.com"}, false, "name"},
		{"missing email", AdminDraft{Name: "A"}, false, "email"},
		{"bad email", AdminDraft{Name: "A", Email: "nope"}, false, "email"},
		{"create without password", AdminDraft{Name: "A", Email: "a@x.com"}, false, "password"},
		{"create without picture", AdminDraft{Name: "A", Email: "a@x.com", Password: "pw"}, false, "profile picture"},
		{"create complete", withPicture, false, ""},
		{"update without password or new picture", AdminDraft{Name: "A", Email: "a@x.com"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Validate(tt.draft, tt.editing)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *crud.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestAdmins_CreateWithExistingPictureIsAllowed(t *testing.T) {
	d := Admins{}.DraftFrom(client.Admin{Name: "A", Email: "a@x.com", ProfilePicture: "/uploads/a.png"})
	d.Password = "pw"
	assert.NoError(t, Admins{}.Validate(d, false))
}

func TestAdmins_DraftFromURLPictureStartsInURLMode(t *testing.T) {
	d := Admins{}.DraftFrom(client.Admin{Name: "A", Email: "a@x.com", ProfilePicture: "https://cdn.example.com/a.png"})
	assert.Equal(t, ImageURL, d.Picture.Mode())
	assert.Equal(t, "https://cdn.example.com/a.png", d.Picture.URL())
	assert.Equal(t, "https://cdn.example.com/a.png", d.Picture.Existing())
}

func TestAdmins_UpdateOmitsEmptyPassword(t *testing.T) {
	srv, ts := apitest.NewTestServer(t, apitest.WithRequireAuth())
	admin := srv.AddAdmin(client.Admin{Name: "Ana", Email: "ana@x.com"}, "secret")
	ctrl := NewAdminsController(staticAPI{c: client.New(ts.URL).WithToken(srv.Token())})
	ctx := context.Background()

	require.NoError(t, ctrl.List(ctx))
	item, ok := ctrl.Find(admin.ID)
	require.True(t, ok)
	ctrl.BeginEdit(item)

	d := ctrl.Draft()
	d.Bio = "Editor"
	require.NoError(t, ctrl.Submit(ctx, d))

	updated, ok := srv.Admin(admin.ID)
	require.True(t, ok)
	assert.Equal(t, "Editor", updated.Bio)
	assert.True(t, srv.CheckPassword(admin.ID, "secret"))
}

func TestCategories_DeletePrompt(t *testing.T) {
	prompt := Categories{}.DeletePrompt(client.Category{Name: "World"})
	assert.Contains(t, prompt, "World")
	assert.Contains(t, prompt, "uncategorized")
	assert.True(t, Categories{}.CanDelete())
	assert.False(t, Admins{}.CanDelete())
}
