// ABOUTME: Draft forms for posts, categories, and admins
// ABOUTME: Bound values are copied back into resource drafts on submit

package forms

import (
	"github.com/charmbracelet/huh"

	"github.com/markalston/newsdesk/internal/client"
	"github.com/markalston/newsdesk/internal/resources"
)

var imageModeOptions = []huh.Option[resources.ImageMode]{
	huh.NewOption("Upload a file", resources.ImageUpload),
	huh.NewOption("Link a URL", resources.ImageURL),
}

func formTitle(noun string, editing bool) string {
	if editing {
		return "Edit " + noun
	}
	return "New " + noun
}

// imageFields binds an ImageSource to huh fields
type imageFields struct {
	source resources.ImageSource
	mode   resources.ImageMode
	file   string
	url    string
}

func newImageFields(src resources.ImageSource) *imageFields {
	return &imageFields{source: src, mode: src.Mode(), file: src.File(), url: src.URL()}
}

// groups returns the mode selector plus one group per mode
func (f *imageFields) groups(title, current string) []*huh.Group {
	desc := "No image yet"
	if current != "" {
		desc = "Current: " + current + " (leave empty to keep)"
	}
	return []*huh.Group{
		huh.NewGroup(
			huh.NewSelect[resources.ImageMode]().
				Title(title).
				Description(desc).
				Options(imageModeOptions...).
				Value(&f.mode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Image file").
				Placeholder("path/to/image.png").
				Value(&f.file),
		).WithHideFunc(func() bool { return f.mode != resources.ImageUpload }),
		huh.NewGroup(
			huh.NewInput().
				Title("Image URL").
				Placeholder("https://").
				Value(&f.url),
		).WithHideFunc(func() bool { return f.mode != resources.ImageURL }),
	}
}

// value returns the image source for the selected mode
func (f *imageFields) value() resources.ImageSource {
	img := f.source
	img.SetMode(f.mode)
	if f.mode == resources.ImageURL {
		img.SetURL(f.url)
	} else {
		img.SelectFile(f.file)
	}
	return img
}

// PostForm edits a post draft
type PostForm struct {
	*Form
	title    string
	content  string
	category int
	image    *imageFields
}

// NewPostForm builds the post form. Category 0 means uncategorized.
func NewPostForm(d resources.PostDraft, categories []client.Category, editing bool) *PostForm {
	p := &PostForm{
		title:    d.Title,
		content:  d.Content,
		category: d.CategoryID,
		image:    newImageFields(d.Image),
	}

	options := []huh.Option[int]{huh.NewOption("None", 0)}
	for _, c := range categories {
		options = append(options, huh.NewOption(c.Name, c.ID))
	}

	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&p.title),
			huh.NewText().
				Title("Content").
				Description("HTML is allowed").
				Lines(8).
				Value(&p.content),
			huh.NewSelect[int]().
				Title("Category").
				Options(options...).
				Value(&p.category),
		).Title(formTitle("post", editing)),
	}
	groups = append(groups, p.image.groups("Cover image", d.Image.Existing())...)

	p.Form = newForm(formTitle("post", editing), groups...)
	return p
}

// Draft returns the edited draft
func (p *PostForm) Draft() resources.PostDraft {
	return resources.PostDraft{
		Title:      p.title,
		Content:    p.content,
		CategoryID: p.category,
		Image:      p.image.value(),
	}
}

// CategoryForm edits a category draft
type CategoryForm struct {
	*Form
	name string
}

// NewCategoryForm builds the category form
func NewCategoryForm(d resources.CategoryDraft, editing bool) *CategoryForm {
	c := &CategoryForm{name: d.Name}
	c.Form = newForm(formTitle("category", editing),
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&c.name),
		).Title(formTitle("category", editing)),
	)
	return c
}

// Draft returns the edited draft
func (c *CategoryForm) Draft() resources.CategoryDraft {
	return resources.CategoryDraft{Name: c.name}
}

// AdminForm edits an admin draft
type AdminForm struct {
	*Form
	name     string
	email    string
	password string
	bio      string
	picture  *imageFields
}

// NewAdminForm builds the admin form. On edit an empty password keeps the
// current one.
func NewAdminForm(d resources.AdminDraft, editing bool) *AdminForm {
	a := &AdminForm{
		name:     d.Name,
		email:    d.Email,
		password: d.Password,
		bio:      d.Bio,
		picture:  newImageFields(d.Picture),
	}

	passwordDesc := "Required for new accounts"
	if editing {
		passwordDesc = "Leave empty to keep the current password"
	}

	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&a.name),
			huh.NewInput().
				Title("Email").
				Value(&a.email),
			huh.NewInput().
				Title("Password").
				Description(passwordDesc).
				EchoMode(huh.EchoModePassword).
				Value(&a.password),
			huh.NewText().
				Title("Bio").
				Lines(3).
				Value(&a.bio),
		).Title(formTitle("admin", editing)),
	}
	groups = append(groups, a.picture.groups("Profile picture", d.Picture.Existing())...)

	a.Form = newForm(formTitle("admin", editing), groups...)
	return a
}

// Draft returns the edited draft
func (a *AdminForm) Draft() resources.AdminDraft {
	return resources.AdminDraft{
		Name:     a.name,
		Email:    a.email,
		Password: a.password,
		Bio:      a.bio,
		Picture:  a.picture.value(),
	}
}

