// ABOUTME: Post resource adapter for the CRUD controller
// ABOUTME: Title required; optional cover image by upload or URL

package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/markalston/newsdesk/internal/client"
	"github.com/markalston/newsdesk/internal/crud"
)

// PostDraft is the editable form state of a post
type PostDraft struct {
	Title      string
	Content    string
	CategoryID int
	Image      ImageSource
}

// Posts adapts the post endpoints. Size limits list results; zero lets the
// server decide.
type Posts struct {
	Size int
}

var _ crud.Resource[client.Post, PostDraft] = Posts{}

// NewPostsController builds a controller for posts
func NewPostsController(api crud.APIProvider, size int, opts ...crud.ControllerOption) *crud.Controller[client.Post, PostDraft] {
	return crud.NewController[client.Post, PostDraft](Posts{Size: size}, api, opts...)
}

func (Posts) Name() string             { return "post" }
func (Posts) Plural() string           { return "posts" }
func (Posts) ItemID(p client.Post) int { return p.ID }
func (Posts) NewDraft() PostDraft      { return PostDraft{} }
func (Posts) CanDelete() bool          { return true }

func (Posts) DraftFrom(p client.Post) PostDraft {
	return PostDraft{
		Title:      p.Title,
		Content:    p.Content,
		CategoryID: p.CategoryID,
		Image:      ExistingImage(p.ImageURL),
	}
}

func (Posts) Validate(d PostDraft, _ bool) error {
	if strings.TrimSpace(d.Title) == "" {
		return crud.Required("title")
	}
	return d.Image.validate()
}

func (p Posts) List(ctx context.Context, api *client.Client) ([]client.Post, error) {
	return api.ListPosts(ctx, client.ListOptions{Size: p.Size})
}

func (Posts) Create(ctx context.Context, api *client.Client, d PostDraft) error {
	in, upload, closer, err := postInput(d)
	if err != nil {
		return err
	}
	defer closer()
	return api.CreatePost(ctx, in, upload)
}

func (Posts) Update(ctx context.Context, api *client.Client, id int, d PostDraft) error {
	in, upload, closer, err := postInput(d)
	if err != nil {
		return err
	}
	defer closer()
	return api.UpdatePost(ctx, id, in, upload)
}

func (Posts) Delete(ctx context.Context, api *client.Client, id int) error {
	return api.DeletePost(ctx, id)
}

func (Posts) DeletePrompt(p client.Post) string {
	return fmt.Sprintf("Delete post %q? This cannot be undone.", p.Title)
}

func postInput(d PostDraft) (client.PostInput, *client.Upload, func(), error) {
	imageURL, upload, closer, err := d.Image.resolve()
	if err != nil {
		return client.PostInput{}, nil, closer, err
	}

	in := client.PostInput{
		Title:    strings.TrimSpace(d.Title),
		Content:  d.Content,
		ImageURL: imageURL,
	}
	if d.CategoryID > 0 {
		in.Category = &client.CategoryRef{ID: d.CategoryID}
	}
	return in, upload, closer, nil
}
