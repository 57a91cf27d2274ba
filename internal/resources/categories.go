// ABOUTME: Category resource adapter for the CRUD controller
// ABOUTME: Name required; deleting warns that posts become uncategorized

package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/markalston/newsdesk/internal/client"
	"github.com/markalston/newsdesk/internal/crud"
)

// CategoryDraft is the editable form state of a category
type CategoryDraft struct {
	Name string
}

// Categories adapts the category endpoints
type Categories struct{}

var _ crud.Resource[client.Category, CategoryDraft] = Categories{}

// NewCategoriesController builds a controller for categories
func NewCategoriesController(api crud.APIProvider, opts ...crud.ControllerOption) *crud.Controller[client.Category, CategoryDraft] {
	return crud.NewController[client.Category, CategoryDraft](Categories{}, api, opts...)
}

func (Categories) Name() string                 { return "category" }
func (Categories) Plural() string               { return "categories" }
func (Categories) ItemID(c client.Category) int { return c.ID }
func (Categories) NewDraft() CategoryDraft      { return CategoryDraft{} }
func (Categories) CanDelete() bool              { return true }

func (Categories) DraftFrom(c client.Category) CategoryDraft {
	return CategoryDraft{Name: c.Name}
}

func (Categories) Validate(d CategoryDraft, _ bool) error {
	if strings.TrimSpace(d.Name) == "" {
		return crud.Required("name")
	}
	return nil
}

func (Categories) List(ctx context.Context, api *client.Client) ([]client.Category, error) {
	return api.ListCategories(ctx)
}

func (Categories) Create(ctx context.Context, api *client.Client, d CategoryDraft) error {
	return api.CreateCategory(ctx, client.CategoryInput{Name: strings.TrimSpace(d.Name)})
}

func (Categories) Update(ctx context.Context, api *client.Client, id int, d CategoryDraft) error {
	return api.UpdateCategory(ctx, id, client.CategoryInput{Name: strings.TrimSpace(d.Name)})
}

func (Categories) Delete(ctx context.Context, api *client.Client, id int) error {
	return api.DeleteCategory(ctx, id)
}

func (Categories) DeletePrompt(c client.Category) string {
	return fmt.Sprintf("Delete category %q? Its posts will become uncategorized.", c.Name)
}
