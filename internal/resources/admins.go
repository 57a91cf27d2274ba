// ABOUTME: Admin resource adapter for the CRUD controller
// ABOUTME: Password and profile picture required on create; delete disabled

package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/markalston/newsdesk/internal/client"
	"github.com/markalston/newsdesk/internal/crud"
)

// AdminDraft is the editable form state of an admin. An empty Password on
// update keeps the current one.
type AdminDraft struct {
	Name     string
	Email    string
	Password string
	Bio      string
	Picture  ImageSource
}

// Admins adapts the admin endpoints. Deleting admins is turned off so the
// last account cannot be removed from the console.
type Admins struct{}

var _ crud.Resource[client.Admin, AdminDraft] = Admins{}

// NewAdminsController builds a controller for admins
func NewAdminsController(api crud.APIProvider, opts ...crud.ControllerOption) *crud.Controller[client.Admin, AdminDraft] {
	return crud.NewController[client.Admin, AdminDraft](Admins{}, api, opts...)
}

func (Admins) Name() string              { return "admin" }
func (Admins) Plural() string            { return "admins" }
func (Admins) ItemID(a client.Admin) int { return a.ID }
func (Admins) NewDraft() AdminDraft      { return AdminDraft{} }
func (Admins) CanDelete() bool           { return false }

func (Admins) DraftFrom(a client.Admin) AdminDraft {
	return AdminDraft{Name: a.Name, Email: a.Email, Bio: a.Bio, Picture: ExistingImage(a.ProfilePicture)}
}

func (Admins) Validate(d AdminDraft, editing bool) error {
	if strings.TrimSpace(d.Name) == "" {
		return crud.Required("name")
	}
	email := strings.TrimSpace(d.Email)
	if email == "" {
		return crud.Required("email")
	}
	if !strings.Contains(email, "@") {
		return &crud.ValidationError{Field: "email", Message: "is not a valid address"}
	}
	if !editing {
		if d.Password == "" {
			return crud.Required("password")
		}
		if !d.Picture.HasImage() {
			return crud.Required("profile picture")
		}
	}
	return d.Picture.validate()
}

func (Admins) List(ctx context.Context, api *client.Client) ([]client.Admin, error) {
	return api.ListAdmins(ctx)
}

func (Admins) Create(ctx context.Context, api *client.Client, d AdminDraft) error {
	in, upload, closer, err := adminInput(d)
	if err != nil {
		return err
	}
	defer closer()
	return api.CreateAdmin(ctx, in, upload)
}

func (Admins) Update(ctx context.Context, api *client.Client, id int, d AdminDraft) error {
	in, upload, closer, err := adminInput(d)
	if err != nil {
		return err
	}
	defer closer()
	return api.UpdateAdmin(ctx, id, in, upload)
}

func (Admins) Delete(context.Context, *client.Client, int) error {
	return crud.ErrDeleteDisabled
}

func (Admins) DeletePrompt(a client.Admin) string {
	return fmt.Sprintf("Delete admin %q?", a.Name)
}

func adminInput(d AdminDraft) (client.AdminInput, *client.Upload, func(), error) {
	imageURL, upload, closer, err := d.Picture.resolve()
	if err != nil {
		return client.AdminInput{}, nil, closer, err
	}
	return client.AdminInput{
		Name:           strings.TrimSpace(d.Name),
		Email:          strings.TrimSpace(d.Email),
		Password:       d.Password,
		Bio:            d.Bio,
		ProfilePicture: imageURL,
	}, upload, closer, nil
}
