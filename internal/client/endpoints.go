// ABOUTME: Endpoint wrappers for auth, posts, categories and admins
// ABOUTME: One method per REST call consumed by the CLI

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ErrNoToken is returned when a login succeeds without a token in the answer
var ErrNoToken = errors.New("login response carried no token")

// Login calls POST /auth/login
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrNoToken
	}
	return &resp, nil
}

// ListOptions controls the posts listing
type ListOptions struct {
	// Size limits the page size; zero lets the backend decide.
	Size int
}

// ListPosts calls GET /posts sorted newest first
func (c *Client) ListPosts(ctx context.Context, opts ListOptions) ([]Post, error) {
	path := "/posts?sort=id,desc"
	if opts.Size > 0 {
		path += "&size=" + strconv.Itoa(opts.Size)
	}
	return getList[Post](ctx, c, path)
}

// SearchPosts calls GET /posts/search?title=<query>
func (c *Client) SearchPosts(ctx context.Context, title string) ([]Post, error) {
	q := url.Values{}
	q.Set("title", title)
	return getList[Post](ctx, c, "/posts/search?"+q.Encode())
}

// GetPost calls GET /posts/:id
func (c *Client) GetPost(ctx context.Context, id int) (*Post, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, fmt.Sprintf("/posts/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var post Post
	if err := c.doJSON(ctx, req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost calls POST /posts (multipart)
func (c *Client) CreatePost(ctx context.Context, in PostInput, upload *Upload) error {
	return c.sendMultipart(ctx, http.MethodPost, "/posts", "post", in, upload, nil)
}

// UpdatePost calls PUT /posts/:id (multipart)
func (c *Client) UpdatePost(ctx context.Context, id int, in PostInput, upload *Upload) error {
	return c.sendMultipart(ctx, http.MethodPut, fmt.Sprintf("/posts/%d", id), "post", in, upload, nil)
}

// DeletePost calls DELETE /posts/:id
func (c *Client) DeletePost(ctx context.Context, id int) error {
	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d", id), nil, nil)
}

// ListCategories calls GET /categories
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	return getList[Category](ctx, c, "/categories")
}

// CreateCategory calls POST /categories
func (c *Client) CreateCategory(ctx context.Context, in CategoryInput) error {
	return c.sendJSON(ctx, http.MethodPost, "/categories", in, nil)
}

// UpdateCategory calls PUT /categories/:id
func (c *Client) UpdateCategory(ctx context.Context, id int, in CategoryInput) error {
	return c.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/categories/%d", id), in, nil)
}

// DeleteCategory calls DELETE /categories/:id
func (c *Client) DeleteCategory(ctx context.Context, id int) error {
	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/categories/%d", id), nil, nil)
}

// ListAdmins calls GET /admins
func (c *Client) ListAdmins(ctx context.Context) ([]Admin, error) {
	return getList[Admin](ctx, c, "/admins")
}

// CreateAdmin calls POST /admins (multipart)
func (c *Client) CreateAdmin(ctx context.Context, in AdminInput, upload *Upload) error {
	return c.sendMultipart(ctx, http.MethodPost, "/admins", "admin", in, upload, nil)
}

// UpdateAdmin calls PUT /admins/:id (multipart)
func (c *Client) UpdateAdmin(ctx context.Context, id int, in AdminInput, upload *Upload) error {
	return c.sendMultipart(ctx, http.MethodPut, fmt.Sprintf("/admins/%d", id), "admin", in, upload, nil)
}

// DeleteAdmin calls DELETE /admins/:id
func (c *Client) DeleteAdmin(ctx context.Context, id int) error {
	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/admins/%d", id), nil, nil)
}
