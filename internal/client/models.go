// ABOUTME: Wire types exchanged with the newsdesk REST API
// ABOUTME: Mirrors the JSON shapes of posts, categories, admins and login

package client

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the answer of POST /auth/login.
// Only Token is guaranteed; identity fields may be missing.
type LoginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name,omitempty"`
	ID    int    `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
}

// Category groups posts
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// CategoryInput is the body of category create and update requests
type CategoryInput struct {
	Name string `json:"name"`
}

// Admin is an administrative user, also the author of posts
type Admin struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Bio            string `json:"bio,omitempty"`
}

// AdminInput is the JSON part of admin create and update requests.
// Password is omitted when empty so updates keep the current one.
type AdminInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password,omitempty"`
	Bio            string `json:"bio,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Post is a published article
type Post struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	ImageURL        string `json:"imageUrl,omitempty"`
	CategoryName    string `json:"categoryName,omitempty"`
	CategorySlug    string `json:"categorySlug,omitempty"`
	CategoryID      int    `json:"categoryId,omitempty"`
	Author          *Admin `json:"author,omitempty"`
	DataPublication string `json:"dataPublication,omitempty"`
}

// CategoryRef references a category by id inside a post payload
type CategoryRef struct {
	ID int `json:"id"`
}

// PostInput is the JSON part of post create and update requests.
// A nil Category sends an explicit null, detaching the post.
type PostInput struct {
	Title    string       `json:"title"`
	Content  string       `json:"content"`
	Category *CategoryRef `json:"category"`
	ImageURL string       `json:"imageUrl,omitempty"`
}
