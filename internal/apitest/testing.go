// ABOUTME: Test helpers that run the fake backend behind httptest
// ABOUTME: Also seeds demo content for the dev-server command

package apitest

import (
	"net/http/httptest"
	"testing"

	"github.com/markalston/newsdesk/internal/client"
)

// Demo credentials seeded by Seed
const (
	DemoEmail    = "admin@newsdesk.local"
	DemoPassword = "admin"
)

// Start runs s behind an httptest server that is closed with the test
func Start(tb testing.TB, s *Server) *httptest.Server {
	tb.Helper()
	ts := httptest.NewServer(s)
	tb.Cleanup(ts.Close)
	return ts
}

// NewTestServer creates a fake backend and starts it
func NewTestServer(tb testing.TB, opts ...Option) (*Server, *httptest.Server) {
	tb.Helper()
	s := New(opts...)
	return s, Start(tb, s)
}

// Seed fills s with a demo admin, two categories and a few posts
func Seed(s *Server) {
	s.AddAdmin(client.Admin{
		Name:  "Newsroom Admin",
		Email: DemoEmail,
		Bio:   "Default administrator",
	}, DemoPassword)

	tech := s.AddCategory("Technology")
	world := s.AddCategory("World")

	s.AddPost(client.Post{
		Title:      "Welcome to the newsroom",
		Content:    "<p>First post.</p>",
		CategoryID: world.ID,
	})
	s.AddPost(client.Post{
		Title:      "Go 1.25 released",
		Content:    "<p>Release notes.</p>",
		CategoryID: tech.ID,
		ImageURL:   "https://example.com/go.png",
	})
}
