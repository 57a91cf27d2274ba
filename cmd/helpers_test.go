// ABOUTME: Shared fixtures for command tests
// ABOUTME: Runs commands against the in-memory API with an isolated config dir

package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/markalston/newsdesk/internal/apitest"
)

// newBackend starts a seeded fake API and points the global flags at it
func newBackend(t *testing.T) *apitest.Server {
	t.Helper()

	srv, ts := apitest.NewTestServer(t, apitest.WithRequireAuth())
	apitest.Seed(srv)

	t.Setenv("NEWSDESK_SESSION_BACKEND", "file")
	apiURL = ts.URL
	configDir = t.TempDir()

	origTerminal := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }

	t.Cleanup(func() {
		apiURL = ""
		configDir = ""
		jsonOutput = false
		queryExpr = ""
		assumeYes = false
		stdinIsTerminal = origTerminal
	})
	return srv
}

// loginDemo logs in with the seeded admin
func loginDemo(t *testing.T) {
	t.Helper()
	var buf bytes.Buffer
	if code := runLogin(context.Background(), &buf, apitest.DemoEmail, apitest.DemoPassword); code != exitOK {
		t.Fatalf("login failed with exit code %d: %s", code, buf.String())
	}
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
