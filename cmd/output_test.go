// ABOUTME: Tests for shared output helpers
// ABOUTME: Verifies exit code mapping, JMESPath filtering, and truncation

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/markalston/newsdesk/internal/authgate"
	"github.com/markalston/newsdesk/internal/client"
	"github.com/markalston/newsdesk/internal/crud"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"not logged in", authgate.ErrUnauthenticated, exitRemote},
		{"validation", crud.Required("title"), exitLocal},
		{"wrapped validation", fmt.Errorf("submit: %w", crud.Required("title")), exitLocal},
		{"not confirmed", crud.ErrNotConfirmed, exitLocal},
		{"delete disabled", crud.ErrDeleteDisabled, exitLocal},
		{"server", &client.APIError{StatusCode: 500, Message: "boom"}, exitRemote},
		{"transport", errors.New("connection refused"), exitRemote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestPrintJSON_Query(t *testing.T) {
	queryExpr = "[?id > `1`].name"
	defer func() { queryExpr = "" }()

	var buf bytes.Buffer
	err := printJSON(&buf, []client.Category{{ID: 1, Name: "World"}, {ID: 2, Name: "Tech"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(strings.Fields(buf.String()), ""); got != `["Tech"]` {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"much longer text", 8, "much lo…"},
		{"héllo wörld", 5, "héll…"},
		{"ab", 1, "a"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestCliConfirmer_AssumeYes(t *testing.T) {
	assumeYes = true
	defer func() { assumeYes = false }()

	var buf bytes.Buffer
	ok, err := cliConfirmer(&buf).Confirm(context.Background(), "Delete?")
	if err != nil || !ok {
		t.Errorf("expected --yes to confirm, got %v, %v", ok, err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no prompt output, got %q", buf.String())
	}
}

func TestJoinNonEmpty(t *testing.T) {
	if got := joinNonEmpty(" · ", "a", "", " ", "b"); got != "a · b" {
		t.Errorf("unexpected %q", got)
	}
}

func TestConsole_NeedsTerminal(t *testing.T) {
	newBackend(t)

	var buf bytes.Buffer
	if code := runConsole(context.Background(), &buf); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "terminal") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestCliNotifier_FailureIsJSONInJSONMode(t *testing.T) {
	jsonOutput = true
	queryExpr = "[].name"
	defer func() { jsonOutput = false; queryExpr = "" }()

	var buf bytes.Buffer
	cliNotifier{w: &buf}.Failure("Could not save post", errors.New("boom"))

	var got map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("expected JSON, got %q: %v", buf.String(), err)
	}
	if got["error"] != "Could not save post: boom" {
		t.Errorf("unexpected error field %q", got["error"])
	}
}

func TestCliNotifier_FailureIsTextByDefault(t *testing.T) {
	var buf bytes.Buffer
	cliNotifier{w: &buf}.Failure("Could not save post", errors.New("boom"))
	if got := buf.String(); got != "Error: Could not save post: boom\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestCliNotifier_SuccessFallsBackWhenQueryFails(t *testing.T) {
	queryExpr = "[?"
	defer func() { queryExpr = "" }()

	var buf bytes.Buffer
	cliNotifier{w: &buf}.Success("Post created")
	if !strings.Contains(buf.String(), "Post created") {
		t.Errorf("expected the message to be printed, got %q", buf.String())
	}
}
