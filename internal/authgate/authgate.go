// ABOUTME: Route guard deciding what a protected view may show
// ABOUTME: Pure function of the session state; re-evaluated on every navigation

package authgate

import (
	"errors"

	"github.com/markalston/newsdesk/internal/session"
)

// ErrUnauthenticated is returned by Require when no user is logged in
var ErrUnauthenticated = errors.New("not logged in: run 'newsdesk login' first")

// Decision is the outcome of evaluating the gate
type Decision int

const (
	// ShowLoading means the persisted session has not been restored yet
	ShowLoading Decision = iota
	// ShowContent means the protected content may render
	ShowContent
	// RedirectLogin means the caller must go to the login entry point
	RedirectLogin
)

func (d Decision) String() string {
	switch d {
	case ShowLoading:
		return "loading"
	case ShowContent:
		return "content"
	case RedirectLogin:
		return "redirect-login"
	default:
		return "unknown"
	}
}

// Decide maps a session snapshot to a decision. Loading takes priority, so
// protected content never renders before restore finishes.
func Decide(st session.State) Decision {
	switch {
	case st.Loading:
		return ShowLoading
	case st.Authenticated:
		return ShowContent
	default:
		return RedirectLogin
	}
}

// Require is the command-line form of the gate. Call it only after restore.
func Require(st session.State) error {
	if Decide(st) == ShowContent {
		return nil
	}
	return ErrUnauthenticated
}
