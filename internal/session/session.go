// ABOUTME: Process-wide authentication session backed by durable storage
// ABOUTME: Restores, logs in, and logs out; always persists before applying state

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/markalston/newsdesk/internal/client"
)

// State is a snapshot of the session as seen by gates and views
type State struct {
	Loading       bool
	Authenticated bool
	User          *UserProfile
}

// Session owns the auth token and the cached user profile. It is safe for
// concurrent use; readers get consistent snapshots.
type Session struct {
	storage    Storage
	base       *client.Client
	logger     *slog.Logger
	synthesize bool

	mu      sync.RWMutex
	loading bool
	token   string
	user    *UserProfile
	api     *client.Client
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithProfileSynthesis controls whether a placeholder profile is built when the
// server returns no identity at login.
func WithProfileSynthesis(enabled bool) Option {
	return func(s *Session) { s.synthesize = enabled }
}

// New creates a session in the loading state. base is the unauthenticated
// client; authenticated clients are derived from it.
func New(storage Storage, base *client.Client, opts ...Option) *Session {
	s := &Session{
		storage:    storage,
		base:       base,
		logger:     slog.New(slog.DiscardHandler),
		synthesize: true,
		loading:    true,
		api:        base,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted token and profile. Afterwards Loading is false
// and Authenticated is true exactly when a token was persisted. A corrupt
// profile entry is dropped without failing the restore.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.storage.Get(ctx, KeyToken)
	if err != nil {
		s.logger.Error("failed to read persisted token", "error", err)
		s.apply(false, "", nil)
		return fmt.Errorf("restore session: %w", err)
	}

	var user *UserProfile
	if raw, err := s.storage.Get(ctx, KeyUser); err != nil {
		s.logger.Warn("failed to read persisted profile", "error", err)
	} else if len(raw) > 0 {
		var u UserProfile
		if err := json.Unmarshal(raw, &u); err != nil {
			s.logger.Warn("discarding corrupt persisted profile", "error", err)
		} else {
			user = &u
		}
	}

	tok := strings.TrimSpace(string(token))
	if tok == "" {
		user = nil
	}
	s.apply(false, tok, user)
	s.logger.Debug("session restored", "authenticated", tok != "")
	return nil
}

// Login exchanges credentials for a token, persists it with the resolved
// profile, then applies both in memory. It reports failure as false and
// leaves session and storage unchanged.
func (s *Session) Login(ctx context.Context, email, password string) bool {
	resp, err := s.base.Login(ctx, email, password)
	if err != nil {
		s.logger.Info("login failed", "email", email, "error", err)
		return false
	}
	user := resolveProfile(resp, email, s.synthesize)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, resp.Token, user); err != nil {
		s.logger.Error("failed to persist session", "error", err)
		return false
	}
	s.setLocked(false, resp.Token, user)
	s.logger.Info("logged in", "email", email, "synthesized", user != nil && user.Synthesized)
	return true
}

// persist writes token then profile. When the profile write fails the
// previous token is put back so storage never holds a half-written login.
func (s *Session) persist(ctx context.Context, token string, user *UserProfile) error {
	prevToken, err := s.storage.Get(ctx, KeyToken)
	if err != nil {
		return err
	}

	if err := s.storage.Set(ctx, KeyToken, []byte(token)); err != nil {
		return err
	}

	var userErr error
	if user == nil {
		userErr = s.storage.Delete(ctx, KeyUser)
	} else if raw, err := json.Marshal(user); err != nil {
		userErr = err
	} else {
		userErr = s.storage.Set(ctx, KeyUser, raw)
	}
	if userErr == nil {
		return nil
	}

	var rollbackErr error
	if len(prevToken) == 0 {
		rollbackErr = s.storage.Delete(ctx, KeyToken)
	} else {
		rollbackErr = s.storage.Set(ctx, KeyToken, prevToken)
	}
	return errors.Join(userErr, rollbackErr)
}

// Logout removes the persisted token, then the profile. The in-memory
// session follows storage: once the token delete succeeds the session is
// logged out, even if the profile delete then fails. A failed token delete
// leaves everything as it was.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(ctx, KeyToken); err != nil {
		s.logger.Error("failed to clear persisted token", "error", err)
		return fmt.Errorf("logout: %w", err)
	}
	s.setLocked(false, "", nil)

	if err := s.storage.Delete(ctx, KeyUser); err != nil {
		s.logger.Warn("logged out but the persisted profile remains", "error", err)
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}

// State returns a snapshot of the session
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Loading:       s.loading,
		Authenticated: s.token != "",
	}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

// Token returns the current token, or "" when logged out
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Client returns the API client bound to the current token. Each call sees
// the token in effect at that moment.
func (s *Session) Client() *client.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.api
}

func (s *Session) apply(loading bool, token string, user *UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(loading, token, user)
}

func (s *Session) setLocked(loading bool, token string, user *UserProfile) {
	s.loading = loading
	s.token = token
	s.user = user
	s.api = s.base.WithToken(token)
}
