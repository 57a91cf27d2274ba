// ABOUTME: Best-effort user identity from the login answer and token claims
// ABOUTME: Claims are read without verification; the server stays authoritative

package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/markalston/newsdesk/internal/client"
)

// placeholderName is used when a profile has to be synthesized
const placeholderName = "Admin"

// UserProfile is the cached identity of the logged-in admin
type UserProfile struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	// Synthesized marks a profile built locally because the server sent no identity
	Synthesized bool `json:"synthesized,omitempty"`
}

type tokenClaims struct {
	id     int
	name   string
	email  string
	expiry time.Time
}

// parseClaims reads identity claims from a JWT without checking its signature.
// Opaque tokens yield zero claims.
func parseClaims(token string) tokenClaims {
	var tc tokenClaims

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return tc
	}

	for _, k := range []string{"id", "userId", "uid"} {
		if id, ok := intClaim(claims[k]); ok {
			tc.id = id
			break
		}
	}
	if name, ok := claims["name"].(string); ok {
		tc.name = name
	}
	if email, ok := claims["email"].(string); ok {
		tc.email = email
	} else if sub, err := claims.GetSubject(); err == nil && strings.Contains(sub, "@") {
		tc.email = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tc.expiry = exp.Time
	}
	return tc
}

func intClaim(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), n > 0
	case string:
		id, err := strconv.Atoi(n)
		return id, err == nil && id > 0
	}
	return 0, false
}

// TokenExpiry returns the exp claim of a JWT token, if it has one
func TokenExpiry(token string) (time.Time, bool) {
	tc := parseClaims(token)
	return tc.expiry, !tc.expiry.IsZero()
}

// resolveProfile merges identity from the login answer, then token claims.
// When neither yields an id or a name, a placeholder profile is synthesized
// from the submitted email if synthesize is set; otherwise nil is returned.
func resolveProfile(resp *client.LoginResponse, email string, synthesize bool) *UserProfile {
	p := &UserProfile{ID: resp.ID, Name: resp.Name, Email: resp.Email}

	tc := parseClaims(resp.Token)
	if p.ID == 0 {
		p.ID = tc.id
	}
	if p.Name == "" {
		p.Name = tc.name
	}
	if p.Email == "" {
		p.Email = tc.email
	}
	if p.Email == "" {
		p.Email = email
	}

	if p.ID != 0 || p.Name != "" {
		return p
	}
	if !synthesize {
		return nil
	}
	return &UserProfile{
		ID:          0,
		Name:        placeholderName,
		Email:       p.Email,
		Synthesized: true,
	}
}
