// Package session carries the request identity in a signed cookie, along with
// one-shot flash notices and the CSRF token bound to the session.
package session

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bilancio/internal/core"
)

const (
	CookieName    = "bilancio_session"
	CSRFFieldName = "csrf_token"
	CSRFHeader    = "X-CSRF-Token"
)

// Claims is the signed payload of the session cookie.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	CSRF   string `json:"csrf"`
	jwt.RegisteredClaims
}

// Session is the decoded cookie of an authenticated request.
type Session struct {
	Identity  core.Identity
	CSRFToken string
	ExpiresAt time.Time
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager signs sessions with secret (HS256) valid for ttl. secure marks
// cookies HTTPS-only.
func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Issue starts a session for u and writes its cookie.
func (m *Manager) Issue(w http.ResponseWriter, u core.User) (Session, error) {
	now := m.now()
	s := Session{
		Identity:  core.Identity{UserID: u.ID, Email: u.Email},
		CSRFToken: uuid.NewString(),
		ExpiresAt: now.Add(m.ttl),
	}
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		CSRF:   s.CSRFToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// Read decodes the session cookie. Missing, tampered or expired cookies all
// yield core.ErrUnauthenticated.
func (m *Manager) Read(r *http.Request) (Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return Session{}, core.ErrUnauthenticated
	}

	token, err := jwt.ParseWithClaims(c.Value, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", core.ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 || claims.CSRF == "" {
		return Session{}, core.ErrUnauthenticated
	}
	return Session{
		Identity:  core.Identity{UserID: claims.UserID, Email: claims.Email},
		CSRFToken: claims.CSRF,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Clear removes the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ValidCSRF compares the submitted token with the session's in constant time.
func ValidCSRF(r *http.Request, s Session) bool {
	got := r.Header.Get(CSRFHeader)
	if got == "" {
		got = r.PostFormValue(CSRFFieldName)
	}
	if got == "" || s.CSRFToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.CSRFToken)) == 1
}

type contextKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by Middleware, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok && s.Identity.Authenticated()
}

// Identity returns the acting user, or the zero identity for anonymous requests.
func Identity(ctx context.Context) core.Identity {
	s, _ := FromContext(ctx)
	return s.Identity
}

// Middleware decodes the cookie, when present and valid, into the request
// context. It never rejects a request; the routes that need a user do that.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Read(r)
		switch {
		case err == nil:
			r = r.WithContext(WithSession(r.Context(), s))
		case hasCookie(r):
			// stale or tampered
			m.Clear(w)
		}
		next.ServeHTTP(w, r)
	})
}

func hasCookie(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	return err == nil && c.Value != ""
}
