/*
session.go - Caller identity for HTTP requests

PURPOSE:
  Turns a login into a server-side session and resolves every later request
  back to a *generic.Caller, which handlers pass explicitly into the domain.

TWO CREDENTIALS, ONE SESSION:
  Login creates a session in an in-process TTL cache (go-cache) keyed by a
  random id. The client gets the id as an HttpOnly cookie (browser) and an
  HS256 JWT whose jti is the same id (API clients, Authorization: Bearer).
  A JWT is only honoured while its session still exists, so Logout revokes
  both credentials at once.

SEE ALSO:
  - access/scope.go: what a caller may see
  - handlers_auth.go: Login / Logout
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/warp/attendance-engine/generic"
)

const SessionCookie = "attendance_session"

type Sessions struct {
	cache      *cache.Cache
	secret     []byte
	sessionTTL time.Duration
	accessTTL  time.Duration
	secure     bool
}

type session struct {
	Caller generic.Caller
}

// AccessToken is returned to API clients on login.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

type claims struct {
	Role generic.Role `json:"role"`
	jwt.RegisteredClaims
}

func NewSessions(secret []byte, sessionTTL, accessTTL time.Duration, secureCookie bool) *Sessions {
	return &Sessions{
		cache:      cache.New(sessionTTL, time.Minute),
		secret:     secret,
		sessionTTL: sessionTTL,
		accessTTL:  min(accessTTL, sessionTTL),
		secure:     secureCookie,
	}
}

// Start opens a session for a and writes the cookie.
func (s *Sessions) Start(w http.ResponseWriter, a generic.Account) (AccessToken, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	exp := now.Add(s.accessTTL)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: a.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   strconv.FormatInt(int64(a.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return AccessToken{}, err
	}

	s.cache.Set(id, &session{Caller: generic.Caller{AccountID: a.ID, Role: a.Role}}, cache.DefaultExpiration)

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.sessionTTL / time.Second),
	})
	return AccessToken{Token: signed, ExpiresAt: exp}, nil
}

// End deletes the request's session, if any, and clears the cookie.
func (s *Sessions) End(w http.ResponseWriter, r *http.Request) {
	if id, ok := s.sessionID(r); ok {
		s.cache.Delete(id)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	})
}

// Drop removes every session of an account. Used when a worker is deleted.
func (s *Sessions) Drop(id generic.AccountID) {
	for key, item := range s.cache.Items() {
		if sess, ok := item.Object.(*session); ok && sess.Caller.AccountID == id {
			s.cache.Delete(key)
		}
	}
}

// Resolve returns the caller of r, or nil for an anonymous request.
func (s *Sessions) Resolve(r *http.Request) *generic.Caller {
	id, ok := s.sessionID(r)
	if !ok {
		return nil
	}
	v, found := s.cache.Get(id)
	if !found {
		return nil
	}
	caller := v.(*session).Caller
	return &caller
}

// sessionID prefers a bearer token over the cookie.
func (s *Sessions) sessionID(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return s.parseToken(strings.TrimPrefix(auth, "Bearer "))
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

func (s *Sessions) parseToken(raw string) (string, bool) {
	var c claims
	tok, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid || c.ID == "" {
		return "", false
	}
	return c.ID, true
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

type callerKey struct{}

// Identify attaches the caller (possibly nil) to the request context.
func (s *Sessions) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if caller := s.Resolve(r); caller != nil {
			r = r.WithContext(context.WithValue(r.Context(), callerKey{}, caller))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCaller rejects anonymous requests with 401.
func RequireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CallerFrom(r.Context()) == nil {
			writeError(w, r, generic.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CallerFrom returns the caller Identify stored, or nil.
func CallerFrom(ctx context.Context) *generic.Caller {
	c, _ := ctx.Value(callerKey{}).(*generic.Caller)
	return c
}
