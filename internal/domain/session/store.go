// Package session keeps the caller's backend credential in a cookie and
// refreshes it against the backend.
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// TokenStore is the client-scoped storage holding one session token.
type TokenStore interface {
	Token() (string, bool)
	Replace(token string)
	Delete()
}

// CookieSettings are the attributes every session cookie is written with.
type CookieSettings struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// CookieStore is a TokenStore over the cookie jar of one echo request.
// Replace and Delete also update the request-side view, so later reads in
// the same request see the new value.
type CookieStore struct {
	c        echo.Context
	settings CookieSettings
	override *string
}

func NewCookieStore(c echo.Context, settings CookieSettings) *CookieStore {
	return &CookieStore{c: c, settings: settings}
}

func (s *CookieStore) Token() (string, bool) {
	if s.override != nil {
		return *s.override, *s.override != ""
	}
	ck, err := s.c.Cookie(s.settings.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func (s *CookieStore) Replace(token string) {
	s.override = &token
	s.c.SetCookie(s.cookie(token, int(s.settings.MaxAge/time.Second)))
}

func (s *CookieStore) Delete() {
	empty := ""
	s.override = &empty
	s.c.SetCookie(s.cookie("", -1))
}

func (s *CookieStore) cookie(value string, maxAge int) *http.Cookie {
	ck := &http.Cookie{
		Name:     s.settings.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.settings.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge > 0 {
		ck.Expires = time.Now().Add(time.Duration(maxAge) * time.Second)
	}
	return ck
}

// MemoryStore is an in-process TokenStore.
type MemoryStore struct {
	mu    sync.Mutex
	token string
	// Writes counts Replace and Delete calls.
	Writes int
}

func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *MemoryStore) Replace(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.Writes++
}

func (s *MemoryStore) Delete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.Writes++
}
