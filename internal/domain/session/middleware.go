package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

const storeContextKey = "session_store"

// Store returns the request's CookieStore, creating it on first use so that
// a refresh done by middleware is visible to the handler.
func Store(c echo.Context, settings CookieSettings) *CookieStore {
	if s, ok := c.Get(storeContextKey).(*CookieStore); ok {
		return s
	}
	s := NewCookieStore(c, settings)
	c.Set(storeContextKey, s)
	return s
}

// Token returns a function reading the current session token of a request.
func Token(settings CookieSettings) func(echo.Context) string {
	return func(c echo.Context) string {
		t, _ := Store(c, settings).Token()
		return t
	}
}

// AutoRefreshConfig configures AutoRefresh.
type AutoRefreshConfig struct {
	Skipper   middleware.Skipper
	Refresher *Refresher
	Cookie    CookieSettings
	// Window is how close to expiry a token must be to get refreshed.
	Window time.Duration
	Logger zerolog.Logger
}

// AutoRefresh refreshes JWT session tokens that expire within the window
// before the handler runs. Opaque tokens and tokens without exp are left
// alone. The handler always runs, whatever the refresh outcome.
func AutoRefresh(cfg AutoRefreshConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = middleware.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}
			store := Store(c, cfg.Cookie)
			token, ok := store.Token()
			if !ok {
				return next(c)
			}
			exp, ok := expiry(token)
			if !ok || time.Until(exp) > cfg.Window {
				return next(c)
			}

			res := cfg.Refresher.Refresh(c.Request().Context(), store)
			cfg.Logger.Debug().
				Str("outcome", res.Outcome.String()).
				Time("expires", exp).
				Msg("session auto-refresh")
			return next(c)
		}
	}
}

// expiry reads the exp claim without verifying the signature; the backend
// owns the signing key and verifies the token itself.
func expiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
