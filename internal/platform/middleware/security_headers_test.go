package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name     string
		hsts     bool
		wantHSTS string
	}{
		{"production", true, "max-age=31536000; includeSubDomains"},
		{"development", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			if err := SecurityHeaders(tt.hsts)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := map[string]string{
				"X-Content-Type-Options":    "nosniff",
				"X-Frame-Options":           "DENY",
				"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
				"Referrer-Policy":           "strict-origin-when-cross-origin",
				"Cache-Control":             "no-store",
				"Strict-Transport-Security": tt.wantHSTS,
			}
			for k, v := range want {
				if got := rec.Header().Get(k); got != v {
					t.Errorf("%s = %q, want %q", k, got, v)
				}
			}
		})
	}
}

func TestSecurityHeaders_HandlerCanOverrideCacheControl(t *testing.T) {
	e := echo.New()
	e.Use(SecurityHeaders(false))
	g := e.Group("/rangpur-division", ETag(StaticCacheConfig()))
	g.GET("", func(c echo.Context) error { return c.String(http.StatusOK, "{}") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rangpur-division", nil))
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", got)
	}
}
