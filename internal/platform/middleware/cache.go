package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CacheConfig controls the Cache-Control and ETag headers set by ETag.
type CacheConfig struct {
	// MaxAge in seconds.
	MaxAge int
	// Public allows shared caches (CDNs) to store the response.
	Public bool
	// Immutable marks content that never changes for the process lifetime.
	Immutable bool
}

// StaticCacheConfig suits the location dataset, which is fixed for the life
// of the process.
func StaticCacheConfig() CacheConfig {
	return CacheConfig{MaxAge: 3600, Public: true}
}

// bufferedResponseWriter holds the response until the ETag is known.
type bufferedResponseWriter struct {
	writer     http.ResponseWriter
	buf        bytes.Buffer
	statusCode int
}

func (w *bufferedResponseWriter) Header() http.Header { return w.writer.Header() }

func (w *bufferedResponseWriter) Write(b []byte) (int, error) { return w.buf.Write(b) }

func (w *bufferedResponseWriter) WriteHeader(code int) { w.statusCode = code }

func (w *bufferedResponseWriter) flush() error {
	w.writer.WriteHeader(w.statusCode)
	if w.buf.Len() == 0 {
		return nil
	}
	_, err := w.writer.Write(w.buf.Bytes())
	return err
}

// ETag buffers successful GET/HEAD responses, tags them with a strong ETag
// over the body and answers If-None-Match with 304. Error responses pass
// through untouched; responses that set a cookie are marked private,
// no-store instead.
func ETag(cfg CacheConfig) echo.MiddlewareFunc {
	cacheControl := buildCacheControl(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet && req.Method != http.MethodHead {
				return next(c)
			}

			res := c.Response()
			orig := res.Writer
			buf := &bufferedResponseWriter{writer: orig, statusCode: http.StatusOK}
			res.Writer = buf
			err := next(c)
			res.Writer = orig
			if err != nil {
				return err
			}

			if buf.statusCode != http.StatusOK {
				return buf.flush()
			}

			h := res.Header()
			// A response carrying a cookie is per-user and must never be
			// stored by a shared cache or answered with 304.
			if len(h.Values("Set-Cookie")) > 0 {
				h.Set("Cache-Control", "private, no-store")
				h.Add("Vary", "Cookie")
				return buf.flush()
			}

			etag := computeETag(buf.buf.Bytes())
			h.Set("ETag", etag)
			h.Set("Cache-Control", cacheControl)
			h.Add("Vary", "Accept-Encoding")

			if inm := req.Header.Get("If-None-Match"); inm != "" && etagMatch(inm, etag) {
				h.Del("Content-Length")
				res.Status = http.StatusNotModified
				orig.WriteHeader(http.StatusNotModified)
				return nil
			}
			return buf.flush()
		}
	}
}

func computeETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func buildCacheControl(cfg CacheConfig) string {
	parts := []string{"private"}
	if cfg.Public {
		parts[0] = "public"
	}
	parts = append(parts, fmt.Sprintf("max-age=%d", cfg.MaxAge))
	if cfg.Immutable {
		parts = append(parts, "immutable")
	}
	return strings.Join(parts, ", ")
}

// etagMatch reports whether an If-None-Match value matches etag, using weak
// comparison. Supports lists and "*".
func etagMatch(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}
