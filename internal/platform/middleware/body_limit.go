package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// defaultBodyLimit applies when a limit string cannot be parsed.
const defaultBodyLimit = 64 << 10

// BodyLimit rejects request bodies larger than limit with 413. limit is a
// size such as "64K", "1M" or a bare byte count.
func BodyLimit(limit string) echo.MiddlewareFunc {
	maxBytes := ParseSize(limit)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}
			if req.ContentLength > maxBytes {
				return tooLarge(c, maxBytes)
			}
			req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBytes)

			err := next(c)
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) && !c.Response().Committed {
				return tooLarge(c, maxBytes)
			}
			return err
		}
	}
}

func tooLarge(c echo.Context, limit int64) error {
	return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{
		"error": fmt.Sprintf("request body exceeds %d bytes", limit),
	})
}

// ParseSize parses "512", "64K", "1M", "1MB" or "1G" into bytes. Anything
// unparsable yields the default limit.
func ParseSize(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "B")
	if s == "" {
		return defaultBodyLimit
	}

	var multiplier int64 = 1
	switch s[len(s)-1] {
	case 'G':
		multiplier = 1 << 30
	case 'M':
		multiplier = 1 << 20
	case 'K':
		multiplier = 1 << 10
	}
	if multiplier > 1 {
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return defaultBodyLimit
	}
	return n * multiplier
}
