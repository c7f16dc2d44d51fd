package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestRequestID_GeneratesNew(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		if rid, _ := c.Get(RequestIDKey).(string); rid == "" {
			t.Error("expected request_id to be generated")
		}
		return c.String(http.StatusOK, "ok")
	}

	if err := RequestID()(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "my-custom-id")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	RequestID()(func(c echo.Context) error {
		if rid := c.Get(RequestIDKey).(string); rid != "my-custom-id" {
			t.Errorf("expected my-custom-id, got %s", rid)
		}
		return nil
	})(c)

	if got := rec.Header().Get(RequestIDHeader); got != "my-custom-id" {
		t.Errorf("expected my-custom-id in response header, got %s", got)
	}
}

func TestRequestID_RejectsOversized(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	RequestID()(func(echo.Context) error { return nil })(c)
	if got := rec.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("expected a generated UUID, got %q", got)
	}
}

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}
	return line
}

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestID(), Logger(zerolog.New(&buf)))
	e.GET("/rangpur-division/:districtId", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rangpur-division/dinajpur", nil))

	line := logLine(t, &buf)
	if line["level"] != "info" || line["status"] != float64(200) {
		t.Errorf("unexpected log line %v", line)
	}
	if line["route"] != "/rangpur-division/:districtId" || line["path"] != "/rangpur-division/dinajpur" {
		t.Errorf("unexpected route/path in %v", line)
	}
	if line["request_id"] != rec.Header().Get(RequestIDHeader) {
		t.Errorf("request id mismatch: %v vs %s", line["request_id"], rec.Header().Get(RequestIDHeader))
	}
}

func TestLogger_ErrorStatusIsFinal(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(Logger(zerolog.New(&buf)))
	e.GET("/fail", func(c echo.Context) error {
		return errors.New("boom")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	line := logLine(t, &buf)
	if line["level"] != "error" || line["status"] != float64(500) {
		t.Errorf("unexpected log line %v", line)
	}
}

func TestLogger_ClientErrorIsWarn(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(Logger(zerolog.New(&buf)))

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	if line := logLine(t, &buf); line["level"] != "warn" || line["status"] != float64(404) {
		t.Errorf("unexpected log line %v", line)
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set(RequestIDKey, "req-1")

	err := Recovery(zerolog.New(&buf))(func(c echo.Context) error {
		panic("test panic")
	})(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
	line := logLine(t, &buf)
	if line["panic"] != "test panic" || line["request_id"] != "req-1" {
		t.Errorf("unexpected log line %v", line)
	}
}

func TestRecovery_PassesThrough(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/ok", nil), httptest.NewRecorder())

	err := Recovery(zerolog.Nop())(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecovery_RepanicsAbortHandler(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	defer func() {
		if r := recover(); r != http.ErrAbortHandler {
			t.Errorf("expected ErrAbortHandler to propagate, got %v", r)
		}
	}()
	Recovery(zerolog.Nop())(func(echo.Context) error {
		panic(http.ErrAbortHandler)
	})(c)
}
