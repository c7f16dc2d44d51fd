package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func serveHealth(t *testing.T, p Pinger) (*httptest.ResponseRecorder, healthResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/db", nil), rec)
	if err := HealthHandler(p)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return rec, body
}

func TestHealthHandler_Healthy(t *testing.T) {
	rec, body := serveHealth(t, pingFunc(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected the ping to carry a deadline")
		}
		return nil
	}))
	if rec.Code != http.StatusOK || body.Status != "healthy" || body.Error != "" {
		t.Errorf("unexpected response %d %+v", rec.Code, body)
	}
	if body.Pool != nil {
		t.Error("pool stats are only reported for a real pool")
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	rec, body := serveHealth(t, pingFunc(func(context.Context) error {
		return errors.New("connection refused")
	}))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if body.Status != "unhealthy" || body.Error != "connection refused" {
		t.Errorf("unexpected body %+v", body)
	}
}
