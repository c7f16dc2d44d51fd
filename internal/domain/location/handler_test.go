package location

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	NewHandler(newEmbeddedService(t), nil).RegisterRoutes(e.Group("/rangpur-division"))
	return e
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	return body["error"]
}

func TestHandler_GetDivision(t *testing.T) {
	e := newTestServer(t)

	rec := get(e, "/rangpur-division")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var div Division
	if err := json.Unmarshal(rec.Body.Bytes(), &div); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if div.ID != "rangpur" || len(div.Districts) != 8 {
		t.Errorf("unexpected division: id=%s districts=%d", div.ID, len(div.Districts))
	}
}

func TestHandler_GetDivision_ByteIdentical(t *testing.T) {
	e := newTestServer(t)

	first := get(e, "/rangpur-division").Body.Bytes()
	for i := 0; i < 5; i++ {
		if got := get(e, "/rangpur-division").Body.Bytes(); !bytes.Equal(first, got) {
			t.Fatalf("response %d differs from the first response", i+2)
		}
	}
}

func TestHandler_GetDistrict(t *testing.T) {
	e := newTestServer(t)

	rec := get(e, "/rangpur-division/dinajpur")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var dist District
	if err := json.Unmarshal(rec.Body.Bytes(), &dist); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if dist.ID != "dinajpur" || len(dist.Thanas) != 13 {
		t.Errorf("unexpected district: id=%s thanas=%d", dist.ID, len(dist.Thanas))
	}
}

func TestHandler_GetDistrict_NotFound(t *testing.T) {
	e := newTestServer(t)

	rec := get(e, "/rangpur-division/unknown-district")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "জেলা পাওয়া যায়নি" {
		t.Errorf("unexpected error message %q", msg)
	}
}

func TestHandler_GetThana(t *testing.T) {
	e := newTestServer(t)

	rec := get(e, "/rangpur-division/rangpur-sadar/kotwali")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body ThanaResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Thana == nil || body.Thana.ID != "kotwali" || body.Thana.Name == "" {
		t.Errorf("unexpected thana body: %s", rec.Body.String())
	}
}

func TestHandler_GetThana_NotFound(t *testing.T) {
	e := newTestServer(t)

	rec := get(e, "/rangpur-division/rangpur-sadar/unknown-thana")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Thana not found" {
		t.Errorf("unexpected error message %q", msg)
	}
}

func TestHandler_GetThana_DistrictNotFound(t *testing.T) {
	e := newTestServer(t)

	rec := get(e, "/rangpur-division/unknown-district/kotwali")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != MsgDistrictNotFound {
		t.Errorf("unexpected error message %q", msg)
	}
}
