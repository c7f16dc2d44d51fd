package bloodrequest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestEcho(svc *Service, token string) *echo.Echo {
	e := echo.New()
	NewHandler(svc, func(echo.Context) string { return token }).RegisterRoutes(e.Group("/blood-request"))
	return e
}

func post(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/blood-request", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestHandler_Submit_Success(t *testing.T) {
	fb := &fakeBackend{status: http.StatusCreated, body: `{"id":"req-9"}`}
	e := newTestEcho(newTestService(fb.server(t).URL, nil), "cookie-token")

	rec := post(e, `{"patientName":"রহিম","bloodGroup":"A-","urgencyLevel":"urgent"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if !env.Success || string(env.Data) != `{"id":"req-9"}` {
		t.Errorf("unexpected envelope %+v", env)
	}
	if got := fb.last.Load().(BloodRequest); got.BloodGroup != "A-" || got.UrgencyLevel != UrgencyUrgent {
		t.Errorf("unexpected forwarded record %+v", got)
	}
	if got := fb.auth.Load().(string); got != "Bearer cookie-token" {
		t.Errorf("expected cookie token as bearer, got %q", got)
	}
}

func TestHandler_Submit_BackendFailure(t *testing.T) {
	fb := &fakeBackend{status: http.StatusInternalServerError, body: `{}`}
	e := newTestEcho(newTestService(fb.server(t).URL, nil), "")

	rec := post(e, `{"bloodGroup":"B+"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Success || env.Message != MsgSomethingWentWrong {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestHandler_Submit_BadBody(t *testing.T) {
	fb := &fakeBackend{status: http.StatusOK, body: `{}`}
	e := newTestEcho(newTestService(fb.server(t).URL, nil), "")

	rec := post(e, `{"bloodGroup": 7}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Success || env.Message != MsgSomethingWentWrong {
		t.Errorf("unexpected envelope %+v", env)
	}
	if n := fb.calls.Load(); n != 0 {
		t.Errorf("expected no backend call for a bad body, got %d", n)
	}
}

func TestHandler_Submit_OversizedStreamedBody(t *testing.T) {
	fb := &fakeBackend{status: http.StatusOK, body: `{}`}
	e := newTestEcho(newTestService(fb.server(t).URL, nil), "")

	body := `{"patientName":"` + strings.Repeat("x", 1024) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/blood-request", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 64)
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Success || env.Message != MsgSomethingWentWrong {
		t.Errorf("unexpected envelope %+v", env)
	}
	if n := fb.calls.Load(); n != 0 {
		t.Errorf("expected no backend call, got %d", n)
	}
}
