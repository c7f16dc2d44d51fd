package session

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

// LoginPath is where a client is sent when its session is gone.
const LoginPath = "/login"

// MsgUnavailable is shown when the backend cannot refresh right now.
const MsgUnavailable = "কিছু ভুল হয়েছে"

type response struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data,omitempty"`
	Message  string          `json:"message,omitempty"`
	Redirect string          `json:"redirect,omitempty"`
}

type Handler struct {
	refresher *Refresher
	cookies   CookieSettings
}

func NewHandler(refresher *Refresher, cookies CookieSettings) *Handler {
	return &Handler{refresher: refresher, cookies: cookies}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
}

func (h *Handler) Refresh(c echo.Context) error {
	res := h.refresher.Refresh(c.Request().Context(), Store(c, h.cookies))
	switch res.Outcome {
	case Refreshed:
		return c.JSON(http.StatusOK, response{Success: true, Data: res.Payload})
	case Unavailable:
		return c.JSON(http.StatusServiceUnavailable, response{Message: MsgUnavailable})
	default:
		return c.JSON(http.StatusUnauthorized, response{Redirect: LoginPath})
	}
}

// Logout clears the cookie and every cached refresh response.
func (h *Handler) Logout(c echo.Context) error {
	store := Store(c, h.cookies)
	if token, ok := store.Token(); ok {
		h.refresher.Forget(token)
	}
	store.Delete()
	h.refresher.Invalidate()
	return c.JSON(http.StatusOK, response{Success: true})
}
