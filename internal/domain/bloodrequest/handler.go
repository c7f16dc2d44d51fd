package bloodrequest

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// TokenFunc returns the caller's session token, or "" when there is none.
type TokenFunc func(c echo.Context) string

type Handler struct {
	svc   *Service
	token TokenFunc
}

func NewHandler(svc *Service, token TokenFunc) *Handler {
	if token == nil {
		token = func(echo.Context) string { return "" }
	}
	return &Handler{svc: svc, token: token}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Submit)
}

// Submit answers 200 with the success envelope, 502 when the backend
// rejected or could not be reached, 413 when the body ran past the request
// size limit and 400 when the body is not a request.
func (h *Handler) Submit(c echo.Context) error {
	var req BloodRequest
	if err := c.Bind(&req); err != nil {
		status := http.StatusBadRequest
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			status = http.StatusRequestEntityTooLarge
		}
		return c.JSON(status, Failure{Reason: err.Error()}.Envelope())
	}

	res := h.svc.Submit(c.Request().Context(), &req, h.token(c))
	status := http.StatusOK
	if _, failed := res.(Failure); failed {
		status = http.StatusBadGateway
	}
	return c.JSON(status, res.Envelope())
}
