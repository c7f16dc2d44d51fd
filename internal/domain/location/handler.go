package location

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rokto/rokto/internal/platform/telemetry"
)

// Localized not-found messages returned to the UI.
const (
	MsgDistrictNotFound = "জেলা পাওয়া যায়নি"
	MsgThanaNotFound    = "Thana not found"
)

type Handler struct {
	svc     *Service
	metrics *telemetry.Metrics
}

// NewHandler wires svc to HTTP. metrics may be nil.
func NewHandler(svc *Service, metrics *telemetry.Metrics) *Handler {
	return &Handler{svc: svc, metrics: metrics}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetDivision)
	g.GET("/:districtId", h.GetDistrict)
	g.GET("/:districtId/:thanaId", h.GetThana)
}

func (h *Handler) GetDivision(c echo.Context) error {
	h.metrics.LocationLookup("division", true)
	return c.JSONBlob(http.StatusOK, h.svc.DivisionJSON())
}

func (h *Handler) GetDistrict(c echo.Context) error {
	dist, err := h.svc.GetDistrict(c.Param("districtId"))
	h.metrics.LocationLookup("district", err == nil)
	if err != nil {
		return notFound(c, err)
	}
	return c.JSON(http.StatusOK, dist)
}

func (h *Handler) GetThana(c echo.Context) error {
	th, err := h.svc.GetThana(c.Param("districtId"), c.Param("thanaId"))
	h.metrics.LocationLookup("thana", err == nil)
	if err != nil {
		return notFound(c, err)
	}
	return c.JSON(http.StatusOK, ThanaResponse{Thana: th})
}

func notFound(c echo.Context, err error) error {
	msg := MsgDistrictNotFound
	if errors.Is(err, ErrThanaNotFound) {
		msg = MsgThanaNotFound
	}
	return c.JSON(http.StatusNotFound, map[string]string{"error": msg})
}
