package notification

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler exposes delivery status for operators. Recipients, bodies and
// template fields are never returned.
type Handler struct {
	dispatcher *Dispatcher
}

func NewHandler(d *Dispatcher) *Handler {
	return &Handler{dispatcher: d}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/stats", h.Stats)
	g.GET("/:id", h.Get)
}

// statusView is the public shape of a Message.
type statusView struct {
	ID         string     `json:"id"`
	Channel    Channel    `json:"channel"`
	TemplateID string     `json:"template_id,omitempty"`
	Status     Status     `json:"status"`
	QueuedAt   time.Time  `json:"queued_at"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Get handles GET /notifications/:id.
func (h *Handler) Get(c echo.Context) error {
	msg, err := h.dispatcher.Lookup(c.Param("id"))
	if errors.Is(err, ErrUnknownMessage) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": ErrUnknownMessage.Error()})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusView{
		ID:         msg.ID,
		Channel:    msg.Channel,
		TemplateID: msg.TemplateID,
		Status:     msg.Status,
		QueuedAt:   msg.QueuedAt,
		SentAt:     msg.SentAt,
		Error:      msg.Error,
	})
}

// Stats handles GET /notifications/stats.
func (h *Handler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.dispatcher.Counts())
}
