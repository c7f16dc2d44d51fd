package bloodrequest

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rokto/rokto/internal/platform/notification"
)

// TemplateSender is implemented by *notification.Dispatcher.
type TemplateSender interface {
	DispatchTemplate(ctx context.Context, templateID string, fields map[string]string, to string) (*notification.Message, error)
}

// Notifier sends confirmations for accepted requests. Delivery errors are
// logged only; they never change a submission result.
type Notifier struct {
	sender TemplateSender
	logger zerolog.Logger
}

func NewNotifier(sender TemplateSender, logger zerolog.Logger) *Notifier {
	return &Notifier{sender: sender, logger: logger.With().Str("component", "bloodrequest.notify").Logger()}
}

// Submitted emails the requester, and texts the contact phone for
// emergencies. A nil Notifier does nothing.
func (n *Notifier) Submitted(ctx context.Context, req *BloodRequest) {
	if n == nil {
		return
	}
	data := templateData(req)

	if email := strings.TrimSpace(req.RequesterEmail); email != "" {
		n.send(ctx, notification.TemplateRequestSubmitted, data, email)
	}
	if req.UrgencyLevel == UrgencyEmergency {
		if phone := strings.TrimSpace(req.ContactPhone); phone != "" {
			n.send(ctx, notification.TemplateEmergencyAlert, data, phone)
		}
	}
}

func (n *Notifier) send(ctx context.Context, templateID string, data map[string]string, recipient string) {
	msg, err := n.sender.DispatchTemplate(ctx, templateID, data, recipient)
	if err != nil {
		n.logger.Warn().Err(err).Str("template", templateID).Msg("notification not delivered")
		return
	}
	n.logger.Info().Str("notification_id", msg.ID).Str("template", templateID).Msg("notification dispatched")
}

func templateData(req *BloodRequest) map[string]string {
	requester := req.RequesterName
	if requester == "" {
		requester = req.ContactPerson
	}
	return map[string]string{
		"requester_name": requester,
		"patient_name":   req.PatientName,
		"blood_group":    req.BloodGroup,
		"hospital":       req.HospitalName,
		"required_date":  req.RequiredDate,
		"required_time":  req.RequiredTime,
		"contact_phone":  req.ContactPhone,
	}
}
