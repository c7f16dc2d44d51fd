package notification

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// LogSender writes messages to the structured log instead of a gateway.
// It serves both channels until SMTP and SMS providers are configured.
type LogSender struct {
	logger zerolog.Logger
	from   string
}

func NewLogSender(logger zerolog.Logger, from string) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "notification").Logger(), from: from}
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.logger.Info().
		Str("from", s.from).
		Str("to", to).
		Str("subject", subject).
		Int("body_len", len(body)).
		Msg("email queued")
	return nil
}

func (s *LogSender) SendSMS(_ context.Context, to, body string) error {
	s.logger.Info().Str("to", to).Int("body_len", len(body)).Msg("sms queued")
	return nil
}

// Delivery is one call observed by a Recorder.
type Delivery struct {
	Channel Channel
	To      string
	Subject string
	Body    string
}

// Recorder is an in-memory sender for tests. When Err is set every send
// fails with it.
type Recorder struct {
	Err error

	mu   sync.Mutex
	sent []Delivery
}

func (r *Recorder) SendEmail(_ context.Context, to, subject, body string) error {
	return r.record(Delivery{Channel: ChannelEmail, To: to, Subject: subject, Body: body})
}

func (r *Recorder) SendSMS(_ context.Context, to, body string) error {
	return r.record(Delivery{Channel: ChannelSMS, To: to, Body: body})
}

func (r *Recorder) record(d Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, d)
	return r.Err
}

// Sent returns the deliveries on ch in call order.
func (r *Recorder) Sent(ch Channel) []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Delivery
	for _, d := range r.sent {
		if d.Channel == ch {
			out = append(out, d)
		}
	}
	return out
}
