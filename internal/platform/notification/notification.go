// Package notification delivers blood-request messages by email and SMS.
// Every delivery attempt is kept in a bounded in-memory outbox.
package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Channel is the delivery medium of a message.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// ErrUnknownMessage is returned by Lookup for ids no longer in the outbox.
var ErrUnknownMessage = errors.New("message not found")

// Message is one outbound notification and the outcome of delivering it.
type Message struct {
	ID         string            `json:"id"`
	Channel    Channel           `json:"channel"`
	To         string            `json:"to"`
	Subject    string            `json:"subject,omitempty"`
	Body       string            `json:"body"`
	TemplateID string            `json:"template_id,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Status     Status            `json:"status"`
	QueuedAt   time.Time         `json:"queued_at"`
	SentAt     *time.Time        `json:"sent_at,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// outboxSize bounds the history; the oldest messages are dropped first.
const outboxSize = 1000

// Dispatcher routes messages to the sender of their channel.
type Dispatcher struct {
	email   EmailSender
	sms     SMSSender
	catalog *Catalog

	mu     sync.RWMutex
	byID   map[string]*Message
	outbox []string
}

func NewDispatcher(email EmailSender, sms SMSSender, catalog *Catalog) *Dispatcher {
	return &Dispatcher{
		email:   email,
		sms:     sms,
		catalog: catalog,
		byID:    make(map[string]*Message),
	}
}

// Dispatch delivers msg and records it. The returned error is the sender's.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.QueuedAt = time.Now().UTC()
	msg.Status = StatusPending

	err := d.deliver(ctx, msg)
	if err != nil {
		msg.Status = StatusFailed
		msg.Error = err.Error()
	} else {
		sent := time.Now().UTC()
		msg.Status = StatusSent
		msg.SentAt = &sent
	}
	d.keep(msg)
	return err
}

func (d *Dispatcher) deliver(ctx context.Context, msg *Message) error {
	switch msg.Channel {
	case ChannelEmail:
		return d.email.SendEmail(ctx, msg.To, msg.Subject, msg.Body)
	case ChannelSMS:
		return d.sms.SendSMS(ctx, msg.To, msg.Body)
	}
	return fmt.Errorf("no sender for channel %q", msg.Channel)
}

func (d *Dispatcher) keep(msg *Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byID[msg.ID]; !ok {
		d.outbox = append(d.outbox, msg.ID)
	}
	d.byID[msg.ID] = msg
	for len(d.outbox) > outboxSize {
		delete(d.byID, d.outbox[0])
		d.outbox = d.outbox[1:]
	}
}

// DispatchTemplate renders templateID with fields and delivers it to to.
// A render failure returns a nil message.
func (d *Dispatcher) DispatchTemplate(ctx context.Context, templateID string, fields map[string]string, to string) (*Message, error) {
	r, err := d.catalog.Render(templateID, fields)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", templateID, err)
	}
	msg := &Message{
		Channel:    r.Channel,
		To:         to,
		Subject:    r.Subject,
		Body:       r.Body,
		TemplateID: templateID,
		Fields:     fields,
	}
	return msg, d.Dispatch(ctx, msg)
}

func (d *Dispatcher) Lookup(id string) (*Message, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	msg, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessage, id)
	}
	cp := *msg
	return &cp, nil
}

// Counts tallies the outbox by delivery status.
func (d *Dispatcher) Counts() map[Status]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	counts := make(map[Status]int)
	for _, msg := range d.byID {
		counts[msg.Status]++
	}
	return counts
}
