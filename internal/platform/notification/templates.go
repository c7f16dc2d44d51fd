package notification

import (
	"fmt"
	"strings"
)

// Template ids shipped with the catalog.
const (
	TemplateRequestSubmitted = "blood-request-submitted"
	TemplateEmergencyAlert   = "blood-request-emergency"
)

// Template bodies use {{field}} placeholders.
type Template struct {
	ID      string
	Channel Channel
	Subject string
	Body    string
}

// Rendered is a template with its placeholders filled.
type Rendered struct {
	Channel Channel
	Subject string
	Body    string
}

// Catalog holds the message templates by id. It is read-only after
// NewCatalog.
type Catalog struct {
	templates map[string]Template
}

var bengaliTemplates = []Template{
	{
		ID:      TemplateRequestSubmitted,
		Channel: ChannelEmail,
		Subject: "রক্তের অনুরোধ গ্রহণ করা হয়েছে ({{blood_group}})",
		Body: "প্রিয় {{requester_name}}, {{patient_name}}-এর জন্য {{blood_group}} রক্তের অনুরোধটি গ্রহণ করা হয়েছে। " +
			"হাসপাতাল: {{hospital}}। প্রয়োজনের তারিখ: {{required_date}} {{required_time}}। " +
			"আমরা নিকটবর্তী রক্তদাতাদের জানাচ্ছি।",
	},
	{
		ID:      TemplateEmergencyAlert,
		Channel: ChannelSMS,
		Body:    "জরুরি: {{hospital}}-এ {{blood_group}} রক্ত প্রয়োজন। যোগাযোগ: {{contact_phone}}",
	},
}

// NewCatalog returns a catalog preloaded with the Bengali blood-request
// templates.
func NewCatalog() *Catalog {
	c := &Catalog{templates: make(map[string]Template, len(bengaliTemplates))}
	for _, t := range bengaliTemplates {
		c.templates[t.ID] = t
	}
	return c
}

// Render fills the template's placeholders from fields. Placeholders with
// no matching field stay in the output.
func (c *Catalog) Render(id string, fields map[string]string) (Rendered, error) {
	t, ok := c.templates[id]
	if !ok {
		return Rendered{}, fmt.Errorf("unknown template %q", id)
	}

	pairs := make([]string, 0, 2*len(fields))
	for k, v := range fields {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	r := strings.NewReplacer(pairs...)
	return Rendered{Channel: t.Channel, Subject: r.Replace(t.Subject), Body: r.Replace(t.Body)}, nil
}
