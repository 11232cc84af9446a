// Package mailer sends transactional email through SendGrid, either directly
// or through the redis task stream drained by the worker.
package mailer

import (
	"context"
	"errors"
	"strings"
)

type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"content"`
}

// Message is one email. Each recipient gets a separate personalization, so
// recipients never see each other. A message without TemplateID is sent as
// plain text.
type Message struct {
	To          []string       `json:"to"`
	Subject     string         `json:"subject"`
	TemplateID  string         `json:"templateId,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Text        string         `json:"text,omitempty"`
	Attachments []Attachment   `json:"attachments,omitempty"`
}

func (m Message) Validate() error {
	if len(m.To) == 0 {
		return errors.New("message has no recipient")
	}
	for _, to := range m.To {
		if !strings.Contains(to, "@") {
			return errors.New("invalid recipient " + to)
		}
	}
	if m.TemplateID == "" && m.Text == "" {
		return errors.New("message has neither template nor text")
	}
	return nil
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}
