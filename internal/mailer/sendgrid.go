package mailer

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"lagimmo/api/internal/config"
)

type SendGrid struct {
	client *sendgrid.Client
	from   *mail.Email
	log    zerolog.Logger
}

func NewSendGrid(cfg config.MailConfig, logger zerolog.Logger) *SendGrid {
	return &SendGrid{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromAddress),
		log:    logger,
	}
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	resp, err := s.client.SendWithContext(ctx, BuildMail(s.from, msg))
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}

	s.log.Debug().
		Int("recipients", len(msg.To)).
		Str("template", msg.TemplateID).
		Int("status", resp.StatusCode).
		Msg("mail sent")
	return nil
}

// BuildMail renders msg as a SendGrid v3 payload.
func BuildMail(from *mail.Email, msg Message) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(from)
	m.Subject = msg.Subject

	if msg.TemplateID != "" {
		m.SetTemplateID(msg.TemplateID)
	} else {
		m.AddContent(mail.NewContent("text/plain", msg.Text))
	}

	for _, to := range msg.To {
		p := mail.NewPersonalization()
		p.AddTos(mail.NewEmail("", to))
		p.Subject = msg.Subject
		for k, v := range msg.Data {
			p.SetDynamicTemplateData(k, v)
		}
		m.AddPersonalizations(p)
	}

	for _, att := range msg.Attachments {
		a := mail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(att.Content))
		a.SetType(att.ContentType)
		a.SetFilename(att.Filename)
		a.SetDisposition("attachment")
		m.AddAttachment(a)
	}
	return m
}

// LogSender only logs. It stands in for SendGrid when no API key is configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{log: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.log.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Str("template", msg.TemplateID).
		Interface("data", msg.Data).
		Msg("mail not sent: sendgrid disabled")
	return nil
}

// NewSender picks SendGrid when an API key is configured.
func NewSender(cfg config.MailConfig, logger zerolog.Logger) Sender {
	if cfg.SendGridAPIKey == "" {
		return NewLogSender(logger)
	}
	return NewSendGrid(cfg, logger)
}
