package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"

	"lagimmo/api/internal/apperr"
	"lagimmo/api/internal/config"
	"lagimmo/api/internal/ids"
	"lagimmo/api/internal/mailer"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/pagination"
	"lagimmo/api/internal/repository"
)

type AttachmentSet string

const (
	AttachmentsQuestion AttachmentSet = "question"
	AttachmentsAnswer   AttachmentSet = "answer"
	AttachmentsAll      AttachmentSet = "all"
)

var (
	ErrUnknownAttachmentSet = apperr.Validation("attachmentType must be one of: question, answer, all")
	ErrNoAttachments        = apperr.NotFound("no attachments")
)

type TicketInput struct {
	ContactInput
	CompanyName string
	Subject     models.SupportSubject
	Category    models.SupportCategory
	Question    string
}

type SupportService struct {
	tickets   SupportStore
	uploads   *UploadService
	mail      MailSender
	templates config.MailTemplates
	log       zerolog.Logger
}

func NewSupportService(tickets SupportStore, uploads *UploadService, mail MailSender, templates config.MailTemplates, log zerolog.Logger) *SupportService {
	return &SupportService{tickets: tickets, uploads: uploads, mail: mail, templates: templates, log: log}
}

// Create stores a visitor question and queues the confirmation mail.
func (s *SupportService) Create(ctx context.Context, in TicketInput, files []*multipart.FileHeader) (models.SupportTicket, error) {
	contact := in.normalized()
	t := models.SupportTicket{
		ID:          ids.New(),
		FirstName:   contact.FirstName,
		LastName:    contact.LastName,
		Email:       contact.Email,
		PhoneNumber: contact.PhoneNumber,
		CompanyName: strings.TrimSpace(in.CompanyName),
		Subject:     in.Subject,
		Category:    in.Category,
		Question:    strings.TrimSpace(in.Question),
	}
	if t.Category == "" {
		t.Category = models.SupportCategoryVisitor
	}

	stored, err := s.uploads.UploadMany(ctx, BucketSupport, files, UploadOptions{})
	if err != nil {
		return models.SupportTicket{}, err
	}
	t.QuestionAttachments = stored
	if err := s.tickets.Create(ctx, t); err != nil {
		s.uploads.Remove(context.WithoutCancel(ctx), stored)
		return models.SupportTicket{}, err
	}

	msg := mailer.Message{
		To:         []string{t.Email},
		Subject:    "Nous avons bien reçu votre demande",
		TemplateID: s.templates.SupportConfirmation,
		Data: map[string]any{
			"firstName": t.FirstName,
			"subject":   string(t.Subject),
			"question":  t.Question,
		},
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Warn().Err(err).Str("ticket_id", t.ID).Msg("queue confirmation mail failed")
	}

	return s.tickets.Get(ctx, t.ID)
}

func (s *SupportService) List(ctx context.Context, f repository.TicketFilter, opts pagination.Options) (pagination.Page[models.SupportTicket], error) {
	items, total, err := s.tickets.Filter(ctx, f, opts)
	if err != nil {
		return pagination.Page[models.SupportTicket]{}, err
	}
	return pagination.NewPage(items, total, opts), nil
}

// Get returns a ticket; the first read by an admin stamps seenAt.
func (s *SupportService) Get(ctx context.Context, id string) (models.SupportTicket, error) {
	t, err := s.tickets.Get(ctx, id)
	if err != nil {
		return models.SupportTicket{}, err
	}
	if t.SeenAt != nil {
		return t, nil
	}
	if err := s.tickets.MarkSeen(ctx, id); err != nil {
		return models.SupportTicket{}, err
	}
	return s.tickets.Get(ctx, id)
}

// Answer records the single admin answer and queues the answer mail with the
// attachments.
func (s *SupportService) Answer(ctx context.Context, id string, admin models.User, answer string, files []*multipart.FileHeader) (models.SupportTicket, error) {
	t, err := s.tickets.Get(ctx, id)
	if err != nil {
		return models.SupportTicket{}, err
	}
	if t.Answered() {
		return models.SupportTicket{}, repository.ErrAlreadyAnswered
	}

	answer = strings.TrimSpace(answer)
	uploaded, err := s.uploads.UploadMany(ctx, BucketSupport, files, UploadOptions{})
	if err != nil {
		return models.SupportTicket{}, err
	}
	if err := s.tickets.Answer(ctx, id, answer, admin.ID, uploaded); err != nil {
		s.uploads.Remove(context.WithoutCancel(ctx), uploaded)
		return models.SupportTicket{}, err
	}

	attachments, err := s.mailAttachments(ctx, uploaded)
	if err != nil {
		s.log.Warn().Err(err).Str("ticket_id", id).Msg("load answer attachments failed")
	}
	msg := mailer.Message{
		To:         []string{t.Email},
		Subject:    "Réponse à votre demande",
		TemplateID: s.templates.SupportAnswer,
		Data: map[string]any{
			"firstName": t.FirstName,
			"question":  t.Question,
			"answer":    answer,
		},
		Attachments: attachments,
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Warn().Err(err).Str("ticket_id", id).Msg("queue answer mail failed")
	}

	return s.tickets.Get(ctx, id)
}

func (s *SupportService) mailAttachments(ctx context.Context, files []models.Media) ([]mailer.Attachment, error) {
	out := make([]mailer.Attachment, 0, len(files))
	for _, m := range files {
		data, err := s.read(ctx, m)
		if err != nil {
			return out, err
		}
		out = append(out, mailer.Attachment{Filename: m.OriginalName, ContentType: m.ContentType, Content: data})
	}
	return out, nil
}

func (s *SupportService) read(ctx context.Context, m models.Media) ([]byte, error) {
	rc, err := s.uploads.Open(ctx, m)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Attachments zips the requested attachment set of a ticket.
func (s *SupportService) Attachments(ctx context.Context, id string, set AttachmentSet) ([]byte, error) {
	t, err := s.tickets.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var files []models.Media
	switch set {
	case AttachmentsQuestion:
		files = t.QuestionAttachments
	case AttachmentsAnswer:
		files = t.Attachments
	case AttachmentsAll:
		files = append(append(files, t.QuestionAttachments...), t.Attachments...)
	default:
		return nil, ErrUnknownAttachmentSet
	}
	if len(files) == 0 {
		return nil, ErrNoAttachments
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := map[string]int{}
	for _, m := range files {
		data, err := s.read(ctx, m)
		if err != nil {
			return nil, err
		}
		w, err := zw.Create(entryName(m, seen))
		if err != nil {
			return nil, fmt.Errorf("zip entry: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("zip write: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip close: %w", err)
	}
	return buf.Bytes(), nil
}

// entryName keeps original names unique inside one archive.
func entryName(m models.Media, seen map[string]int) string {
	name := m.OriginalName
	if name == "" {
		name = m.Name
	}
	seen[name]++
	if n := seen[name]; n > 1 {
		return fmt.Sprintf("%d_%s", n, name)
	}
	return name
}
