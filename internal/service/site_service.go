package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"lagimmo/api/internal/models"
	"lagimmo/api/internal/pagination"
)

type NewsletterService struct {
	subscribers NewsletterStore
}

func NewNewsletterService(subscribers NewsletterStore) *NewsletterService {
	return &NewsletterService{subscribers: subscribers}
}

func (s *NewsletterService) Subscribe(ctx context.Context, email string) (models.NewsletterSubscriber, error) {
	return s.subscribers.Subscribe(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *NewsletterService) List(ctx context.Context, opts pagination.Options) (pagination.Page[models.NewsletterSubscriber], error) {
	items, total, err := s.subscribers.List(ctx, opts)
	if err != nil {
		return pagination.Page[models.NewsletterSubscriber]{}, err
	}
	return pagination.NewPage(items, total, opts), nil
}

type FAQService struct {
	faqs FAQStore
}

func NewFAQService(faqs FAQStore) *FAQService {
	return &FAQService{faqs: faqs}
}

func (s *FAQService) Create(ctx context.Context, question, answer string) (models.FAQ, error) {
	return s.faqs.Create(ctx, strings.TrimSpace(question), strings.TrimSpace(answer))
}

func (s *FAQService) List(ctx context.Context) ([]models.FAQ, error) {
	return s.faqs.List(ctx)
}

func (s *FAQService) Update(ctx context.Context, id string, question, answer *string) (models.FAQ, error) {
	return s.faqs.Update(ctx, id, trimmed(question), trimmed(answer))
}

func (s *FAQService) Delete(ctx context.Context, id string) error {
	return s.faqs.Delete(ctx, id)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

type ContactService struct {
	contacts ContactStore
	log      zerolog.Logger
}

func NewContactService(contacts ContactStore, log zerolog.Logger) *ContactService {
	return &ContactService{contacts: contacts, log: log}
}

// Ensure creates the contact record on startup when it is missing.
func (s *ContactService) Ensure(ctx context.Context) error {
	created, err := s.contacts.Ensure(ctx)
	if err != nil {
		return err
	}
	if created {
		s.log.Info().Msg("contact record created")
	}
	return nil
}

func (s *ContactService) Get(ctx context.Context) (models.Contact, error) {
	return s.contacts.Get(ctx)
}

func (s *ContactService) Update(ctx context.Context, c models.Contact) (models.Contact, error) {
	return s.contacts.Update(ctx, c)
}
