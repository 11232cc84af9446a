package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"lagimmo/api/internal/apperr"
	"lagimmo/api/internal/ids"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/pagination"
	"lagimmo/api/internal/repository"
)

var ErrInvalidStatus = apperr.Validation("unknown status")

type ContactInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
}

func (in ContactInput) normalized() ContactInput {
	return ContactInput{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
	}
}

type RequestInput struct {
	ContactInput
	TargetID string
	Message  string
}

// RequestService handles visitor requests for one target kind.
type RequestService struct {
	requests RequestStore
	targets  TargetChecker
	notFound error
	target   models.RequestTarget
	log      zerolog.Logger
}

func NewRequestService(target models.RequestTarget, requests RequestStore, targets TargetChecker, log zerolog.Logger) *RequestService {
	notFound := repository.ErrPropertyNotFound
	if target == models.RequestTargetAccompaniment {
		notFound = repository.ErrAccompanimentNotFound
	}
	return &RequestService{
		requests: requests,
		targets:  targets,
		notFound: notFound,
		target:   target,
		log:      log.With().Str("target", string(target)).Logger(),
	}
}

// Create records a pending request. A pending request for the same target
// with the same email or phone number is a duplicate.
func (s *RequestService) Create(ctx context.Context, in RequestInput) (models.Request, error) {
	contact := in.normalized()

	ok, err := s.targets.Exists(ctx, in.TargetID)
	if err != nil {
		return models.Request{}, fmt.Errorf("lookup target: %w", err)
	}
	if !ok {
		return models.Request{}, s.notFound
	}

	dup, err := s.requests.HasPending(ctx, in.TargetID, contact.Email, contact.PhoneNumber)
	if err != nil {
		return models.Request{}, err
	}
	if dup {
		return models.Request{}, repository.ErrDuplicateRequest
	}

	req := models.Request{
		ID:          ids.New(),
		Target:      models.TargetSummary{ID: in.TargetID},
		FirstName:   contact.FirstName,
		LastName:    contact.LastName,
		Email:       contact.Email,
		PhoneNumber: contact.PhoneNumber,
		Message:     strings.TrimSpace(in.Message),
		Status:      models.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return models.Request{}, err
	}
	s.log.Info().Str("request_id", req.ID).Str("target_id", in.TargetID).Msg("request created")
	return s.requests.Get(ctx, req.ID)
}

func (s *RequestService) List(ctx context.Context) ([]models.Request, error) {
	return s.requests.List(ctx)
}

func (s *RequestService) Filter(ctx context.Context, f repository.RequestFilter, opts pagination.Options) (pagination.Page[models.Request], error) {
	if f.Status != nil && !models.RequestStatus(*f.Status).Valid() {
		return pagination.Page[models.Request]{}, ErrInvalidStatus
	}
	items, total, err := s.requests.Filter(ctx, f, opts)
	if err != nil {
		return pagination.Page[models.Request]{}, err
	}
	return pagination.NewPage(items, total, opts), nil
}

func (s *RequestService) Stats(ctx context.Context) (models.RequestStats, error) {
	return s.requests.Stats(ctx)
}

func (s *RequestService) Get(ctx context.Context, id string) (models.Request, error) {
	return s.requests.Get(ctx, id)
}

func (s *RequestService) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) (models.Request, error) {
	if !status.Valid() {
		return models.Request{}, ErrInvalidStatus
	}
	if err := s.requests.UpdateStatus(ctx, id, status); err != nil {
		return models.Request{}, err
	}
	return s.requests.Get(ctx, id)
}

func (s *RequestService) Delete(ctx context.Context, id string) error {
	return s.requests.Delete(ctx, id)
}

type OrderInput struct {
	ContactInput
	ProductID string
	Address   models.Address
}

type OrderService struct {
	orders   OrderStore
	products ProductStore
}

func NewOrderService(orders OrderStore, products ProductStore) *OrderService {
	return &OrderService{orders: orders, products: products}
}

// Create stores a DRAFT order for an existing product.
func (s *OrderService) Create(ctx context.Context, in OrderInput) (models.Order, error) {
	product, err := s.products.Get(ctx, in.ProductID)
	if err != nil {
		return models.Order{}, err
	}
	contact := in.normalized()
	o := models.Order{
		ID:          ids.New(),
		Product:     product,
		Address:     in.Address,
		FirstName:   contact.FirstName,
		LastName:    contact.LastName,
		Email:       contact.Email,
		PhoneNumber: contact.PhoneNumber,
		Status:      models.RequestStatusDraft,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return models.Order{}, err
	}
	return s.orders.Get(ctx, o.ID)
}

func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.orders.List(ctx)
}

func (s *OrderService) Filter(ctx context.Context, f repository.OrderFilter, opts pagination.Options) (pagination.Page[models.Order], error) {
	if f.Status != nil && !models.RequestStatus(*f.Status).Valid() {
		return pagination.Page[models.Order]{}, ErrInvalidStatus
	}
	items, total, err := s.orders.Filter(ctx, f, opts)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	return pagination.NewPage(items, total, opts), nil
}

func (s *OrderService) Get(ctx context.Context, id string) (models.Order, error) {
	return s.orders.Get(ctx, id)
}

func (s *OrderService) Update(ctx context.Context, id string, in OrderInput) (models.Order, error) {
	if _, err := s.products.Get(ctx, in.ProductID); err != nil {
		return models.Order{}, err
	}
	contact := in.normalized()
	o := models.Order{
		ID:          id,
		Product:     models.Product{ID: in.ProductID},
		Address:     in.Address,
		FirstName:   contact.FirstName,
		LastName:    contact.LastName,
		Email:       contact.Email,
		PhoneNumber: contact.PhoneNumber,
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return models.Order{}, err
	}
	return s.orders.Get(ctx, id)
}

func (s *OrderService) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, ErrInvalidStatus
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return models.Order{}, err
	}
	return s.orders.Get(ctx, id)
}

// MarkPaid flags the order paid and moves it to PENDING.
func (s *OrderService) MarkPaid(ctx context.Context, id string) (models.Order, error) {
	if err := s.orders.MarkPaid(ctx, id); err != nil {
		return models.Order{}, err
	}
	return s.orders.Get(ctx, id)
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	return s.orders.Delete(ctx, id)
}
