package service

import (
	"context"
	"io"
	"time"

	"lagimmo/api/internal/mailer"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/pagination"
	"lagimmo/api/internal/repository"
	"lagimmo/api/internal/tokens"
)

type UserStore interface {
	CreateWithCredential(ctx context.Context, user models.User, cred models.Credential) error
	GetByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByLogin(ctx context.Context, login string) (models.User, error)
	FindSuperUserByLogin(ctx context.Context, login string) (models.User, error)
	UserNameExists(ctx context.Context, userName string) (bool, error)
	UpdateProfile(ctx context.Context, user models.User) (models.User, error)
	MarkVerified(ctx context.Context, id string) error
}

type CredentialStore interface {
	Current(ctx context.Context, userID string) (models.Credential, error)
	Replace(ctx context.Context, userID string, cred models.Credential, depth int, check repository.CredentialCheck) error
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	GetByID(ctx context.Context, id string) (models.Session, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}

type AllowList interface {
	Insert(ctx context.Context, entry tokens.Entry, ttl time.Duration) error
	Exists(ctx context.Context, l tokens.Lookup) (bool, error)
	Purge(ctx context.Context, l tokens.Lookup) (int, error)
}

type ObjectStore interface {
	Put(ctx context.Context, bucket, name string, r io.Reader, size int64, contentType string) (int64, error)
	Get(ctx context.Context, bucket, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, bucket, name string) error
	PresignedURL(ctx context.Context, bucket, name string, expiry time.Duration) (string, error)
	PublicURL(bucket, name string) string
}

type MailSender = mailer.Sender

type MediaStore interface {
	Get(ctx context.Context, id string) (models.Media, error)
	ListByOwner(ctx context.Context, owner models.MediaOwner, ownerID string) ([]models.Media, error)
	Reorder(ctx context.Context, owner models.MediaOwner, ownerID string, positions []models.MediaPosition) ([]models.Media, error)
	Remove(ctx context.Context, owner models.MediaOwner, ownerID, mediaID string) (models.Media, error)
}

type PropertyStore interface {
	Create(ctx context.Context, p models.Property) error
	Get(ctx context.Context, id string) (models.Property, error)
	List(ctx context.Context) ([]models.Property, error)
	Filter(ctx context.Context, f repository.PropertyFilter, opts pagination.Options) ([]models.Property, int, error)
	Update(ctx context.Context, p models.Property, images []models.Media) ([]models.Media, error)
	Delete(ctx context.Context, id string) ([]models.Media, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type AccompanimentStore interface {
	Create(ctx context.Context, a models.Accompaniment) (models.Accompaniment, error)
	Get(ctx context.Context, id string) (models.Accompaniment, error)
	List(ctx context.Context) ([]models.Accompaniment, error)
	Update(ctx context.Context, a models.Accompaniment, images []models.Media) ([]models.Media, error)
	Reorder(ctx context.Context, positions []models.MediaPosition) error
	Delete(ctx context.Context, id string) ([]models.Media, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type ProductStore interface {
	Create(ctx context.Context, p models.Product) error
	Get(ctx context.Context, id string) (models.Product, error)
	List(ctx context.Context, f repository.ProductFilter, opts pagination.Options) ([]models.Product, int, error)
	Update(ctx context.Context, p models.Product, images []models.Media) ([]models.Media, error)
	Delete(ctx context.Context, id string) ([]models.Media, error)
	CreateCategory(ctx context.Context, c models.Category) (models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type OrderStore interface {
	Create(ctx context.Context, o models.Order) error
	Get(ctx context.Context, id string) (models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	Filter(ctx context.Context, f repository.OrderFilter, opts pagination.Options) ([]models.Order, int, error)
	Update(ctx context.Context, o models.Order) error
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error
	MarkPaid(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type RequestStore interface {
	Create(ctx context.Context, req models.Request) error
	HasPending(ctx context.Context, targetID, email, phone string) (bool, error)
	Get(ctx context.Context, id string) (models.Request, error)
	List(ctx context.Context) ([]models.Request, error)
	Filter(ctx context.Context, f repository.RequestFilter, opts pagination.Options) ([]models.Request, int, error)
	Stats(ctx context.Context) (models.RequestStats, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error
	Delete(ctx context.Context, id string) error
}

// TargetChecker reports whether a request target exists.
type TargetChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type SupportStore interface {
	Create(ctx context.Context, t models.SupportTicket) error
	Get(ctx context.Context, id string) (models.SupportTicket, error)
	MarkSeen(ctx context.Context, id string) error
	Answer(ctx context.Context, id, answer, adminID string, files []models.Media) error
	Filter(ctx context.Context, f repository.TicketFilter, opts pagination.Options) ([]models.SupportTicket, int, error)
}

type NewsletterStore interface {
	Subscribe(ctx context.Context, email string) (models.NewsletterSubscriber, error)
	List(ctx context.Context, opts pagination.Options) ([]models.NewsletterSubscriber, int, error)
}

type FAQStore interface {
	Create(ctx context.Context, question, answer string) (models.FAQ, error)
	List(ctx context.Context) ([]models.FAQ, error)
	Update(ctx context.Context, id string, question, answer *string) (models.FAQ, error)
	Delete(ctx context.Context, id string) error
}

type ContactStore interface {
	Get(ctx context.Context) (models.Contact, error)
	Ensure(ctx context.Context) (bool, error)
	Update(ctx context.Context, c models.Contact) (models.Contact, error)
}

type AnalyticsStore interface {
	Properties(ctx context.Context) (models.PropertyAnalytics, error)
	Requests(ctx context.Context, target models.RequestTarget) (models.RequestAnalytics, error)
	Accompaniments(ctx context.Context) (models.AccompanimentAnalytics, error)
	Products(ctx context.Context) (models.ProductAnalytics, error)
	Orders(ctx context.Context) (models.OrderAnalytics, error)
	Support(ctx context.Context) (models.SupportAnalytics, error)
	Revenue(ctx context.Context) (models.RevenueAnalytics, error)
	Activity(ctx context.Context, since time.Time) (models.ActivityWindow, error)
	NewsletterSubscribers(ctx context.Context) (int, error)
}
