package repository

import (
	"context"
	"fmt"
	"time"

	"lagimmo/api/internal/database"
	"lagimmo/api/internal/models"
)

// AnalyticsRepository runs the aggregate queries behind the admin overview.
// Each method is independent so callers may run them concurrently.
type AnalyticsRepository struct {
	db database.DB
}

func NewAnalyticsRepository(db database.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) Properties(ctx context.Context) (models.PropertyAnalytics, error) {
	var out models.PropertyAnalytics
	err := r.db.QueryRow(ctx, `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_featured) FROM properties`).
		Scan(&out.Total, &out.Featured)
	return out, wrap("property analytics", err)
}

// Requests aggregates property_requests or accompaniment_requests.
func (r *AnalyticsRepository) Requests(ctx context.Context, target models.RequestTarget) (models.RequestAnalytics, error) {
	table := propertyRequests.table
	if target == models.RequestTargetAccompaniment {
		table = accompanimentRequests.table
	}
	query := fmt.Sprintf(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'PENDING'),
		       COUNT(*) FILTER (WHERE status = 'ACCEPTED'),
		       COUNT(*) FILTER (WHERE status = 'REJECTED'),
		       COUNT(*) FILTER (WHERE status = 'CANCELLED'),
		       COUNT(*) FILTER (WHERE status = 'SHIPPED')
		FROM %s
	`, table)
	var out models.RequestAnalytics
	err := r.db.QueryRow(ctx, query).Scan(&out.Total, &out.Pending, &out.Accepted, &out.Rejected, &out.Cancelled, &out.Shipped)
	return out, wrap("request analytics", err)
}

func (r *AnalyticsRepository) Accompaniments(ctx context.Context) (models.AccompanimentAnalytics, error) {
	var out models.AccompanimentAnalytics
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accompaniments`).Scan(&out.Total)
	return out, wrap("accompaniment analytics", err)
}

func (r *AnalyticsRepository) Products(ctx context.Context) (models.ProductAnalytics, error) {
	const query = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE type = 'PRODUCT'),
		       COUNT(*) FILTER (WHERE type = 'BOOK'),
		       COUNT(*) FILTER (WHERE is_featured),
		       COUNT(*) FILTER (WHERE discount > 0),
		       (SELECT COUNT(*) FROM categories)
		FROM products
	`
	var out models.ProductAnalytics
	err := r.db.QueryRow(ctx, query).Scan(&out.Total, &out.Products, &out.Books, &out.Featured, &out.Discounted, &out.CategoriesCount)
	return out, wrap("product analytics", err)
}

func (r *AnalyticsRepository) Orders(ctx context.Context) (models.OrderAnalytics, error) {
	const query = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_paid),
		       COUNT(*) FILTER (WHERE NOT is_paid),
		       COUNT(*) FILTER (WHERE status = 'PENDING'),
		       COUNT(*) FILTER (WHERE status = 'SHIPPED'),
		       COUNT(*) FILTER (WHERE status = 'CANCELLED')
		FROM orders
	`
	var out models.OrderAnalytics
	err := r.db.QueryRow(ctx, query).Scan(&out.Total, &out.Paid, &out.Unpaid, &out.Pending, &out.Shipped, &out.Cancelled)
	return out, wrap("order analytics", err)
}

func (r *AnalyticsRepository) Support(ctx context.Context) (models.SupportAnalytics, error) {
	const query = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE answered_at IS NOT NULL),
		       COUNT(*) FILTER (WHERE answered_at IS NULL),
		       COUNT(*) FILTER (WHERE seen_at IS NULL)
		FROM support_tickets
	`
	var out models.SupportAnalytics
	err := r.db.QueryRow(ctx, query).Scan(&out.Total, &out.Answered, &out.Unanswered, &out.Unseen)
	return out, wrap("support analytics", err)
}

// Revenue sums the discounted price of ordered products.
func (r *AnalyticsRepository) Revenue(ctx context.Context) (models.RevenueAnalytics, error) {
	const query = `
		SELECT COALESCE(SUM(GREATEST(p.price - p.discount, 0)), 0)::float8,
		       COALESCE(SUM(GREATEST(p.price - p.discount, 0)) FILTER (WHERE o.is_paid), 0)::float8,
		       COALESCE(SUM(GREATEST(p.price - p.discount, 0)) FILTER (WHERE NOT o.is_paid), 0)::float8
		FROM orders o
		JOIN products p ON p.id = o.product_id
		WHERE o.status <> 'CANCELLED'
	`
	var out models.RevenueAnalytics
	err := r.db.QueryRow(ctx, query).Scan(&out.Total, &out.Paid, &out.Pending)
	return out, wrap("revenue analytics", err)
}

// Activity counts rows created since since.
func (r *AnalyticsRepository) Activity(ctx context.Context, since time.Time) (models.ActivityWindow, error) {
	const query = `
		SELECT (SELECT COUNT(*) FROM property_requests WHERE created_at >= $1),
		       (SELECT COUNT(*) FROM accompaniment_requests WHERE created_at >= $1),
		       (SELECT COUNT(*) FROM orders WHERE created_at >= $1),
		       (SELECT COUNT(*) FROM support_tickets WHERE created_at >= $1),
		       (SELECT COUNT(*) FROM newsletter_subscribers WHERE created_at >= $1)
	`
	var out models.ActivityWindow
	err := r.db.QueryRow(ctx, query, since).Scan(
		&out.PropertyRequests,
		&out.AccompanimentRequests,
		&out.Orders,
		&out.SupportTickets,
		&out.NewsletterSignups,
	)
	return out, wrap("activity analytics", err)
}

func (r *AnalyticsRepository) NewsletterSubscribers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM newsletter_subscribers`).Scan(&n)
	return n, wrap("newsletter analytics", err)
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}
