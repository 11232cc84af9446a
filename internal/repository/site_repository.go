package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"lagimmo/api/internal/database"
	"lagimmo/api/internal/ids"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/pagination"
)

type NewsletterRepository struct {
	db database.DB
}

func NewNewsletterRepository(db database.DB) *NewsletterRepository {
	return &NewsletterRepository{db: db}
}

// Subscribe is idempotent: an existing address returns its original row.
func (r *NewsletterRepository) Subscribe(ctx context.Context, email string) (models.NewsletterSubscriber, error) {
	const query = `
		INSERT INTO newsletter_subscribers (id, email, created_at) VALUES ($1, $2, NOW())
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, created_at
	`
	var s models.NewsletterSubscriber
	err := r.db.QueryRow(ctx, query, ids.New(), strings.ToLower(strings.TrimSpace(email))).Scan(&s.ID, &s.Email, &s.CreatedAt)
	if err != nil {
		return models.NewsletterSubscriber{}, fmt.Errorf("subscribe: %w", err)
	}
	return s, nil
}

func (r *NewsletterRepository) List(ctx context.Context, opts pagination.Options) ([]models.NewsletterSubscriber, int, error) {
	filter := pagination.NewFilter().Search(opts.Search, "email")
	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM newsletter_subscribers `+filter.Clause(), filter.Args()...)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT id, email, created_at FROM newsletter_subscribers ` + filter.Clause() + " " +
		pagination.OrderBy(opts.SortBy, opts.SortOrder, map[string]string{"createdAt": "created_at", "email": "email"}, "created_at") + " " +
		filter.Page(opts)
	rows, err := r.db.Query(ctx, query, filter.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	items := []models.NewsletterSubscriber{}
	for rows.Next() {
		var s models.NewsletterSubscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

type FAQRepository struct {
	db database.DB
}

func NewFAQRepository(db database.DB) *FAQRepository {
	return &FAQRepository{db: db}
}

func (r *FAQRepository) Create(ctx context.Context, question, answer string) (models.FAQ, error) {
	const query = `
		INSERT INTO faqs (id, question, answer, created_at, updated_at) VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, question, answer, created_at, updated_at
	`
	return scanFAQ(r.db.QueryRow(ctx, query, ids.New(), question, answer))
}

func (r *FAQRepository) List(ctx context.Context) ([]models.FAQ, error) {
	rows, err := r.db.Query(ctx, `SELECT id, question, answer, created_at, updated_at FROM faqs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	defer rows.Close()

	items := []models.FAQ{}
	for rows.Next() {
		f, err := scanFAQ(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

// Update changes the non-nil fields.
func (r *FAQRepository) Update(ctx context.Context, id string, question, answer *string) (models.FAQ, error) {
	const query = `
		UPDATE faqs SET question = COALESCE($2, question), answer = COALESCE($3, answer), updated_at = NOW()
		WHERE id = $1
		RETURNING id, question, answer, created_at, updated_at
	`
	f, err := scanFAQ(r.db.QueryRow(ctx, query, id, question, answer))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FAQ{}, ErrFAQNotFound
	}
	return f, err
}

func (r *FAQRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM faqs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete faq: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrFAQNotFound
	}
	return nil
}

func scanFAQ(row pgx.Row) (models.FAQ, error) {
	var f models.FAQ
	err := row.Scan(&f.ID, &f.Question, &f.Answer, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}
