package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lagimmo/api/internal/database"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/pagination"
)

const ticketSelect = `
	SELECT s.id, s.first_name, s.last_name, s.email, s.phone_number, s.company_name, s.subject, s.category,
	       s.question, s.admin_answer, s.seen_at, s.answered_at, s.created_at, s.updated_at,
	       u.id, u.email, u.user_name, u.first_name, u.last_name
	FROM support_tickets s
	LEFT JOIN users u ON u.id = s.answered_by
`

var ticketSortColumns = map[string]string{
	"createdAt":  "s.created_at",
	"updatedAt":  "s.updated_at",
	"answeredAt": "s.answered_at",
	"email":      "s.email",
}

type TicketFilter struct {
	Name         string
	Email        string
	Subjects     []string
	Categories   []string
	AnsweredByID *string
	IsSeen       *bool
	IsAnswered   *bool
}

type SupportRepository struct {
	db database.DB
}

func NewSupportRepository(db database.DB) *SupportRepository {
	return &SupportRepository{db: db}
}

func (r *SupportRepository) Create(ctx context.Context, t models.SupportTicket) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		const query = `
			INSERT INTO support_tickets (
				id, first_name, last_name, email, phone_number, company_name, subject, category, question,
				created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
			)
		`
		if _, err := tx.Exec(ctx, query,
			t.ID,
			t.FirstName,
			t.LastName,
			t.Email,
			t.PhoneNumber,
			t.CompanyName,
			t.Subject,
			t.Category,
			t.Question,
		); err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
		return appendMedia(ctx, tx, models.MediaOwnerSupportQuestion, t.ID, t.QuestionAttachments)
	})
}

func (r *SupportRepository) Get(ctx context.Context, id string) (models.SupportTicket, error) {
	t, err := scanTicket(r.db.QueryRow(ctx, ticketSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SupportTicket{}, ErrTicketNotFound
		}
		return models.SupportTicket{}, err
	}
	items := []models.SupportTicket{t}
	if err := r.attachments(ctx, items); err != nil {
		return models.SupportTicket{}, err
	}
	return items[0], nil
}

// MarkSeen stamps seen_at on the first read only.
func (r *SupportRepository) MarkSeen(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE support_tickets SET seen_at = NOW() WHERE id = $1 AND seen_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("mark ticket seen: %w", err)
	}
	return nil
}

// Answer records the admin answer once. A ticket that already has an answer
// yields ErrAlreadyAnswered.
func (r *SupportRepository) Answer(ctx context.Context, id, answer, adminID string, files []models.Media) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		const query = `
			UPDATE support_tickets
			SET admin_answer = $2, answered_by = $3, answered_at = NOW(), seen_at = COALESCE(seen_at, NOW()),
			    updated_at = NOW()
			WHERE id = $1 AND answered_at IS NULL
		`
		cmd, err := tx.Exec(ctx, query, id, answer, adminID)
		if err != nil {
			return fmt.Errorf("answer ticket: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM support_tickets WHERE id = $1)`, id).Scan(&exists); err != nil {
				return fmt.Errorf("lookup ticket: %w", err)
			}
			if !exists {
				return ErrTicketNotFound
			}
			return ErrAlreadyAnswered
		}
		return appendMedia(ctx, tx, models.MediaOwnerSupportAnswer, id, files)
	})
}

func (r *SupportRepository) Filter(ctx context.Context, f TicketFilter, opts pagination.Options) ([]models.SupportTicket, int, error) {
	filter := pagination.NewFilter().
		Search(f.Name, "s.first_name", "s.last_name", "s.company_name").
		Search(f.Email, "s.email").
		Search(opts.Search, "s.question", "s.first_name", "s.last_name", "s.email").
		In("s.subject", f.Subjects).
		In("s.category", f.Categories).
		Eq("s.answered_by", f.AnsweredByID).
		NullIf("s.seen_at", f.IsSeen).
		NullIf("s.answered_at", f.IsAnswered)

	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM support_tickets s `+filter.Clause(), filter.Args()...)
	if err != nil {
		return nil, 0, err
	}

	query := ticketSelect + filter.Clause() + " " +
		pagination.OrderBy(opts.SortBy, opts.SortOrder, ticketSortColumns, "s.created_at") + " " +
		filter.Page(opts)
	rows, err := r.db.Query(ctx, query, filter.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	items := []models.SupportTicket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachments(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *SupportRepository) attachments(ctx context.Context, items []models.SupportTicket) error {
	idList := make([]string, len(items))
	for i, t := range items {
		idList[i] = t.ID
	}
	questions, err := mediaByOwners(ctx, r.db, models.MediaOwnerSupportQuestion, idList)
	if err != nil {
		return err
	}
	answers, err := mediaByOwners(ctx, r.db, models.MediaOwnerSupportAnswer, idList)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].QuestionAttachments = nonNil(questions[items[i].ID])
		items[i].Attachments = nonNil(answers[items[i].ID])
	}
	return nil
}

func scanTicket(row pgx.Row) (models.SupportTicket, error) {
	var (
		t                                models.SupportTicket
		userID, email, name, first, last *string
	)
	err := row.Scan(
		&t.ID,
		&t.FirstName,
		&t.LastName,
		&t.Email,
		&t.PhoneNumber,
		&t.CompanyName,
		&t.Subject,
		&t.Category,
		&t.Question,
		&t.AdminAnswer,
		&t.SeenAt,
		&t.AnsweredAt,
		&t.CreatedAt,
		&t.UpdatedAt,
		&userID,
		&email,
		&name,
		&first,
		&last,
	)
	if err != nil {
		return t, err
	}
	if userID != nil {
		t.AnsweredBy = &models.User{ID: *userID, Email: *email, UserName: *name, FirstName: *first, LastName: *last}
	}
	return t, nil
}
