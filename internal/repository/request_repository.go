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

// requestSchema names the tables behind one kind of visitor request.
type requestSchema struct {
	table        string
	targetColumn string
	targetTable  string
	summary      string
	notFound     error
}

var (
	propertyRequests = requestSchema{
		table:        "property_requests",
		targetColumn: "property_id",
		targetTable:  "properties",
		summary:      "''",
		notFound:     ErrPropertyNotFound,
	}
	accompanimentRequests = requestSchema{
		table:        "accompaniment_requests",
		targetColumn: "accompaniment_id",
		targetTable:  "accompaniments",
		summary:      "t.short_description",
		notFound:     ErrAccompanimentNotFound,
	}
)

var requestSortColumns = map[string]string{
	"createdAt": "r.created_at",
	"firstName": "r.first_name",
	"lastName":  "r.last_name",
	"email":     "r.email",
	"status":    "r.status",
}

type RequestFilter struct {
	Status   *string
	TargetID *string
	Created  pagination.DateRange
}

// RequestRepository persists property or accompaniment requests.
type RequestRepository struct {
	db     database.DB
	schema requestSchema
}

func NewPropertyRequestRepository(db database.DB) *RequestRepository {
	return &RequestRepository{db: db, schema: propertyRequests}
}

func NewAccompanimentRequestRepository(db database.DB) *RequestRepository {
	return &RequestRepository{db: db, schema: accompanimentRequests}
}

func (r *RequestRepository) selectSQL() string {
	return fmt.Sprintf(`
	SELECT r.id, r.first_name, r.last_name, r.email, r.phone_number, r.message, r.status,
	       r.created_at, r.updated_at, t.id, t.title, %s
	FROM %s r
	JOIN %s t ON t.id = r.%s
`, r.schema.summary, r.schema.table, r.schema.targetTable, r.schema.targetColumn)
}

// Create inserts a request. A second pending request with the same email or
// phone for the same target is rejected with ErrDuplicateRequest.
func (r *RequestRepository) Create(ctx context.Context, req models.Request) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, %s, first_name, last_name, email, phone_number, message, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()
		)
	`, r.schema.table, r.schema.targetColumn)
	_, err := r.db.Exec(ctx, query,
		req.ID,
		req.Target.ID,
		req.FirstName,
		req.LastName,
		req.Email,
		req.PhoneNumber,
		req.Message,
		req.Status,
	)
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err, ""):
		return ErrDuplicateRequest
	case database.IsForeignKeyViolation(err):
		return r.schema.notFound
	}
	return fmt.Errorf("insert request: %w", err)
}

// HasPending reports whether the target already has a pending request from
// the same email (case-insensitive) or phone number.
func (r *RequestRepository) HasPending(ctx context.Context, targetID, email, phone string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s
			WHERE %s = $1 AND status = 'PENDING' AND (lower(email) = lower($2) OR phone_number = $3)
		)
	`, r.schema.table, r.schema.targetColumn)
	var exists bool
	if err := r.db.QueryRow(ctx, query, targetID, email, phone).Scan(&exists); err != nil {
		return false, fmt.Errorf("check pending request: %w", err)
	}
	return exists, nil
}

func (r *RequestRepository) Get(ctx context.Context, id string) (models.Request, error) {
	req, err := scanRequest(r.db.QueryRow(ctx, r.selectSQL()+` WHERE r.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Request{}, ErrRequestNotFound
	}
	return req, err
}

func (r *RequestRepository) List(ctx context.Context) ([]models.Request, error) {
	return r.query(ctx, r.selectSQL()+` ORDER BY r.created_at DESC`)
}

// Filter searches contact fields and the target's title and description.
func (r *RequestRepository) Filter(ctx context.Context, f RequestFilter, opts pagination.Options) ([]models.Request, int, error) {
	filter := r.filter(f, opts)

	countSQL := fmt.Sprintf(`SELECT COUNT(*) FROM %s r JOIN %s t ON t.id = r.%s `,
		r.schema.table, r.schema.targetTable, r.schema.targetColumn)
	total, err := count(ctx, r.db, countSQL+filter.Clause(), filter.Args()...)
	if err != nil {
		return nil, 0, err
	}

	query := r.selectSQL() + filter.Clause() + " " +
		pagination.OrderBy(opts.SortBy, opts.SortOrder, requestSortColumns, "r.created_at") + " " +
		filter.Page(opts)
	items, err := r.query(ctx, query, filter.Args()...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *RequestRepository) filter(f RequestFilter, opts pagination.Options) *pagination.Filter {
	columns := []string{"r.first_name", "r.last_name", "r.email", "r.phone_number", "t.title"}
	if r.schema.summary != "''" {
		columns = append(columns, r.schema.summary)
	}
	return pagination.NewFilter().
		Search(opts.Search, columns...).
		Eq("r.status", f.Status).
		Eq("r."+r.schema.targetColumn, f.TargetID).
		DateRange("r.created_at", f.Created)
}

func (r *RequestRepository) Stats(ctx context.Context) (models.RequestStats, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'PENDING'),
		       COUNT(*) FILTER (WHERE status = 'ACCEPTED'),
		       COUNT(*) FILTER (WHERE status = 'REJECTED'),
		       COUNT(*) FILTER (WHERE status = 'CANCELLED')
		FROM %s
	`, r.schema.table)
	var s models.RequestStats
	err := r.db.QueryRow(ctx, query).Scan(&s.Total, &s.Pending, &s.Accepted, &s.Rejected, &s.Cancelled)
	if err != nil {
		return models.RequestStats{}, fmt.Errorf("request stats: %w", err)
	}
	return s, nil
}

func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $2, updated_at = NOW() WHERE id = $1`, r.schema.table)
	cmd, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return ErrDuplicateRequest
		}
		return fmt.Errorf("update request: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.schema.table), id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepository) query(ctx context.Context, query string, args ...any) ([]models.Request, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	items := []models.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, req)
	}
	return items, rows.Err()
}

func scanRequest(row pgx.Row) (models.Request, error) {
	var req models.Request
	err := row.Scan(
		&req.ID,
		&req.FirstName,
		&req.LastName,
		&req.Email,
		&req.PhoneNumber,
		&req.Message,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.Target.ID,
		&req.Target.Title,
		&req.Target.ShortDescription,
	)
	return req, err
}
