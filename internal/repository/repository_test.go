package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lagimmo/api/internal/models"
	"lagimmo/api/internal/pagination"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestCredentialReplaceSupersedesCurrent(t *testing.T) {
	mock := newMock(t)
	repo := NewCredentialRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM users WHERE id = $1 FOR UPDATE`)).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("u1"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE credentials SET is_current = FALSE WHERE user_id = $1 AND is_current`)).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO credentials`).
		WithArgs("c2", "u1", "hash").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.Replace(context.Background(), "u1", models.Credential{ID: "c2", Hash: "hash"}, 10, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialReplaceChecksHistoryUnderLock(t *testing.T) {
	mock := newMock(t)
	repo := NewCredentialRepository(mock)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM users WHERE id = $1 FOR UPDATE`)).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("u1"))
	mock.ExpectQuery(`SELECT id, user_id, hash, is_current, created_at\s+FROM credentials\s+WHERE user_id = \$1\s+ORDER BY created_at DESC`).
		WithArgs("u1", 3).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "hash", "is_current", "created_at"}).
			AddRow("c1", "u1", "old-hash", true, created))
	mock.ExpectRollback()

	rejected := errors.New("rejected")
	var seen []models.Credential
	err := repo.Replace(context.Background(), "u1", models.Credential{ID: "c2", Hash: "hash"}, 3,
		func(history []models.Credential) error {
			seen = history
			return rejected
		})
	assert.ErrorIs(t, err, rejected)
	require.Len(t, seen, 1)
	assert.Equal(t, "old-hash", seen[0].Hash)
	assert.True(t, seen[0].IsCurrent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialReplaceUnknownUser(t *testing.T) {
	mock := newMock(t)
	repo := NewCredentialRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users`).WithArgs("ghost").WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Replace(context.Background(), "ghost", models.Credential{ID: "c1", Hash: "hash"}, 10, func([]models.Credential) error {
		t.Fatal("check must not run for an unknown user")
		return nil
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestFilterComposesSearchAndStatus(t *testing.T) {
	mock := newMock(t)
	repo := NewPropertyRequestRepository(mock)
	status := "PENDING"
	opts := pagination.Options{Page: 1, Limit: 10, Search: "Alice", SortOrder: pagination.SortDesc}
	where := regexp.QuoteMeta(`WHERE (r.first_name ILIKE $1 OR r.last_name ILIKE $1 OR r.email ILIKE $1 OR r.phone_number ILIKE $1 OR t.title ILIKE $1) AND r.status = $2`)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM property_requests r JOIN properties t .*` + where).
		WithArgs("%Alice%", "PENDING").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	now := time.Now()
	rows := pgxmock.NewRows([]string{
		"id", "first_name", "last_name", "email", "phone_number", "message", "status",
		"created_at", "updated_at", "target_id", "title", "summary",
	}).AddRow("r1", "Alice", "Martin", "alice@example.com", "0600000000", "", models.RequestStatusPending,
		now, now, "p1", "Loft", "")
	mock.ExpectQuery(where + `.*` + regexp.QuoteMeta(`ORDER BY r.created_at DESC LIMIT $3 OFFSET $4`)).
		WithArgs("%Alice%", "PENDING", 10, 0).
		WillReturnRows(rows)

	items, total, err := repo.Filter(context.Background(), RequestFilter{Status: &status}, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Alice", items[0].FirstName)
	assert.Equal(t, models.RequestStatusPending, items[0].Status)
	assert.Equal(t, "Loft", items[0].Target.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestCreateDuplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewAccompanimentRequestRepository(mock)

	mock.ExpectExec(`INSERT INTO accompaniment_requests`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accompaniment_requests_pending_email"})

	err := repo.Create(context.Background(), models.Request{
		ID:     "r1",
		Target: models.TargetSummary{ID: "a1"},
		Email:  "bob@example.com",
		Status: models.RequestStatusPending,
	})
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestRequestCreateUnknownTarget(t *testing.T) {
	mock := newMock(t)
	repo := NewPropertyRequestRepository(mock)

	mock.ExpectExec(`INSERT INTO property_requests`).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.Create(context.Background(), models.Request{ID: "r1", Target: models.TargetSummary{ID: "p404"}})
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestMediaReorderRejectsForeignIDs(t *testing.T) {
	mock := newMock(t)
	repo := NewMediaRepository(mock)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM media WHERE owner_type = \$1 AND owner_id = \$2`).
		WithArgs(models.MediaOwnerProperty, "p1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "owner_type", "owner_id", "bucket", "name", "original_name", "full_url",
			"content_type", "size_bytes", "position", "created_at",
		}).
			AddRow("m1", models.MediaOwnerProperty, "p1", "properties", "a.jpg", "a.jpg", "http://x/a.jpg", "image/jpeg", int64(10), 0, now).
			AddRow("m2", models.MediaOwnerProperty, "p1", "properties", "b.jpg", "b.jpg", "http://x/b.jpg", "image/jpeg", int64(10), 1, now))
	mock.ExpectRollback()

	_, err := repo.Reorder(context.Background(), models.MediaOwnerProperty, "p1", []models.MediaPosition{
		{ID: "m1", Order: 1},
		{ID: "m3", Order: 0},
	})
	assert.ErrorIs(t, err, ErrPositionsMismatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupportAnswerOnlyOnce(t *testing.T) {
	mock := newMock(t)
	repo := NewSupportRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE support_tickets`).
		WithArgs("t1", "merci", "admin").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("t1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.Answer(context.Background(), "t1", "merci", "admin", nil)
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsletterSubscribeNormalizesEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewNewsletterRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO newsletter_subscribers .* ON CONFLICT \(email\)`).
		WithArgs(pgxmock.AnyArg(), "jane@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "created_at"}).AddRow("n1", "jane@example.com", now))

	sub, err := repo.Subscribe(context.Background(), "  Jane@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "n1", sub.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
