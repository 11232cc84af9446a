package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lagimmo/api/internal/database"
	"lagimmo/api/internal/models"
)

type CredentialRepository struct {
	db database.DB
}

func NewCredentialRepository(db database.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Current(ctx context.Context, userID string) (models.Credential, error) {
	const query = `
		SELECT id, user_id, hash, is_current, created_at
		FROM credentials
		WHERE user_id = $1 AND is_current
	`
	var cred models.Credential
	if err := r.db.QueryRow(ctx, query, userID).Scan(
		&cred.ID,
		&cred.UserID,
		&cred.Hash,
		&cred.IsCurrent,
		&cred.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Credential{}, ErrCredentialNotFound
		}
		return models.Credential{}, err
	}
	return cred, nil
}

// recentCredentials returns up to limit credentials, newest first.
func recentCredentials(ctx context.Context, q database.Querier, userID string, limit int) ([]models.Credential, error) {
	const query = `
		SELECT id, user_id, hash, is_current, created_at
		FROM credentials
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creds []models.Credential
	for rows.Next() {
		var cred models.Credential
		if err := rows.Scan(&cred.ID, &cred.UserID, &cred.Hash, &cred.IsCurrent, &cred.CreatedAt); err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

// CredentialCheck vets a replacement against the newest credentials of the
// locked user. A non-nil error aborts the replacement.
type CredentialCheck func(history []models.Credential) error

// Replace makes cred the only current credential of userID. The user row is
// locked so concurrent replacements serialize, and check (when set) sees the
// newest depth credentials under that lock.
func (r *CredentialRepository) Replace(ctx context.Context, userID string, cred models.Credential, depth int, check CredentialCheck) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		if check != nil {
			history, err := recentCredentials(ctx, tx, userID, depth)
			if err != nil {
				return fmt.Errorf("load password history: %w", err)
			}
			if err := check(history); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, `UPDATE credentials SET is_current = FALSE WHERE user_id = $1 AND is_current`, userID); err != nil {
			return fmt.Errorf("supersede credential: %w", err)
		}

		const insert = `
			INSERT INTO credentials (id, user_id, hash, is_current, created_at)
			VALUES ($1, $2, $3, TRUE, clock_timestamp())
		`
		if _, err := tx.Exec(ctx, insert, cred.ID, userID, cred.Hash); err != nil {
			return fmt.Errorf("insert credential: %w", err)
		}
		return nil
	})
}
