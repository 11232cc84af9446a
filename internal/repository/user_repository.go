package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"lagimmo/api/internal/database"
	"lagimmo/api/internal/models"
)

const userColumns = `id, email, user_name, first_name, last_name, role, is_super_user, is_verified, created_at, updated_at`

type UserRepository struct {
	db database.DB
}

func NewUserRepository(db database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithCredential inserts the user and its first current credential in
// one transaction.
func (r *UserRepository) CreateWithCredential(ctx context.Context, user models.User, cred models.Credential) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		const insertUser = `
			INSERT INTO users (
				id, email, user_name, first_name, last_name, role, is_super_user, is_verified, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()
			)
		`
		if _, err := tx.Exec(ctx, insertUser,
			user.ID,
			strings.ToLower(user.Email),
			user.UserName,
			user.FirstName,
			user.LastName,
			user.Role,
			user.IsSuperUser,
			user.IsVerified,
		); err != nil {
			switch {
			case database.IsUniqueViolation(err, "users_email_key"):
				return ErrEmailTaken
			case database.IsUniqueViolation(err, "users_user_name_key"):
				return ErrUserNameTaken
			}
			return fmt.Errorf("insert user: %w", err)
		}

		const insertCredential = `
			INSERT INTO credentials (id, user_id, hash, is_current, created_at)
			VALUES ($1, $2, $3, TRUE, NOW())
		`
		if _, err := tx.Exec(ctx, insertCredential, cred.ID, user.ID, cred.Hash); err != nil {
			return fmt.Errorf("insert credential: %w", err)
		}
		return nil
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.db.QueryRow(ctx, query, strings.TrimSpace(email)))
}

// FindSuperUserByLogin matches a super-user by email or user name.
func (r *UserRepository) FindSuperUserByLogin(ctx context.Context, login string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE is_super_user AND (lower(email) = lower($1) OR user_name = $1)`
	return scanUser(r.db.QueryRow(ctx, query, strings.TrimSpace(login)))
}

func (r *UserRepository) FindByLogin(ctx context.Context, login string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) OR user_name = $1`
	return scanUser(r.db.QueryRow(ctx, query, strings.TrimSpace(login)))
}

func (r *UserRepository) UserNameExists(ctx context.Context, userName string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE user_name = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userName).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user models.User) (models.User, error) {
	query := `
		UPDATE users SET first_name = $2, last_name = $3, user_name = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	updated, err := scanUser(r.db.QueryRow(ctx, query, user.ID, user.FirstName, user.LastName, user.UserName))
	if database.IsUniqueViolation(err, "users_user_name_key") {
		return models.User{}, ErrUserNameTaken
	}
	return updated, err
}

func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	const query = `UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.UserName,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.IsSuperUser,
		&user.IsVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
