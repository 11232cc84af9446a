package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lagimmo/api/internal/database"
	"lagimmo/api/internal/models"
)

const accompanimentColumns = `id, title, description, short_description, position, price, characteristics, created_at, updated_at`

type AccompanimentRepository struct {
	db database.DB
}

func NewAccompanimentRepository(db database.DB) *AccompanimentRepository {
	return &AccompanimentRepository{db: db}
}

// Create appends the accompaniment after the last position.
func (r *AccompanimentRepository) Create(ctx context.Context, a models.Accompaniment) (models.Accompaniment, error) {
	var created models.Accompaniment
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		query := `
			INSERT INTO accompaniments (
				id, title, description, short_description, position, price, characteristics, created_at, updated_at
			)
			SELECT $1, $2, $3, $4, COALESCE(MAX(position), 0) + 1, $5, $6, NOW(), NOW()
			FROM accompaniments
			RETURNING ` + accompanimentColumns
		var err error
		created, err = scanAccompaniment(tx.QueryRow(ctx, query,
			a.ID,
			a.Title,
			a.Description,
			a.ShortDescription,
			a.Price,
			nonNil(a.Characteristics),
		))
		if err != nil {
			return fmt.Errorf("insert accompaniment: %w", err)
		}
		if err := appendMedia(ctx, tx, models.MediaOwnerAccompaniment, a.ID, a.Images); err != nil {
			return err
		}
		created.Images, err = listMedia(ctx, tx, models.MediaOwnerAccompaniment, a.ID)
		return err
	})
	return created, err
}

func (r *AccompanimentRepository) Get(ctx context.Context, id string) (models.Accompaniment, error) {
	a, err := scanAccompaniment(r.db.QueryRow(ctx, `SELECT `+accompanimentColumns+` FROM accompaniments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Accompaniment{}, ErrAccompanimentNotFound
		}
		return models.Accompaniment{}, err
	}
	a.Images, err = listMedia(ctx, r.db, models.MediaOwnerAccompaniment, id)
	return a, err
}

func (r *AccompanimentRepository) List(ctx context.Context) ([]models.Accompaniment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accompanimentColumns+` FROM accompaniments ORDER BY position, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list accompaniments: %w", err)
	}
	defer rows.Close()

	items := []models.Accompaniment{}
	idList := []string{}
	for rows.Next() {
		a, err := scanAccompaniment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
		idList = append(idList, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	media, err := mediaByOwners(ctx, r.db, models.MediaOwnerAccompaniment, idList)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Images = nonNil(media[items[i].ID])
	}
	return items, nil
}

// Update rewrites the accompaniment; images are replaced when non-nil.
func (r *AccompanimentRepository) Update(ctx context.Context, a models.Accompaniment, images []models.Media) ([]models.Media, error) {
	var removed []models.Media
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		const query = `
			UPDATE accompaniments
			SET title = $2, description = $3, short_description = $4, price = $5,
			    characteristics = $6, updated_at = NOW()
			WHERE id = $1
		`
		cmd, err := tx.Exec(ctx, query, a.ID, a.Title, a.Description, a.ShortDescription, a.Price, nonNil(a.Characteristics))
		if err != nil {
			return fmt.Errorf("update accompaniment: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return ErrAccompanimentNotFound
		}
		if images != nil {
			removed, err = replaceMedia(ctx, tx, models.MediaOwnerAccompaniment, a.ID, images)
		}
		return err
	})
	return removed, err
}

// Reorder sets each accompaniment's position. Every id must exist.
func (r *AccompanimentRepository) Reorder(ctx context.Context, positions []models.MediaPosition) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		for _, p := range positions {
			cmd, err := tx.Exec(ctx, `UPDATE accompaniments SET position = $2, updated_at = NOW() WHERE id = $1`, p.ID, p.Order)
			if err != nil {
				return fmt.Errorf("update position: %w", err)
			}
			if cmd.RowsAffected() == 0 {
				return ErrAccompanimentNotFound
			}
		}
		return nil
	})
}

func (r *AccompanimentRepository) Delete(ctx context.Context, id string) ([]models.Media, error) {
	var removed []models.Media
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM accompaniments WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete accompaniment: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return ErrAccompanimentNotFound
		}
		removed, err = deleteMedia(ctx, tx, models.MediaOwnerAccompaniment, id)
		return err
	})
	return removed, err
}

func (r *AccompanimentRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accompaniments WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func scanAccompaniment(row pgx.Row) (models.Accompaniment, error) {
	var a models.Accompaniment
	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.ShortDescription,
		&a.Order,
		&a.Price,
		&a.Characteristics,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}
