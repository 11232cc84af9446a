package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lagimmo/api/internal/database"
	"lagimmo/api/internal/models"
)

const mediaColumns = `id, owner_type, owner_id, bucket, name, original_name, full_url, content_type, size_bytes, position, created_at`

// MediaRepository stores the ordered file sets attached to properties,
// accompaniments, products and support tickets.
type MediaRepository struct {
	db database.DB
}

func NewMediaRepository(db database.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) Get(ctx context.Context, id string) (models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE id = $1`
	m, err := scanMedia(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Media{}, ErrMediaNotFound
	}
	return m, err
}

func (r *MediaRepository) ListByOwner(ctx context.Context, owner models.MediaOwner, ownerID string) ([]models.Media, error) {
	return listMedia(ctx, r.db, owner, ownerID)
}

// Reorder assigns positions. ids in positions must be exactly the owner's set.
func (r *MediaRepository) Reorder(ctx context.Context, owner models.MediaOwner, ownerID string, positions []models.MediaPosition) ([]models.Media, error) {
	var out []models.Media
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		current, err := listMedia(ctx, tx, owner, ownerID)
		if err != nil {
			return err
		}
		if !samePositionSet(current, positions) {
			return ErrPositionsMismatch
		}
		for _, p := range positions {
			if _, err := tx.Exec(ctx, `UPDATE media SET position = $2 WHERE id = $1`, p.ID, p.Order); err != nil {
				return fmt.Errorf("update media position: %w", err)
			}
		}
		out, err = listMedia(ctx, tx, owner, ownerID)
		return err
	})
	return out, err
}

// Remove deletes one media row and closes the gap in the remaining positions.
func (r *MediaRepository) Remove(ctx context.Context, owner models.MediaOwner, ownerID, mediaID string) (models.Media, error) {
	var removed models.Media
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		query := `DELETE FROM media WHERE id = $1 AND owner_type = $2 AND owner_id = $3 RETURNING ` + mediaColumns
		m, err := scanMedia(tx.QueryRow(ctx, query, mediaID, owner, ownerID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrMediaNotFound
			}
			return fmt.Errorf("delete media: %w", err)
		}
		removed = m

		const renumber = `
			UPDATE media SET position = position - 1
			WHERE owner_type = $1 AND owner_id = $2 AND position > $3
		`
		if _, err := tx.Exec(ctx, renumber, owner, ownerID, m.Position); err != nil {
			return fmt.Errorf("renumber media: %w", err)
		}
		return nil
	})
	return removed, err
}

func samePositionSet(current []models.Media, positions []models.MediaPosition) bool {
	if len(current) != len(positions) {
		return false
	}
	want := make(map[string]bool, len(current))
	for _, m := range current {
		want[m.ID] = true
	}
	for _, p := range positions {
		if !want[p.ID] {
			return false
		}
		delete(want, p.ID)
	}
	return len(want) == 0
}

func listMedia(ctx context.Context, q database.Querier, owner models.MediaOwner, ownerID string) ([]models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE owner_type = $1 AND owner_id = $2 ORDER BY position, created_at`
	rows, err := q.Query(ctx, query, owner, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	out := []models.Media{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// mediaByOwners loads the media of many owners at once, keyed by owner id.
func mediaByOwners(ctx context.Context, q database.Querier, owner models.MediaOwner, ownerIDs []string) (map[string][]models.Media, error) {
	out := make(map[string][]models.Media, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}
	query := `SELECT ` + mediaColumns + ` FROM media WHERE owner_type = $1 AND owner_id = ANY($2) ORDER BY position, created_at`
	rows, err := q.Query(ctx, query, owner, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		out[m.OwnerID] = append(out[m.OwnerID], m)
	}
	return out, rows.Err()
}

// appendMedia inserts files after the owner's current last position.
func appendMedia(ctx context.Context, q database.Querier, owner models.MediaOwner, ownerID string, files []models.Media) error {
	if len(files) == 0 {
		return nil
	}
	var next int
	const maxPosition = `SELECT COALESCE(MAX(position) + 1, 0) FROM media WHERE owner_type = $1 AND owner_id = $2`
	if err := q.QueryRow(ctx, maxPosition, owner, ownerID).Scan(&next); err != nil {
		return fmt.Errorf("media position: %w", err)
	}

	const insert = `
		INSERT INTO media (
			id, owner_type, owner_id, bucket, name, original_name, full_url, content_type, size_bytes, position, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW()
		)
	`
	for i, m := range files {
		if _, err := q.Exec(ctx, insert,
			m.ID,
			owner,
			ownerID,
			m.Bucket,
			m.Name,
			m.OriginalName,
			m.FullURL,
			m.ContentType,
			m.SizeBytes,
			next+i,
		); err != nil {
			return fmt.Errorf("insert media: %w", err)
		}
	}
	return nil
}

// replaceMedia swaps the owner's whole set and returns the rows it dropped so
// the caller can remove their objects.
func replaceMedia(ctx context.Context, q database.Querier, owner models.MediaOwner, ownerID string, files []models.Media) ([]models.Media, error) {
	removed, err := deleteMedia(ctx, q, owner, ownerID)
	if err != nil {
		return nil, err
	}
	if err := appendMedia(ctx, q, owner, ownerID, files); err != nil {
		return nil, err
	}
	return removed, nil
}

func deleteMedia(ctx context.Context, q database.Querier, owner models.MediaOwner, ownerID string) ([]models.Media, error) {
	query := `DELETE FROM media WHERE owner_type = $1 AND owner_id = $2 RETURNING ` + mediaColumns
	rows, err := q.Query(ctx, query, owner, ownerID)
	if err != nil {
		return nil, fmt.Errorf("delete media: %w", err)
	}
	defer rows.Close()

	var removed []models.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		removed = append(removed, m)
	}
	return removed, rows.Err()
}

func scanMedia(row pgx.Row) (models.Media, error) {
	var m models.Media
	err := row.Scan(
		&m.ID,
		&m.OwnerType,
		&m.OwnerID,
		&m.Bucket,
		&m.Name,
		&m.OriginalName,
		&m.FullURL,
		&m.ContentType,
		&m.SizeBytes,
		&m.Position,
		&m.CreatedAt,
	)
	return m, err
}
