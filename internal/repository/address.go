package repository

import (
	"context"
	"fmt"

	"lagimmo/api/internal/database"
	"lagimmo/api/internal/ids"
	"lagimmo/api/internal/models"
)

func insertAddress(ctx context.Context, q database.Querier, a models.Address) (string, error) {
	id := a.ID
	if id == "" {
		id = ids.New()
	}
	const query = `
		INSERT INTO addresses (id, city, postal_code, country, address_line1, address_line2, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	if _, err := q.Exec(ctx, query, id, a.City, a.PostalCode, a.Country, a.AddressLine1, a.AddressLine2); err != nil {
		return "", fmt.Errorf("insert address: %w", err)
	}
	return id, nil
}

func updateAddress(ctx context.Context, q database.Querier, a models.Address) error {
	const query = `
		UPDATE addresses
		SET city = $2, postal_code = $3, country = $4, address_line1 = $5, address_line2 = $6, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := q.Exec(ctx, query, a.ID, a.City, a.PostalCode, a.Country, a.AddressLine1, a.AddressLine2); err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	return nil
}

func deleteAddress(ctx context.Context, q database.Querier, id string) error {
	if _, err := q.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	return nil
}

// count runs a COUNT(*) query built from a filter clause.
func count(ctx context.Context, q database.Querier, query string, args ...any) (int, error) {
	var n int
	if err := q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
