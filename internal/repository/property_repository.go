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

const propertySelect = `
	SELECT p.id, p.title, p.description, p.google_map_url, p.is_featured,
	       p.monthly_price, p.charges_price, p.dossier_price, p.deposit_price, p.first_deposit_price,
	       p.created_at, p.updated_at,
	       a.id, a.city, a.postal_code, a.country, a.address_line1, a.address_line2
	FROM properties p
	JOIN addresses a ON a.id = p.address_id
`

var propertySortColumns = map[string]string{
	"createdAt":    "p.created_at",
	"updatedAt":    "p.updated_at",
	"title":        "p.title",
	"monthlyPrice": "p.monthly_price",
}

type PropertyFilter struct {
	IsFeatured *bool
	MinPrice   *float64
	MaxPrice   *float64
}

type PropertyRepository struct {
	db database.DB
}

func NewPropertyRepository(db database.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// Create stores the property with its address, characteristics and images.
func (r *PropertyRepository) Create(ctx context.Context, p models.Property) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		addressID, err := insertAddress(ctx, tx, p.Address)
		if err != nil {
			return err
		}

		const query = `
			INSERT INTO properties (
				id, title, description, google_map_url, is_featured, address_id,
				monthly_price, charges_price, dossier_price, deposit_price, first_deposit_price,
				created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()
			)
		`
		if _, err := tx.Exec(ctx, query,
			p.ID,
			p.Title,
			p.Description,
			p.GoogleMapURL,
			p.IsFeatured,
			addressID,
			p.Price.MonthlyPrice,
			p.Price.ChargesPrice,
			p.Price.DossierPrice,
			p.Price.DepositPrice,
			p.Price.FirstDepositPrice,
		); err != nil {
			return fmt.Errorf("insert property: %w", err)
		}

		if err := insertCharacteristics(ctx, tx, p.ID, p.Characteristics); err != nil {
			return err
		}
		return appendMedia(ctx, tx, models.MediaOwnerProperty, p.ID, p.Images)
	})
}

func (r *PropertyRepository) Get(ctx context.Context, id string) (models.Property, error) {
	p, err := scanProperty(r.db.QueryRow(ctx, propertySelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Property{}, ErrPropertyNotFound
		}
		return models.Property{}, err
	}
	list := []models.Property{p}
	if err := r.hydrate(ctx, list); err != nil {
		return models.Property{}, err
	}
	return list[0], nil
}

func (r *PropertyRepository) List(ctx context.Context) ([]models.Property, error) {
	return r.query(ctx, propertySelect+` ORDER BY p.created_at DESC`)
}

// Filter searches title, description and address fields.
func (r *PropertyRepository) Filter(ctx context.Context, f PropertyFilter, opts pagination.Options) ([]models.Property, int, error) {
	filter := pagination.NewFilter().
		Search(opts.Search, "p.title", "p.description", "a.address_line1", "a.city", "a.postal_code").
		Eq("p.is_featured", f.IsFeatured).
		Range("p.monthly_price", f.MinPrice, f.MaxPrice)

	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM properties p JOIN addresses a ON a.id = p.address_id `+filter.Clause(), filter.Args()...)
	if err != nil {
		return nil, 0, err
	}

	query := propertySelect + filter.Clause() + " " +
		pagination.OrderBy(opts.SortBy, opts.SortOrder, propertySortColumns, "p.created_at") + " " +
		filter.Page(opts)
	items, err := r.query(ctx, query, filter.Args()...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update rewrites the property. Characteristics are always replaced; images
// only when images is non-nil. The replaced images are returned.
func (r *PropertyRepository) Update(ctx context.Context, p models.Property, images []models.Media) ([]models.Media, error) {
	var removed []models.Media
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		var addressID string
		if err := tx.QueryRow(ctx, `SELECT address_id FROM properties WHERE id = $1 FOR UPDATE`, p.ID).Scan(&addressID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrPropertyNotFound
			}
			return fmt.Errorf("lock property: %w", err)
		}

		p.Address.ID = addressID
		if err := updateAddress(ctx, tx, p.Address); err != nil {
			return err
		}

		const query = `
			UPDATE properties
			SET title = $2, description = $3, google_map_url = $4, is_featured = $5,
			    monthly_price = $6, charges_price = $7, dossier_price = $8, deposit_price = $9,
			    first_deposit_price = $10, updated_at = NOW()
			WHERE id = $1
		`
		if _, err := tx.Exec(ctx, query,
			p.ID,
			p.Title,
			p.Description,
			p.GoogleMapURL,
			p.IsFeatured,
			p.Price.MonthlyPrice,
			p.Price.ChargesPrice,
			p.Price.DossierPrice,
			p.Price.DepositPrice,
			p.Price.FirstDepositPrice,
		); err != nil {
			return fmt.Errorf("update property: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM property_characteristics WHERE property_id = $1`, p.ID); err != nil {
			return fmt.Errorf("clear characteristics: %w", err)
		}
		if err := insertCharacteristics(ctx, tx, p.ID, p.Characteristics); err != nil {
			return err
		}

		if images != nil {
			var err error
			removed, err = replaceMedia(ctx, tx, models.MediaOwnerProperty, p.ID, images)
			return err
		}
		return nil
	})
	return removed, err
}

// Delete removes the property and returns its images.
func (r *PropertyRepository) Delete(ctx context.Context, id string) ([]models.Media, error) {
	var removed []models.Media
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		var addressID string
		if err := tx.QueryRow(ctx, `DELETE FROM properties WHERE id = $1 RETURNING address_id`, id).Scan(&addressID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrPropertyNotFound
			}
			return fmt.Errorf("delete property: %w", err)
		}
		if err := deleteAddress(ctx, tx, addressID); err != nil {
			return err
		}
		var err error
		removed, err = deleteMedia(ctx, tx, models.MediaOwnerProperty, id)
		return err
	})
	return removed, err
}

func (r *PropertyRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM properties WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *PropertyRepository) query(ctx context.Context, query string, args ...any) ([]models.Property, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	items := []models.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.hydrate(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// hydrate loads characteristics and images for items in two queries.
func (r *PropertyRepository) hydrate(ctx context.Context, items []models.Property) error {
	if len(items) == 0 {
		return nil
	}
	idList := make([]string, len(items))
	for i, p := range items {
		idList[i] = p.ID
	}

	rows, err := r.db.Query(ctx, `
		SELECT property_id, name, value FROM property_characteristics
		WHERE property_id = ANY($1) ORDER BY position`, idList)
	if err != nil {
		return fmt.Errorf("list characteristics: %w", err)
	}
	chars := map[string][]models.Characteristic{}
	for rows.Next() {
		var owner string
		var c models.Characteristic
		if err := rows.Scan(&owner, &c.Name, &c.Value); err != nil {
			rows.Close()
			return err
		}
		chars[owner] = append(chars[owner], c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	media, err := mediaByOwners(ctx, r.db, models.MediaOwnerProperty, idList)
	if err != nil {
		return err
	}

	for i := range items {
		items[i].Characteristics = nonNil(chars[items[i].ID])
		items[i].Images = nonNil(media[items[i].ID])
	}
	return nil
}

func insertCharacteristics(ctx context.Context, q database.Querier, propertyID string, chars []models.Characteristic) error {
	const query = `
		INSERT INTO property_characteristics (property_id, name, value, position)
		VALUES ($1, $2, $3, $4)
	`
	for i, c := range chars {
		if _, err := q.Exec(ctx, query, propertyID, c.Name, c.Value, i); err != nil {
			return fmt.Errorf("insert characteristic: %w", err)
		}
	}
	return nil
}

func scanProperty(row pgx.Row) (models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.GoogleMapURL,
		&p.IsFeatured,
		&p.Price.MonthlyPrice,
		&p.Price.ChargesPrice,
		&p.Price.DossierPrice,
		&p.Price.DepositPrice,
		&p.Price.FirstDepositPrice,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Address.ID,
		&p.Address.City,
		&p.Address.PostalCode,
		&p.Address.Country,
		&p.Address.AddressLine1,
		&p.Address.AddressLine2,
	)
	return p, err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
