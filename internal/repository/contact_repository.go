package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lagimmo/api/internal/database"
	"lagimmo/api/internal/ids"
	"lagimmo/api/internal/models"
)

const contactSelect = `
	SELECT c.id, c.facebook, c.instagram, c.youtube, c.tiktok, c.linkedin, c.twitter, c.email,
	       c.phone_number, c.whatsapp, c.google_map_url, c.created_at, c.updated_at,
	       a.id, a.city, a.postal_code, a.country, a.address_line1, a.address_line2
	FROM contacts c
	JOIN addresses a ON a.id = c.address_id
	ORDER BY c.created_at
	LIMIT 1
`

// ContactRepository stores the site's single contact record.
type ContactRepository struct {
	db database.DB
}

func NewContactRepository(db database.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Get(ctx context.Context) (models.Contact, error) {
	c, err := getContact(ctx, r.db)
	if err != nil {
		return models.Contact{}, err
	}
	c.WhatsAppGroups, err = listGroups(ctx, r.db, c.ID)
	return c, err
}

// Ensure creates an empty contact when none exists and reports whether it did.
func (r *ContactRepository) Ensure(ctx context.Context) (bool, error) {
	created := false
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE contacts IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock contacts: %w", err)
		}
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM contacts)`).Scan(&exists); err != nil {
			return fmt.Errorf("lookup contact: %w", err)
		}
		if exists {
			return nil
		}
		addressID, err := insertAddress(ctx, tx, models.Address{})
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO contacts (id, address_id, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())`, ids.New(), addressID); err != nil {
			return fmt.Errorf("insert contact: %w", err)
		}
		created = true
		return nil
	})
	return created, err
}

// Update rewrites the contact, its address and replaces its whatsapp groups.
func (r *ContactRepository) Update(ctx context.Context, c models.Contact) (models.Contact, error) {
	var out models.Contact
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		current, err := getContact(ctx, tx)
		if err != nil {
			return err
		}

		c.Address.ID = current.Address.ID
		if err := updateAddress(ctx, tx, c.Address); err != nil {
			return err
		}

		const query = `
			UPDATE contacts
			SET facebook = $2, instagram = $3, youtube = $4, tiktok = $5, linkedin = $6, twitter = $7,
			    email = $8, phone_number = $9, whatsapp = $10, google_map_url = $11, updated_at = NOW()
			WHERE id = $1
		`
		if _, err := tx.Exec(ctx, query,
			current.ID,
			c.Facebook,
			c.Instagram,
			c.Youtube,
			c.Tiktok,
			c.Linkedin,
			c.Twitter,
			c.Email,
			c.PhoneNumber,
			c.Whatsapp,
			c.GoogleMapURL,
		); err != nil {
			return fmt.Errorf("update contact: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM whatsapp_groups WHERE contact_id = $1`, current.ID); err != nil {
			return fmt.Errorf("clear groups: %w", err)
		}
		const insertGroup = `
			INSERT INTO whatsapp_groups (id, contact_id, title, description, url, position)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		for i, g := range c.WhatsAppGroups {
			if _, err := tx.Exec(ctx, insertGroup, ids.New(), current.ID, g.Title, g.Description, g.URL, i); err != nil {
				return fmt.Errorf("insert group: %w", err)
			}
		}

		out, err = getContact(ctx, tx)
		if err != nil {
			return err
		}
		out.WhatsAppGroups, err = listGroups(ctx, tx, current.ID)
		return err
	})
	return out, err
}

func getContact(ctx context.Context, q database.Querier) (models.Contact, error) {
	var c models.Contact
	err := q.QueryRow(ctx, contactSelect).Scan(
		&c.ID,
		&c.Facebook,
		&c.Instagram,
		&c.Youtube,
		&c.Tiktok,
		&c.Linkedin,
		&c.Twitter,
		&c.Email,
		&c.PhoneNumber,
		&c.Whatsapp,
		&c.GoogleMapURL,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.Address.ID,
		&c.Address.City,
		&c.Address.PostalCode,
		&c.Address.Country,
		&c.Address.AddressLine1,
		&c.Address.AddressLine2,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Contact{}, ErrContactNotFound
	}
	return c, err
}

func listGroups(ctx context.Context, q database.Querier, contactID string) ([]models.WhatsAppGroup, error) {
	rows, err := q.Query(ctx, `SELECT id, title, description, url FROM whatsapp_groups WHERE contact_id = $1 ORDER BY position`, contactID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	out := []models.WhatsAppGroup{}
	for rows.Next() {
		var g models.WhatsAppGroup
		if err := rows.Scan(&g.ID, &g.Title, &g.Description, &g.URL); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
