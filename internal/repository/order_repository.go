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

const orderSelect = `
	SELECT o.id, o.first_name, o.last_name, o.email, o.phone_number, o.is_paid, o.status, o.checkout_id,
	       o.created_at, o.updated_at,
	       p.id, p.title, p.description, p.link, p.type, p.price, p.discount, p.characteristics,
	       p.is_featured, p.created_at, p.updated_at,
	       a.id, a.city, a.postal_code, a.country, a.address_line1, a.address_line2
	FROM orders o
	JOIN products p ON p.id = o.product_id
	JOIN addresses a ON a.id = o.address_id
`

var orderSortColumns = map[string]string{
	"createdAt": "o.created_at",
	"updatedAt": "o.updated_at",
	"firstName": "o.first_name",
	"lastName":  "o.last_name",
}

type OrderFilter struct {
	Status      *string
	ProductType *string
	IsPaid      *bool
	ProductID   *string
	Created     pagination.DateRange
}

type OrderRepository struct {
	db database.DB
}

func NewOrderRepository(db database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o models.Order) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		addressID, err := insertAddress(ctx, tx, o.Address)
		if err != nil {
			return err
		}
		const query = `
			INSERT INTO orders (
				id, product_id, address_id, first_name, last_name, email, phone_number, is_paid, status,
				checkout_id, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
			)
		`
		if _, err := tx.Exec(ctx, query,
			o.ID,
			o.Product.ID,
			addressID,
			o.FirstName,
			o.LastName,
			o.Email,
			o.PhoneNumber,
			o.IsPaid,
			o.Status,
			o.CheckoutID,
		); err != nil {
			if database.IsForeignKeyViolation(err) {
				return ErrProductNotFound
			}
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	})
}

func (r *OrderRepository) Get(ctx context.Context, id string) (models.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Order{}, ErrOrderNotFound
	}
	return o, err
}

func (r *OrderRepository) List(ctx context.Context) ([]models.Order, error) {
	return r.query(ctx, orderSelect+` ORDER BY o.created_at DESC`)
}

func (r *OrderRepository) Filter(ctx context.Context, f OrderFilter, opts pagination.Options) ([]models.Order, int, error) {
	filter := pagination.NewFilter().
		Search(opts.Search, "o.first_name", "o.last_name", "o.email", "o.id::text").
		Eq("o.status", f.Status).
		Eq("p.type", f.ProductType).
		Eq("o.is_paid", f.IsPaid).
		Eq("o.product_id", f.ProductID).
		DateRange("o.created_at", f.Created)

	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM orders o JOIN products p ON p.id = o.product_id `+filter.Clause(), filter.Args()...)
	if err != nil {
		return nil, 0, err
	}
	query := orderSelect + filter.Clause() + " " +
		pagination.OrderBy(opts.SortBy, opts.SortOrder, orderSortColumns, "o.created_at") + " " +
		filter.Page(opts)
	items, err := r.query(ctx, query, filter.Args()...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update rewrites the contact fields, product and address of an order.
func (r *OrderRepository) Update(ctx context.Context, o models.Order) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		var addressID string
		if err := tx.QueryRow(ctx, `SELECT address_id FROM orders WHERE id = $1 FOR UPDATE`, o.ID).Scan(&addressID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}
		o.Address.ID = addressID
		if err := updateAddress(ctx, tx, o.Address); err != nil {
			return err
		}
		const query = `
			UPDATE orders
			SET product_id = $2, first_name = $3, last_name = $4, email = $5, phone_number = $6, updated_at = NOW()
			WHERE id = $1
		`
		if _, err := tx.Exec(ctx, query, o.ID, o.Product.ID, o.FirstName, o.LastName, o.Email, o.PhoneNumber); err != nil {
			if database.IsForeignKeyViolation(err) {
				return ErrProductNotFound
			}
			return fmt.Errorf("update order: %w", err)
		}
		return nil
	})
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	return r.exec(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
}

// MarkPaid flags the order paid and moves it to PENDING.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE orders SET is_paid = TRUE, status = $2, updated_at = NOW() WHERE id = $1`, id, models.RequestStatusPending)
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		var addressID string
		if err := tx.QueryRow(ctx, `DELETE FROM orders WHERE id = $1 RETURNING address_id`, id).Scan(&addressID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("delete order: %w", err)
		}
		return deleteAddress(ctx, tx, addressID)
	})
}

func (r *OrderRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) query(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	items := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID,
		&o.FirstName,
		&o.LastName,
		&o.Email,
		&o.PhoneNumber,
		&o.IsPaid,
		&o.Status,
		&o.CheckoutID,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.Product.ID,
		&o.Product.Title,
		&o.Product.Description,
		&o.Product.Link,
		&o.Product.Type,
		&o.Product.Price,
		&o.Product.Discount,
		&o.Product.Characteristics,
		&o.Product.IsFeatured,
		&o.Product.CreatedAt,
		&o.Product.UpdatedAt,
		&o.Address.ID,
		&o.Address.City,
		&o.Address.PostalCode,
		&o.Address.Country,
		&o.Address.AddressLine1,
		&o.Address.AddressLine2,
	)
	return o, err
}
