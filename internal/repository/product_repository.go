package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"lagimmo/api/internal/database"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/pagination"
)

const productSelect = `
	SELECT p.id, p.title, p.description, p.link, p.type, p.price, p.discount, p.characteristics,
	       p.is_featured, p.created_at, p.updated_at, c.id, c.name, c.created_at
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
`

var productSortColumns = map[string]string{
	"createdAt": "p.created_at",
	"updatedAt": "p.updated_at",
	"title":     "p.title",
	"price":     "p.price",
}

type ProductFilter struct {
	Type           models.ProductType
	CategoryID     *string
	IsFeatured     *bool
	Characteristic *string
	MinPrice       *float64
	MaxPrice       *float64
	HasDiscount    *bool
}

type ProductRepository struct {
	db database.DB
}

func NewProductRepository(db database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, p models.Product) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		const query = `
			INSERT INTO products (
				id, title, description, link, type, price, discount, characteristics, is_featured, category_id,
				created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
			)
		`
		if _, err := tx.Exec(ctx, query,
			p.ID,
			p.Title,
			p.Description,
			p.Link,
			p.Type,
			p.Price,
			p.Discount,
			nonNil(p.Characteristics),
			p.IsFeatured,
			categoryID(p.Category),
		); err != nil {
			if database.IsForeignKeyViolation(err) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("insert product: %w", err)
		}
		return appendMedia(ctx, tx, models.MediaOwnerProduct, p.ID, p.Images)
	})
}

func (r *ProductRepository) Get(ctx context.Context, id string) (models.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, ErrProductNotFound
		}
		return models.Product{}, err
	}
	p.Images, err = listMedia(ctx, r.db, models.MediaOwnerProduct, id)
	return p, err
}

// List returns one page of products of a type.
func (r *ProductRepository) List(ctx context.Context, f ProductFilter, opts pagination.Options) ([]models.Product, int, error) {
	filter := pagination.NewFilter().
		Eq("p.type", string(f.Type)).
		Search(opts.Search, "p.title", "p.description").
		Eq("p.category_id", f.CategoryID).
		Eq("p.is_featured", f.IsFeatured).
		Range("p.price", f.MinPrice, f.MaxPrice)
	if f.Characteristic != nil && strings.TrimSpace(*f.Characteristic) != "" {
		filter.Where("? = ANY(p.characteristics)", strings.TrimSpace(*f.Characteristic))
	}
	if f.HasDiscount != nil {
		if *f.HasDiscount {
			filter.Where("p.discount > 0")
		} else {
			filter.Where("p.discount = 0")
		}
	}

	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM products p `+filter.Clause(), filter.Args()...)
	if err != nil {
		return nil, 0, err
	}

	query := productSelect + filter.Clause() + " " +
		pagination.OrderBy(opts.SortBy, opts.SortOrder, productSortColumns, "p.created_at") + " " +
		filter.Page(opts)
	rows, err := r.db.Query(ctx, query, filter.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := []models.Product{}
	idList := []string{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
		idList = append(idList, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	media, err := mediaByOwners(ctx, r.db, models.MediaOwnerProduct, idList)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].Images = nonNil(media[items[i].ID])
	}
	return items, total, nil
}

// Update rewrites the product; images are replaced when non-nil.
func (r *ProductRepository) Update(ctx context.Context, p models.Product, images []models.Media) ([]models.Media, error) {
	var removed []models.Media
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		const query = `
			UPDATE products
			SET title = $2, description = $3, link = $4, type = $5, price = $6, discount = $7,
			    characteristics = $8, is_featured = $9, category_id = $10, updated_at = NOW()
			WHERE id = $1
		`
		cmd, err := tx.Exec(ctx, query,
			p.ID,
			p.Title,
			p.Description,
			p.Link,
			p.Type,
			p.Price,
			p.Discount,
			nonNil(p.Characteristics),
			p.IsFeatured,
			categoryID(p.Category),
		)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("update product: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return ErrProductNotFound
		}
		if images != nil {
			removed, err = replaceMedia(ctx, tx, models.MediaOwnerProduct, p.ID, images)
		}
		return err
	})
	return removed, err
}

func (r *ProductRepository) Delete(ctx context.Context, id string) ([]models.Media, error) {
	var removed []models.Media
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Querier) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return ErrProductNotFound
		}
		removed, err = deleteMedia(ctx, tx, models.MediaOwnerProduct, id)
		return err
	})
	return removed, err
}

// CreateCategory stores name upper-cased; names are unique.
func (r *ProductRepository) CreateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	const query = `
		INSERT INTO categories (id, name, created_at) VALUES ($1, $2, NOW())
		RETURNING id, name, created_at
	`
	var out models.Category
	err := r.db.QueryRow(ctx, query, c.ID, strings.ToUpper(strings.TrimSpace(c.Name))).Scan(&out.ID, &out.Name, &out.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "categories_name_key") {
			return models.Category{}, ErrCategoryExists
		}
		return models.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return out, nil
}

func (r *ProductRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ProductRepository) DeleteCategory(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func categoryID(c *models.Category) *string {
	if c == nil || c.ID == "" {
		return nil
	}
	return &c.ID
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var (
		p          models.Product
		catID      *string
		catName    *string
		catCreated *time.Time
	)
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Link,
		&p.Type,
		&p.Price,
		&p.Discount,
		&p.Characteristics,
		&p.IsFeatured,
		&p.CreatedAt,
		&p.UpdatedAt,
		&catID,
		&catName,
		&catCreated,
	)
	if err != nil {
		return p, err
	}
	if catID != nil {
		p.Category = &models.Category{ID: *catID, Name: *catName, CreatedAt: *catCreated}
	}
	return p, nil
}
