package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/vending-console/internal/domain/catalog"
)

const (
	listCategoriesSQL = `SELECT key, name FROM categories ORDER BY position, key`

	itemColumns = `id, category_key, name, price, original_price, on_sale, currency, tax_enabled, tax_rate`

	listItemsSQL = `SELECT ` + itemColumns + ` FROM catalog_items ORDER BY position, id`

	updateItemSQL = `UPDATE catalog_items SET
		price          = COALESCE($2, price),
		original_price = COALESCE($3, original_price),
		on_sale        = COALESCE($4, on_sale),
		currency       = COALESCE($5, currency),
		tax_enabled    = COALESCE($6, tax_enabled),
		tax_rate       = COALESCE($7, tax_rate),
		updated_at     = now()
		WHERE id = $1
		RETURNING ` + itemColumns

	upsertCategorySQL = `INSERT INTO categories (key, name, position) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET name = EXCLUDED.name, position = EXCLUDED.position`

	upsertItemSQL = `INSERT INTO catalog_items
		(id, category_key, name, price, original_price, on_sale, currency, tax_enabled, tax_rate, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			category_key = EXCLUDED.category_key, name = EXCLUDED.name,
			price = EXCLUDED.price, original_price = EXCLUDED.original_price,
			on_sale = EXCLUDED.on_sale, currency = EXCLUDED.currency,
			tax_enabled = EXCLUDED.tax_enabled, tax_rate = EXCLUDED.tax_rate,
			position = EXCLUDED.position, updated_at = now()`

	// checkViolation is the SQLSTATE for a failed CHECK constraint.
	checkViolation = "23514"
)

var _ catalog.Store = (*CatalogStore)(nil)

// CatalogStore implements catalog.Store backed by PostgreSQL.
type CatalogStore struct {
	pool *pgxpool.Pool
}

// NewCatalogStore returns a CatalogStore that uses the given pool.
func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

// ReadAll returns every category with its items in menu order.
func (s *CatalogStore) ReadAll(ctx context.Context) (*catalog.Catalog, error) {
	rows, err := s.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.Key, &c.Name)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	rows, err = s.pool.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	pos := make(map[string]int, len(categories))
	for i, c := range categories {
		pos[c.Key] = i
	}
	for _, it := range items {
		i, ok := pos[it.CategoryKey]
		if !ok {
			continue
		}
		categories[i].Items = append(categories[i].Items, it)
	}

	return &catalog.Catalog{Categories: categories}, nil
}

// UpdateItem writes the non-nil patch fields of a single item. A patch that
// breaks the price constraints is reported as catalog.ErrInvalidPatch.
func (s *CatalogStore) UpdateItem(ctx context.Context, id catalog.ItemID, p catalog.Patch) (*catalog.Item, error) {
	rows, err := s.pool.Query(ctx, updateItemSQL,
		int64(id), p.Price, p.OriginalPrice, p.OnSale, p.Currency, p.TaxEnabled, p.TaxRate,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item %d: %w", id, err)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item %d: %w", id, catalog.ErrItemNotFound)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == checkViolation {
			return nil, fmt.Errorf("item %d: %w: %s", id, catalog.ErrInvalidPatch, pgErr.ConstraintName)
		}
		return nil, fmt.Errorf("updating item %d: %w", id, err)
	}
	return &it, nil
}

// Upsert writes the whole catalog in one transaction. Existing rows with
// the same keys are overwritten; other rows are left alone.
func (s *CatalogStore) Upsert(ctx context.Context, c *catalog.Catalog) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validating catalog: %w", err)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for ci, cat := range c.Categories {
			if _, err := tx.Exec(ctx, upsertCategorySQL, cat.Key, cat.Name, ci); err != nil {
				return fmt.Errorf("upserting category %q: %w", cat.Key, err)
			}
			for ii, it := range cat.Items {
				_, err := tx.Exec(ctx, upsertItemSQL,
					int64(it.ID), cat.Key, it.Name, it.Price, it.OriginalPrice,
					it.OnSale, it.Currency, it.TaxEnabled, it.TaxRate, ii,
				)
				if err != nil {
					return fmt.Errorf("upserting item %d: %w", it.ID, err)
				}
			}
		}
		return nil
	})
}

func scanItem(row pgx.CollectableRow) (catalog.Item, error) {
	var (
		it catalog.Item
		id int64
	)
	err := row.Scan(
		&id, &it.CategoryKey, &it.Name, &it.Price, &it.OriginalPrice,
		&it.OnSale, &it.Currency, &it.TaxEnabled, &it.TaxRate,
	)
	it.ID = catalog.ItemID(id)
	return it, err
}
