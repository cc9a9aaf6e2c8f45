package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hperdana/go-commerce/internal/apperr"
)

const productCols = `id, sku, slug, name, description, category_id, price, stock, is_active, created_at, updated_at`

type Repo struct{ DB *pgxpool.Pool }

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Slug, &p.Name, &p.Description, &p.CategoryID,
		&p.Price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductByID returns (nil, nil) when the product does not exist.
func (r *Repo) ProductByID(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// ProductsByIDs returns the found products keyed by id; absent ids are
// simply missing from the map.
func (r *Repo) ProductsByIDs(ctx context.Context, ids []string) (map[string]Product, error) {
	out := make(map[string]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT `+productCols+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = *p
	}
	return out, rows.Err()
}

func (r *Repo) List(ctx context.Context, f Filter, page, limit int) ([]Product, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	where, args := f.where()

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	q := `SELECT ` + productCols + ` FROM products` + where + f.orderBy() +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *Repo) Categories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	id := uuid.NewString()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, sku, slug, name, description, category_id, price, stock, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		id, in.SKU, in.Slug, in.Name, in.Description, in.CategoryID, in.Price, in.Stock, in.IsActive)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return r.ProductByID(ctx, id)
}

func (r *Repo) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET sku=$2, slug=$3, name=$4, description=$5, category_id=$6, price=$7, is_active=$8, updated_at=now()
		WHERE id=$1`,
		id, in.SKU, in.Slug, in.Name, in.Description, in.CategoryID, in.Price, in.IsActive)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	if ct.RowsAffected() == 0 {
		return nil, apperr.NotFound("product not found")
	}
	return r.ProductByID(ctx, id)
}

// AdjustStock applies a delta to a product's stock; the guard in the WHERE
// clause keeps stock from going below zero.
func (r *Repo) AdjustStock(ctx context.Context, id string, delta int) (*Product, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id=$1 AND stock + $2 >= 0`, id, delta)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		p, err := r.ProductByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.BadRequest(apperr.CodeInsufficientStock,
			fmt.Sprintf("stock cannot go below zero (current %d)", p.Stock))
	}
	return r.ProductByID(ctx, id)
}

// mapUniqueViolation turns duplicate slug/sku inserts into business errors.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "slug"):
			return apperr.Conflict(apperr.CodeSlugExists, "a product with this slug already exists")
		case strings.Contains(pgErr.ConstraintName, "sku"):
			return apperr.Conflict(apperr.CodeSkuExists, "a product with this SKU already exists")
		}
	}
	return err
}
