package reviews

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hperdana/go-commerce/internal/apperr"
)

type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type Repo struct{ DB *pgxpool.Pool }

// HasDeliveredPurchase reports whether the user has a delivered order
// containing the product. Reviews are gated on this.
func (r *Repo) HasDeliveredPurchase(ctx context.Context, userID, productID string) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id = $1 AND oi.product_id = $2 AND o.status = 'delivered'
		)`, userID, productID).Scan(&ok)
	return ok, err
}

func (r *Repo) Exists(ctx context.Context, userID, productID string) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE user_id=$1 AND product_id=$2)`,
		userID, productID).Scan(&ok)
	return ok, err
}

func (r *Repo) Insert(ctx context.Context, rv *Review) error {
	rv.ID = uuid.NewString()
	err := r.DB.QueryRow(ctx, `
		INSERT INTO reviews(id, user_id, product_id, rating, comment)
		VALUES ($1,$2,$3,$4,$5) RETURNING created_at`,
		rv.ID, rv.UserID, rv.ProductID, rv.Rating, rv.Comment).Scan(&rv.CreatedAt)
	return mapDuplicateReview(err)
}

// mapDuplicateReview covers the race the Exists pre-check cannot: two
// concurrent inserts for the same (user, product) pair both pass the check,
// and the unique constraint rejects the loser.
func mapDuplicateReview(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Conflict(apperr.CodeReviewExists, "you already reviewed this product")
	}
	return err
}

// ListByProduct returns one page of reviews, newest first, along with the
// total count and the product's average rating.
func (r *Repo) ListByProduct(ctx context.Context, productID string, page, limit int) ([]Review, int, float64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int
	var avg float64
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE product_id=$1`,
		productID).Scan(&total, &avg)
	if err != nil {
		return nil, 0, 0, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id, product_id, rating, comment, created_at
		FROM reviews WHERE product_id=$1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		productID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, 0, 0, err
		}
		out = append(out, rv)
	}
	return out, total, avg, rows.Err()
}
