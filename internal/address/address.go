package address

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Address struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Label      string    `json:"label"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
}

type Input struct {
	Label      string `json:"label"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

const addressCols = `id, user_id, label, line1, line2, city, state, postal_code, country, is_default, created_at`

type Repo struct{ DB *pgxpool.Pool }

func scanAddress(row pgx.Row) (*Address, error) {
	var a Address
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Line1, &a.Line2, &a.City, &a.State,
		&a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ByID returns (nil, nil) when the address does not exist.
func (r *Repo) ByID(ctx context.Context, id string) (*Address, error) {
	a, err := scanAddress(r.DB.QueryRow(ctx, `SELECT `+addressCols+` FROM addresses WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Address, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+addressCols+` FROM addresses WHERE user_id=$1 ORDER BY is_default DESC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Create inserts an address. When the new address is the default, every
// other address of the user is unset first, inside the same transaction,
// so at most one default exists per user.
func (r *Repo) Create(ctx context.Context, userID string, in Input) (*Address, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if in.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default=false WHERE user_id=$1`, userID); err != nil {
			return nil, err
		}
	}
	id := uuid.NewString()
	if _, err := tx.Exec(ctx, `
		INSERT INTO addresses(id, user_id, label, line1, line2, city, state, postal_code, country, is_default)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		id, userID, in.Label, in.Line1, in.Line2, in.City, in.State, in.PostalCode, in.Country, in.IsDefault); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

func (r *Repo) Update(ctx context.Context, id string, in Input) (*Address, error) {
	_, err := r.DB.Exec(ctx, `
		UPDATE addresses
		SET label=$2, line1=$3, line2=$4, city=$5, state=$6, postal_code=$7, country=$8
		WHERE id=$1`,
		id, in.Label, in.Line1, in.Line2, in.City, in.State, in.PostalCode, in.Country)
	if err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM addresses WHERE id=$1`, id)
	return err
}

// SetDefault unsets the user's other defaults and marks one address, in a tx.
func (r *Repo) SetDefault(ctx context.Context, userID, id string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default=false WHERE user_id=$1`, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default=true WHERE id=$1 AND user_id=$2`, id, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
