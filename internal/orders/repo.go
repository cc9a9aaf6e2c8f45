package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hperdana/go-commerce/internal/apperr"
)

type Repo struct{ DB *pgxpool.Pool }

const orderCols = `id, order_number, user_id, status, subtotal, tax, shipping, total, shipping_address_id, created_at, updated_at`

// CreateTx persists a new order atomically: each item's stock and active
// flag is re-checked under a row lock (defends against the race between
// cart validation and commit), the order and its item snapshots are
// inserted, and stock is decremented. Any failed check rolls back the lot.
func (r *Repo) CreateTx(ctx context.Context, o *Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, it := range o.Items {
		var stock int
		var active bool
		err := tx.QueryRow(ctx,
			`SELECT stock, is_active FROM products WHERE id=$1 FOR UPDATE`, it.ProductID).
			Scan(&stock, &active)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.BadRequest(apperr.CodeProductUnavailable,
				fmt.Sprintf("%s is no longer available", it.Name))
		}
		if err != nil {
			return err
		}
		if !active {
			return apperr.BadRequest(apperr.CodeProductUnavailable,
				fmt.Sprintf("%s is no longer available", it.Name))
		}
		if stock < it.Quantity {
			return apperr.BadRequest(apperr.CodeInsufficientStock,
				fmt.Sprintf("Only %d items available in stock", stock))
		}
		if _, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id=$1`,
			it.ProductID, it.Quantity); err != nil {
			return err
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, order_number, user_id, status, subtotal, tax, shipping, total, shipping_address_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		o.ID, o.OrderNumber, o.UserID, o.Status, o.Subtotal, o.Tax, o.Shipping, o.Total, o.ShippingAddressID).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, name, quantity, price, total)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			o.ID, it.ProductID, it.Name, it.Quantity, it.Price, it.Total); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Get returns (nil, nil) when the order does not exist.
func (r *Repo) Get(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.Subtotal, &o.Tax, &o.Shipping,
			&o.Total, &o.ShippingAddressID, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	items, err := r.itemsFor(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return &o, nil
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	where := ""
	var args []any
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = fmt.Sprintf(" WHERE user_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		if where == "" {
			where = fmt.Sprintf(" WHERE status = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND status = $%d", len(args))
		}
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.Query(ctx, `SELECT `+orderCols+` FROM orders`+where+
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	var ids []string
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.Subtotal, &o.Tax,
			&o.Shipping, &o.Total, &o.ShippingAddressID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, total, nil
}

func (r *Repo) itemsFor(ctx context.Context, orderIDs []string) (map[string][]OrderItem, error) {
	out := make(map[string][]OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx, `
		SELECT order_id, product_id, name, quantity, price, total
		FROM order_items WHERE order_id = ANY($1) ORDER BY product_id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID string
		var it OrderItem
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Quantity, &it.Price, &it.Total); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}

// UpdateStatusTx moves an order along the state machine under a row lock.
func (r *Repo) UpdateStatusTx(ctx context.Context, id string, to Status) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var from Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, id).Scan(&from)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	if !CanTransition(from, to) {
		return nil, apperr.BadRequest(apperr.CodeInvalidStatusTransition,
			fmt.Sprintf("cannot transition order from %s to %s", from, to))
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, id, to); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// CancelTx is the compensating path: it re-checks the terminal-state guards
// under a row lock, restores every item's stock and marks the order
// cancelled, all in one transaction.
func (r *Repo) CancelTx(ctx context.Context, id string) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	switch status {
	case StatusCancelled:
		return nil, apperr.Conflict(apperr.CodeAlreadyCancelled, "Order is already cancelled")
	case StatusDelivered:
		return nil, apperr.Conflict(apperr.CodeCannotCancelDelivered, "Delivered orders cannot be cancelled")
	}

	rows, err := tx.Query(ctx, `SELECT product_id, quantity FROM order_items WHERE order_id=$1`, id)
	if err != nil {
		return nil, err
	}
	type line struct {
		productID string
		qty       int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.qty); err != nil {
			rows.Close()
			return nil, err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, l := range lines {
		if _, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id=$1`,
			l.productID, l.qty); err != nil {
			return nil, err
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`,
		id, StatusCancelled); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}
