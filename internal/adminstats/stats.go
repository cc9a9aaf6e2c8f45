// Package adminstats gathers the admin dashboard numbers. The queries are
// independent reads, so they fan out concurrently.
package adminstats

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const lowStockThreshold = 5

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type TopProduct struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Sold      int    `json:"sold"`
}

type LowStockProduct struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
}

type Overview struct {
	TotalOrders    int               `json:"total_orders"`
	Revenue        decimal.Decimal   `json:"revenue"`
	OrdersByStatus []StatusCount     `json:"orders_by_status"`
	TopProducts    []TopProduct      `json:"top_products"`
	LowStock       []LowStockProduct `json:"low_stock"`
	TotalUsers     int               `json:"total_users"`
}

type Service struct{ DB *pgxpool.Pool }

func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var ov Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.DB.QueryRow(ctx, `
			SELECT COUNT(*), COALESCE(SUM(total), 0)
			FROM orders WHERE status <> 'cancelled'`).
			Scan(&ov.TotalOrders, &ov.Revenue)
	})

	g.Go(func() error {
		rows, err := s.DB.Query(ctx,
			`SELECT status, COUNT(*) FROM orders GROUP BY status ORDER BY status`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var sc StatusCount
			if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
				return err
			}
			ov.OrdersByStatus = append(ov.OrdersByStatus, sc)
		}
		return rows.Err()
	})

	g.Go(func() error {
		rows, err := s.DB.Query(ctx, `
			SELECT oi.product_id, oi.name, SUM(oi.quantity) AS sold
			FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			WHERE o.status <> 'cancelled'
			GROUP BY oi.product_id, oi.name
			ORDER BY sold DESC LIMIT 5`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var tp TopProduct
			if err := rows.Scan(&tp.ProductID, &tp.Name, &tp.Sold); err != nil {
				return err
			}
			ov.TopProducts = append(ov.TopProducts, tp)
		}
		return rows.Err()
	})

	g.Go(func() error {
		rows, err := s.DB.Query(ctx, `
			SELECT id, name, stock FROM products
			WHERE is_active AND stock < $1
			ORDER BY stock LIMIT 10`, lowStockThreshold)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var lp LowStockProduct
			if err := rows.Scan(&lp.ProductID, &lp.Name, &lp.Stock); err != nil {
				return err
			}
			ov.LowStock = append(ov.LowStock, lp)
		}
		return rows.Err()
	})

	g.Go(func() error {
		return s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&ov.TotalUsers)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ov, nil
}
