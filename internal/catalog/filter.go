package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type SortField string

const (
	SortByName    SortField = "name"
	SortByPrice   SortField = "price"
	SortByCreated SortField = "created_at"
)

// Filter enumerates the supported product query operators: case-insensitive
// name search, category equality, price range and single-field sort.
type Filter struct {
	Search     string
	CategoryID string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	ActiveOnly bool
	SortBy     SortField
	SortDesc   bool
}

// where renders the filter into a WHERE clause and its positional args.
func (f Filter) where() (string, []any) {
	var conds []string
	var args []any
	if f.ActiveOnly {
		conds = append(conds, "is_active")
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		conds = append(conds, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		conds = append(conds, fmt.Sprintf("price >= $%d", len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		conds = append(conds, fmt.Sprintf("price <= $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (f Filter) orderBy() string {
	field := f.SortBy
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	switch field {
	case SortByName, SortByPrice, SortByCreated:
	default:
		// no (or unknown) sort requested: newest first, like order listings
		field = SortByCreated
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", field, dir)
}
