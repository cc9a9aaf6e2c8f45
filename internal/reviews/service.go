package reviews

import (
	"context"

	"github.com/hperdana/go-commerce/internal/apperr"
	"github.com/hperdana/go-commerce/internal/catalog"
)

type Repository interface {
	HasDeliveredPurchase(ctx context.Context, userID, productID string) (bool, error)
	Exists(ctx context.Context, userID, productID string) (bool, error)
	Insert(ctx context.Context, rv *Review) error
	ListByProduct(ctx context.Context, productID string, page, limit int) ([]Review, int, float64, error)
}

type Catalog interface {
	ProductByID(ctx context.Context, id string) (*catalog.Product, error)
}

type Service struct {
	repo    Repository
	catalog Catalog
}

func NewService(repo Repository, cat Catalog) *Service {
	return &Service{repo: repo, catalog: cat}
}

type CreateInput struct {
	UserID    string
	ProductID string
	Rating    int
	Comment   string
}

// Create accepts a review only from users with a delivered order containing
// the product, one review per user per product.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperr.BadRequest(apperr.CodeValidation, "rating must be between 1 and 5")
	}
	p, err := s.catalog.ProductByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("Product not found")
	}

	purchased, err := s.repo.HasDeliveredPurchase(ctx, in.UserID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !purchased {
		return nil, apperr.BadRequest(apperr.CodePurchaseRequired,
			"only customers who received this product can review it")
	}

	exists, err := s.repo.Exists(ctx, in.UserID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict(apperr.CodeReviewExists, "you already reviewed this product")
	}

	rv := &Review{
		UserID:    in.UserID,
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Comment:   in.Comment,
	}
	if err := s.repo.Insert(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

type Page struct {
	Reviews       []Review `json:"reviews"`
	Total         int      `json:"total"`
	AverageRating float64  `json:"average_rating"`
}

func (s *Service) ListByProduct(ctx context.Context, productID string, page, limit int) (*Page, error) {
	list, total, avg, err := s.repo.ListByProduct(ctx, productID, page, limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Review{}
	}
	return &Page{Reviews: list, Total: total, AverageRating: avg}, nil
}
