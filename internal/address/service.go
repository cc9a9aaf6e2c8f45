package address

import (
	"context"

	"github.com/hperdana/go-commerce/internal/apperr"
)

// Repository lets tests swap the pgx-backed repo for a fake.
type Repository interface {
	ByID(ctx context.Context, id string) (*Address, error)
	ListByUser(ctx context.Context, userID string) ([]Address, error)
	Create(ctx context.Context, userID string, in Input) (*Address, error)
	Update(ctx context.Context, id string, in Input) (*Address, error)
	Delete(ctx context.Context, id string) error
	SetDefault(ctx context.Context, userID, id string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ByID is the raw lookup used by checkout, which does its own ownership check.
func (s *Service) ByID(ctx context.Context, id string) (*Address, error) {
	return s.repo.ByID(ctx, id)
}

func (s *Service) List(ctx context.Context, userID string) ([]Address, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Create(ctx context.Context, userID string, in Input) (*Address, error) {
	if in.Line1 == "" || in.City == "" || in.Country == "" {
		return nil, apperr.BadRequest(apperr.CodeValidation, "line1, city and country are required")
	}
	return s.repo.Create(ctx, userID, in)
}

func (s *Service) Update(ctx context.Context, userID, id string, in Input) (*Address, error) {
	if err := s.mustOwn(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.mustOwn(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) SetDefault(ctx context.Context, userID, id string) (*Address, error) {
	if err := s.mustOwn(ctx, userID, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetDefault(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.repo.ByID(ctx, id)
}

func (s *Service) mustOwn(ctx context.Context, userID, id string) error {
	a, err := s.repo.ByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return apperr.NotFound("Address not found")
	}
	if a.UserID != userID {
		return apperr.Forbidden("address belongs to another user")
	}
	return nil
}
