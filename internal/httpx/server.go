package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hperdana/go-commerce/internal/address"
	"github.com/hperdana/go-commerce/internal/adminstats"
	"github.com/hperdana/go-commerce/internal/cart"
	"github.com/hperdana/go-commerce/internal/catalog"
	"github.com/hperdana/go-commerce/internal/orders"
	"github.com/hperdana/go-commerce/internal/reviews"
)

type CartService interface {
	Get(ctx context.Context, userID string) (*cart.View, error)
	Add(ctx context.Context, userID, productID string, delta int) (*cart.View, error)
	Update(ctx context.Context, userID, productID string, qty int) (*cart.View, error)
	RemoveItem(ctx context.Context, userID, productID string) (*cart.View, error)
	Clear(ctx context.Context, userID string) error
	Validate(ctx context.Context, userID string) (*cart.Validation, error)
}

type OrderService interface {
	Create(ctx context.Context, in orders.CreateInput) (*orders.Order, error)
	List(ctx context.Context, f orders.ListFilter) ([]orders.Order, int, error)
	Get(ctx context.Context, id, requestingUserID string) (*orders.Order, error)
	UpdateStatus(ctx context.Context, id string, to orders.Status) (*orders.Order, error)
	Cancel(ctx context.Context, id, requestingUserID string) (*orders.Order, error)
}

type CatalogService interface {
	ProductByID(ctx context.Context, id string) (*catalog.Product, error)
	List(ctx context.Context, f catalog.Filter, page, limit int) ([]catalog.Product, int, error)
	Categories(ctx context.Context) ([]catalog.Category, error)
	CreateProduct(ctx context.Context, in catalog.ProductInput) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, id string, in catalog.ProductInput) (*catalog.Product, error)
	AdjustStock(ctx context.Context, id string, delta int) (*catalog.Product, error)
}

type AddressService interface {
	List(ctx context.Context, userID string) ([]address.Address, error)
	Create(ctx context.Context, userID string, in address.Input) (*address.Address, error)
	Update(ctx context.Context, userID, id string, in address.Input) (*address.Address, error)
	Delete(ctx context.Context, userID, id string) error
	SetDefault(ctx context.Context, userID, id string) (*address.Address, error)
}

type ReviewService interface {
	Create(ctx context.Context, in reviews.CreateInput) (*reviews.Review, error)
	ListByProduct(ctx context.Context, productID string, page, limit int) (*reviews.Page, error)
}

type StatsService interface {
	Overview(ctx context.Context) (*adminstats.Overview, error)
}

type Server struct {
	Cart      CartService
	Orders    OrderService
	Catalog   CatalogService
	Addresses AddressService
	Reviews   ReviewService
	Stats     StatsService
	Log       *zap.Logger
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(identity)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		// public catalog reads
		r.Get("/products", s.listProducts)
		r.Get("/products/{id}", s.getProduct)
		r.Get("/products/{id}/reviews", s.listReviews)
		r.Get("/categories", s.listCategories)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/cart", s.getCart)
			r.Post("/cart", s.addToCart)
			r.Put("/cart/items/{productID}", s.updateCartItem)
			r.Delete("/cart/items/{productID}", s.removeCartItem)
			r.Delete("/cart", s.clearCart)
			r.Post("/cart/validate", s.validateCart)

			r.Post("/orders", s.createOrder)
			r.Get("/orders", s.listOrders)
			r.Get("/orders/{id}", s.getOrder)
			r.Post("/orders/{id}/cancel", s.cancelOrder)

			r.Get("/addresses", s.listAddresses)
			r.Post("/addresses", s.createAddress)
			r.Put("/addresses/{id}", s.updateAddress)
			r.Delete("/addresses/{id}", s.deleteAddress)
			r.Post("/addresses/{id}/default", s.setDefaultAddress)

			r.Post("/products/{id}/reviews", s.createReview)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireUser, requireAdmin)

			r.Post("/products", s.adminCreateProduct)
			r.Put("/products/{id}", s.adminUpdateProduct)
			r.Patch("/products/{id}/stock", s.adminAdjustStock)
			r.Get("/orders", s.adminListOrders)
			r.Put("/orders/{id}/status", s.adminUpdateOrderStatus)
			r.Get("/stats", s.adminStats)
		})
	})

	return r
}

// reqCtx caps each handler's store work, as the router-level timeout only
// bounds the whole request.
func reqCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 5*time.Second)
}
