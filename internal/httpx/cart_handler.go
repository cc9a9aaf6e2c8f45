package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type addToCartReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemReq struct {
	Quantity int `json:"quantity"`
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	view, err := s.Cart.Get(ctx, userID(r))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusOK, view)
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadJSON(w)
		return
	}
	if req.ProductID == "" {
		respondErr(w, errMissingField("product_id"))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	view, err := s.Cart.Add(ctx, userID(r), req.ProductID, req.Quantity)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusOK, view)
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadJSON(w)
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	view, err := s.Cart.Update(ctx, userID(r), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusOK, view)
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	view, err := s.Cart.RemoveItem(ctx, userID(r), chi.URLParam(r, "productID"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusOK, view)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := s.Cart.Clear(ctx, userID(r)); err != nil {
		respondErr(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "cart cleared")
}

func (s *Server) validateCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	res, err := s.Cart.Validate(ctx, userID(r))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusOK, res)
}
