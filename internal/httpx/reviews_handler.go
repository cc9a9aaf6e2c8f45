package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hperdana/go-commerce/internal/reviews"
)

type createReviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	page, limit := pageParams(r)
	pg, err := s.Reviews.ListByProduct(ctx, chi.URLParam(r, "id"), page, limit)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusOK, pg)
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadJSON(w)
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	rv, err := s.Reviews.Create(ctx, reviews.CreateInput{
		UserID:    userID(r),
		ProductID: chi.URLParam(r, "id"),
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusCreated, rv)
}
