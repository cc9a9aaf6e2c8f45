package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hperdana/go-commerce/internal/apperr"
	"github.com/hperdana/go-commerce/internal/catalog"
)

type productListResp struct {
	Products   []catalog.Product `json:"products"`
	Pagination PageMeta          `json:"pagination"`
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	q := r.URL.Query()
	f := catalog.Filter{
		Search:     q.Get("search"),
		CategoryID: q.Get("category_id"),
		ActiveOnly: true,
		SortBy:     catalog.SortField(q.Get("sort")),
		SortDesc:   q.Get("order") == "desc",
	}
	if v := q.Get("min_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			f.MinPrice = &d
		}
	}
	if v := q.Get("max_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			f.MaxPrice = &d
		}
	}

	page, limit := pageParams(r)
	list, total, err := s.Catalog.List(ctx, f, page, limit)
	if err != nil {
		respondErr(w, err)
		return
	}
	if list == nil {
		list = []catalog.Product{}
	}
	respondData(w, http.StatusOK, productListResp{
		Products:   list,
		Pagination: NewPageMeta(page, limit, total),
	})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	p, err := s.Catalog.ProductByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	if p == nil {
		respondErr(w, apperr.NotFound("Product not found"))
		return
	}
	respondData(w, http.StatusOK, p)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	cats, err := s.Catalog.Categories(ctx)
	if err != nil {
		respondErr(w, err)
		return
	}
	if cats == nil {
		cats = []catalog.Category{}
	}
	respondData(w, http.StatusOK, cats)
}

func (s *Server) adminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondBadJSON(w)
		return
	}
	if in.SKU == "" || in.Slug == "" || in.Name == "" {
		respondErr(w, apperr.BadRequest(apperr.CodeValidation, "sku, slug and name are required"))
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	p, err := s.Catalog.CreateProduct(ctx, in)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusCreated, p)
}

func (s *Server) adminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondBadJSON(w)
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	p, err := s.Catalog.UpdateProduct(ctx, chi.URLParam(r, "id"), in)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusOK, p)
}

type adjustStockReq struct {
	Delta int `json:"delta"`
}

func (s *Server) adminAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadJSON(w)
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	p, err := s.Catalog.AdjustStock(ctx, chi.URLParam(r, "id"), req.Delta)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusOK, p)
}

func (s *Server) adminStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	ov, err := s.Stats.Overview(ctx)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusOK, ov)
}
