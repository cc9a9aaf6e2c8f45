package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hperdana/go-commerce/internal/orders"
)

type createOrderReq struct {
	ShippingAddressID string `json:"shipping_address_id"`
}

type updateOrderStatusReq struct {
	Status string `json:"status"`
}

type orderListResp struct {
	Orders     []orders.Order `json:"orders"`
	Pagination PageMeta       `json:"pagination"`
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadJSON(w)
		return
	}
	if req.ShippingAddressID == "" {
		respondErr(w, errMissingField("shipping_address_id"))
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	o, err := s.Orders.Create(ctx, orders.CreateInput{
		UserID:            userID(r),
		ShippingAddressID: req.ShippingAddressID,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusCreated, o)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	page, limit := pageParams(r)
	f := orders.ListFilter{
		UserID: userID(r),
		Status: orders.Status(r.URL.Query().Get("status")),
		Page:   page,
		Limit:  limit,
	}
	list, total, err := s.Orders.List(ctx, f)
	if err != nil {
		respondErr(w, err)
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	respondData(w, http.StatusOK, orderListResp{
		Orders:     list,
		Pagination: NewPageMeta(page, limit, total),
	})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	o, err := s.Orders.Get(ctx, chi.URLParam(r, "id"), userID(r))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusOK, o)
}

func (s *Server) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	o, err := s.Orders.Cancel(ctx, chi.URLParam(r, "id"), userID(r))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusOK, o)
}

func (s *Server) adminListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	page, limit := pageParams(r)
	f := orders.ListFilter{
		UserID: r.URL.Query().Get("user_id"),
		Status: orders.Status(r.URL.Query().Get("status")),
		Page:   page,
		Limit:  limit,
	}
	list, total, err := s.Orders.List(ctx, f)
	if err != nil {
		respondErr(w, err)
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	respondData(w, http.StatusOK, orderListResp{
		Orders:     list,
		Pagination: NewPageMeta(page, limit, total),
	})
}

func (s *Server) adminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadJSON(w)
		return
	}
	if req.Status == "" {
		respondErr(w, errMissingField("status"))
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	o, err := s.Orders.UpdateStatus(ctx, chi.URLParam(r, "id"), orders.Status(req.Status))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusOK, o)
}

func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
