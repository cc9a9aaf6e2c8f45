package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hperdana/go-commerce/internal/address"
)

func (s *Server) listAddresses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	list, err := s.Addresses.List(ctx, userID(r))
	if err != nil {
		respondErr(w, err)
		return
	}
	if list == nil {
		list = []address.Address{}
	}
	respondData(w, http.StatusOK, list)
}

func (s *Server) createAddress(w http.ResponseWriter, r *http.Request) {
	var in address.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondBadJSON(w)
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	a, err := s.Addresses.Create(ctx, userID(r), in)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusCreated, a)
}

func (s *Server) updateAddress(w http.ResponseWriter, r *http.Request) {
	var in address.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondBadJSON(w)
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	a, err := s.Addresses.Update(ctx, userID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusOK, a)
}

func (s *Server) deleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := s.Addresses.Delete(ctx, userID(r), chi.URLParam(r, "id")); err != nil {
		respondErr(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "address deleted")
}

func (s *Server) setDefaultAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	a, err := s.Addresses.SetDefault(ctx, userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondData(w, http.StatusOK, a)
}
