package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/hperdana/go-commerce/internal/apperr"
)

// envelope is the JSON shape every endpoint produces:
// {success, message?, data?, error?: {code, message, details?}}
type envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type PageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewPageMeta(page, limit, total int) PageMeta {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return PageMeta{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, envelope{Success: true, Message: message})
}

// respondErr surfaces the structured error unchanged; anything else becomes
// an opaque 500.
func respondErr(w http.ResponseWriter, err error) {
	ae := apperr.From(err)
	writeJSON(w, ae.Status, envelope{
		Success: false,
		Error:   &errorBody{Code: ae.Code, Message: ae.Message, Details: ae.Details},
	})
}

func respondBadJSON(w http.ResponseWriter) {
	respondErr(w, apperr.BadRequest(apperr.CodeValidation, "invalid json body"))
}

func errMissingField(field string) error {
	return apperr.BadRequest(apperr.CodeValidation, field+" is required")
}
