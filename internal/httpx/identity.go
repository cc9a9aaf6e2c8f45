package httpx

import (
	"context"
	"net/http"

	"github.com/hperdana/go-commerce/internal/apperr"
)

// Identity is issued by the upstream auth layer; this core trusts the
// X-User-Id / X-User-Role headers as already verified.
type ctxKey int

const (
	ctxKeyUserID ctxKey = iota
	ctxKeyRole
)

const RoleAdmin = "admin"

func withIdentity(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID, userID)
	return context.WithValue(ctx, ctxKeyRole, role)
}

func userID(r *http.Request) string {
	v, _ := r.Context().Value(ctxKeyUserID).(string)
	return v
}

func role(r *http.Request) string {
	v, _ := r.Context().Value(ctxKeyRole).(string)
	return v
}

func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := withIdentity(r.Context(), r.Header.Get("X-User-Id"), r.Header.Get("X-User-Role"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID(r) == "" {
			respondErr(w, apperr.E(http.StatusUnauthorized, apperr.CodeUnauthorized, "authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if role(r) != RoleAdmin {
			respondErr(w, apperr.Forbidden("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
