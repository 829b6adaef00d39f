package handlers

import (
	"context"
	"net/http"
)

type tenantContextKey struct{}

// WithTenant кладет идентификатор таксопарка в контекст
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenantID)
}

// TenantFromContext возвращает идентификатор таксопарка из контекста
func TenantFromContext(ctx context.Context) string {
	tenantID, _ := ctx.Value(tenantContextKey{}).(string)
	return tenantID
}

// TenantMiddleware определяет таксопарк запроса и отдает его в заголовке ответа
func TenantMiddleware(resolver TenantResolver, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			next(w, r)
			return
		}
		tenantID := resolver.Resolve(r)
		w.Header().Set("X-Tenant-ID", tenantID)
		next(w, r.WithContext(WithTenant(r.Context(), tenantID)))
	}
}

// tenantID возвращает таксопарк запроса или ошибку 400, если он не определен
func tenantID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := TenantFromContext(r.Context())
	if id == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Tenant could not be resolved")
		return "", false
	}
	return id, true
}
