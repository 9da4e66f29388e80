package domain

import (
	"context"

	sdomain "github.com/formsink/formsink/internal/submissions/domain"
	tdomain "github.com/formsink/formsink/internal/tenants/domain"
)

// PageSize is fixed for the operator dashboard.
const PageSize = 20

// Page is one reverse-chronological page of a tenant's submissions, plus the
// filter options the dashboard renders.
type Page struct {
	Items      []sdomain.Submission
	Total      int64
	Page       int
	TotalPages int
	FormNames  []string
	Form       string
}

// Service is the read-side over persisted submissions. The caller supplies
// the authenticated tenant's config; how that authentication happened is not
// this layer's concern.
type Service interface {
	List(ctx context.Context, cfg *tdomain.TenantConfig, page int, form string) (Page, error)
	Get(ctx context.Context, cfg *tdomain.TenantConfig, id int64) (*sdomain.Submission, bool, error)
}

// SessionStore maps opaque session tokens to config ids for the dashboard's
// cookie-based login.
type SessionStore interface {
	Create(configID string) string
	Get(token string) (configID string, ok bool)
	Delete(token string)
}
