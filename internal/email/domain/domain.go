package domain

import (
	"context"

	sdomain "github.com/formsink/formsink/internal/submissions/domain"
	tdomain "github.com/formsink/formsink/internal/tenants/domain"
)

// Notifier composes and dispatches the notification email for one accepted
// submission. Send never raises to the caller: internal failures are logged
// and reported as false. The pipeline treats the result as best-effort.
type Notifier interface {
	Send(ctx context.Context, cfg *tdomain.TenantConfig, fields *sdomain.FormData, overrides sdomain.Specials) bool
}
