package submissions

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/formsink/formsink/internal/config"
	emailsvc "github.com/formsink/formsink/internal/email/service"
	eventsvc "github.com/formsink/formsink/internal/events/service"
	"github.com/formsink/formsink/internal/platform/postgres"
	ctrl "github.com/formsink/formsink/internal/submissions/controller"
	repo "github.com/formsink/formsink/internal/submissions/repository"
	svc "github.com/formsink/formsink/internal/submissions/service"
	tdomain "github.com/formsink/formsink/internal/tenants/domain"
)

// Register wires the submission pipeline and registers its HTTP routes.
func Register(e *echo.Echo, resolver tdomain.Resolver, pools *postgres.Pools, cfg config.Config, log zerolog.Logger) {
	repos := repo.NewProvider(pools)
	notifier := emailsvc.NewMailer(cfg, log)
	events := eventsvc.NewLogger()
	p := svc.New(resolver, repos, notifier, events, log)
	c := ctrl.New(p, resolver, log)
	c.Register(e)
}
