package dashboard

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/formsink/formsink/internal/config"
	ctrl "github.com/formsink/formsink/internal/dashboard/controller"
	svc "github.com/formsink/formsink/internal/dashboard/service"
	"github.com/formsink/formsink/internal/dashboard/session"
	"github.com/formsink/formsink/internal/platform/postgres"
	repo "github.com/formsink/formsink/internal/submissions/repository"
	tdomain "github.com/formsink/formsink/internal/tenants/domain"
)

// Register wires the dashboard read side and registers its HTTP routes.
func Register(e *echo.Echo, resolver tdomain.Resolver, pools *postgres.Pools, cfg config.Config, log zerolog.Logger) {
	s := svc.New(repo.NewProvider(pools))
	sessions := session.New(cfg.DashboardSessionTTL)
	c := ctrl.New(s, sessions, resolver, cfg.DashboardSessionTTL, log)
	c.Register(e)
}
