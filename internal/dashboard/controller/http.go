package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/formsink/formsink/internal/dashboard/domain"
	"github.com/formsink/formsink/internal/platform/validation"
	sdomain "github.com/formsink/formsink/internal/submissions/domain"
	tdomain "github.com/formsink/formsink/internal/tenants/domain"
)

const sessionCookie = "formsink_dashboard"

// Operator-facing messages stay generic: whether a tenant exists or its store
// is reachable is not information the login form should leak.
const (
	msgTenantNotFound = "Tenant not found. Please check your Tenant ID."
	msgGenericError   = "An error occurred. Please try again."
)

type Controller struct {
	svc      domain.Service
	sessions domain.SessionStore
	resolver tdomain.Resolver
	ttl      time.Duration
	log      zerolog.Logger
}

func New(svc domain.Service, sessions domain.SessionStore, resolver tdomain.Resolver, ttl time.Duration, log zerolog.Logger) *Controller {
	return &Controller{svc: svc, sessions: sessions, resolver: resolver, ttl: ttl, log: log}
}

func (h *Controller) Register(e *echo.Echo) {
	g := e.Group("/api/v1/dashboard")
	g.POST("/login", h.login)
	g.POST("/logout", h.logout)
	g.GET("/submissions", h.listSubmissions)
	g.GET("/submissions/:id", h.getSubmission)
}

type loginReq struct {
	TenantID string `json:"tenant_id" form:"tenant_id" validate:"required"`
}

type loginResp struct {
	TenantID string `json:"tenant_id"`
}

func (h *Controller) login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validation.ErrorResponse(err))
	}

	cfg, found, err := h.resolver.LoadByTenantID(c.Request().Context(), req.TenantID)
	if err != nil {
		h.log.Error().Err(err).Msg("tenant lookup failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": msgGenericError})
	}
	if !found {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": msgTenantNotFound})
	}

	token := h.sessions.Create(cfg.ConfigID)
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, loginResp{TenantID: cfg.TenantID})
}

func (h *Controller) logout(c echo.Context) error {
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		h.sessions.Delete(cookie.Value)
	}
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return c.NoContent(http.StatusNoContent)
}

// authenticated resolves the session cookie back to the tenant's config.
func (h *Controller) authenticated(c echo.Context) (*tdomain.TenantConfig, error) {
	cookie, err := c.Cookie(sessionCookie)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
	}
	configID, ok := h.sessions.Get(cookie.Value)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "session expired")
	}
	cfg, err := h.resolver.Load(c.Request().Context(), configID)
	if err != nil {
		h.log.Error().Str("config_id", configID).Err(err).Msg("session config resolution failed")
		return nil, echo.NewHTTPError(http.StatusInternalServerError, msgGenericError)
	}
	return cfg, nil
}

type submissionResp struct {
	ID         int64             `json:"id"`
	FormName   string            `json:"form_name"`
	FormData   *sdomain.FormData `json:"form_data"`
	SenderIP   string            `json:"sender_ip,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
	RefererURL string            `json:"referer_url,omitempty"`
	CreatedAt  string            `json:"created_at"`
}

func toSubmissionResp(s sdomain.Submission) submissionResp {
	return submissionResp{
		ID:         s.ID,
		FormName:   s.FormName,
		FormData:   s.FormData,
		SenderIP:   s.SenderIP,
		UserAgent:  s.UserAgent,
		RefererURL: s.RefererURL,
		CreatedAt:  s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type listResponse struct {
	Items      []submissionResp `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
	FormNames  []string         `json:"form_names"`
	Form       string           `json:"form,omitempty"`
}

func (h *Controller) listSubmissions(c echo.Context) error {
	cfg, err := h.authenticated(c)
	if err != nil {
		return err
	}

	page := 1
	if p := c.QueryParam("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			page = v
		}
	}
	form := c.QueryParam("form")

	res, err := h.svc.List(c.Request().Context(), cfg, page, form)
	if err != nil {
		h.log.Error().Str("config_id", cfg.ConfigID).Err(err).Msg("dashboard list failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": msgGenericError})
	}

	items := make([]submissionResp, 0, len(res.Items))
	for _, s := range res.Items {
		items = append(items, toSubmissionResp(s))
	}
	return c.JSON(http.StatusOK, listResponse{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   domain.PageSize,
		TotalPages: res.TotalPages,
		FormNames:  res.FormNames,
		Form:       res.Form,
	})
}

func (h *Controller) getSubmission(c echo.Context) error {
	cfg, err := h.authenticated(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	sub, found, err := h.svc.Get(c.Request().Context(), cfg, id)
	if err != nil {
		h.log.Error().Str("config_id", cfg.ConfigID).Err(err).Msg("dashboard get failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": msgGenericError})
	}
	if !found {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}
	return c.JSON(http.StatusOK, toSubmissionResp(*sub))
}
