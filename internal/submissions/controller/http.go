package controller

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/formsink/formsink/internal/submissions/domain"
	tdomain "github.com/formsink/formsink/internal/tenants/domain"
)

type Controller struct {
	pipeline domain.Processor
	resolver tdomain.Resolver
	log      zerolog.Logger
}

func New(pipeline domain.Processor, resolver tdomain.Resolver, log zerolog.Logger) *Controller {
	return &Controller{pipeline: pipeline, resolver: resolver, log: log}
}

func (h *Controller) Register(e *echo.Echo) {
	e.POST("/", h.submit)
	e.OPTIONS("/", h.preflight)
	e.POST("/submit", h.submit)
	e.OPTIONS("/submit", h.preflight)
}

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *Controller) submit(c echo.Context) error {
	r := c.Request()

	fields, err := parseFormBody(r)
	if err != nil {
		// CORS headers must be present even here, or a browser client never
		// sees the error. Only the query string can name the config id.
		h.applyCORS(c, h.corsConfigID(c, nil))
		h.log.Warn().Err(err).Msg("unreadable submission body")
		return c.JSON(http.StatusBadRequest, submitResponse{Error: "Malformed request body"})
	}

	h.applyCORS(c, h.corsConfigID(c, fields))

	ctx := domain.WithRequestMeta(r.Context(), domain.RequestMeta{
		SenderIP:   c.RealIP(),
		UserAgent:  r.UserAgent(),
		RefererURL: r.Referer(),
	})

	outcome := h.pipeline.Process(ctx, domain.Request{
		Fields:  fields,
		Origin:  r.Header.Get(echo.HeaderOrigin),
		Referer: r.Referer(),
	})

	if outcome.Success {
		if outcome.Redirect != "" {
			return c.Redirect(http.StatusFound, outcome.Redirect)
		}
		return c.JSON(http.StatusOK, submitResponse{Success: true, Message: outcome.Message})
	}

	if outcome.Redirect != "" {
		return c.Redirect(http.StatusFound, appendError(outcome.Redirect, outcome.Message))
	}
	return c.JSON(failureStatus(outcome.Kind), submitResponse{Error: outcome.Message})
}

// preflight answers CORS preflight before the POST body exists. The config id
// can only come from the query string here, and resolution stays fail-open.
func (h *Controller) preflight(c echo.Context) error {
	h.applyCORS(c, h.corsConfigID(c, nil))
	c.Response().Header().Set(echo.HeaderAccessControlMaxAge, "86400")
	return c.NoContent(http.StatusNoContent)
}

// corsConfigID picks the config id for CORS pre-authorization: the posted
// field wins, the query parameter is the fallback.
func (h *Controller) corsConfigID(c echo.Context, fields *domain.FormData) string {
	if fields != nil {
		if v, ok := fields.Get(domain.FieldConfigID); ok && v.First() != "" {
			return v.First()
		}
	}
	return c.QueryParam(domain.FieldConfigID)
}

func (h *Controller) applyCORS(c echo.Context, configID string) {
	allowed := []string{tdomain.Wildcard}
	if configID != "" {
		allowed = h.resolver.AllowedOrigins(c.Request().Context(), configID)
	}

	header := c.Response().Header()
	origin := c.Request().Header.Get(echo.HeaderOrigin)

	wildcard := false
	exact := false
	for _, a := range allowed {
		if a == tdomain.Wildcard {
			wildcard = true
		}
		if origin != "" && a == origin {
			exact = true
		}
	}
	switch {
	case wildcard:
		header.Set(echo.HeaderAccessControlAllowOrigin, tdomain.Wildcard)
	case exact:
		header.Set(echo.HeaderAccessControlAllowOrigin, origin)
		header.Add(echo.HeaderVary, echo.HeaderOrigin)
	}
	header.Set(echo.HeaderAccessControlAllowMethods, "POST, OPTIONS")
	header.Set(echo.HeaderAccessControlAllowHeaders, "Content-Type, X-Requested-With")
}

func failureStatus(kind domain.FailureKind) int {
	if kind == domain.FailOrigin {
		return http.StatusForbidden
	}
	return http.StatusBadRequest
}

// appendError attaches the failure message to a redirect target as an
// error=<message> query parameter.
func appendError(redirect, message string) string {
	sep := "?"
	if strings.Contains(redirect, "?") {
		sep = "&"
	}
	return redirect + sep + "error=" + url.QueryEscape(message)
}
