package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	edomain "github.com/formsink/formsink/internal/email/domain"
	evdomain "github.com/formsink/formsink/internal/events/domain"
	"github.com/formsink/formsink/internal/metrics"
	"github.com/formsink/formsink/internal/submissions/domain"
	tdomain "github.com/formsink/formsink/internal/tenants/domain"
)

// Caller-visible messages. Resolver and persistence causes are logged with
// detail server-side but never surfaced, to avoid leaking tenant or
// infrastructure information.
const (
	msgMissingConfig = "Missing configId"
	msgGenericError  = "An error occurred. Please try again."
	msgOriginDenied  = "Origin not allowed"
	msgBotAccepted   = "OK"
	msgNoFormData    = "No form data received"
	msgSubmitted     = "Form submitted successfully"
)

const defaultFormName = "default"

// Pipeline orchestrates validation, sanitization, persistence, and
// notification for one inbound submission. Each request is processed
// synchronously; the only shared state is the resolver's cache.
type Pipeline struct {
	resolver tdomain.Resolver
	repos    domain.RepositoryProvider
	notifier edomain.Notifier
	events   evdomain.Publisher
	log      zerolog.Logger
}

func New(resolver tdomain.Resolver, repos domain.RepositoryProvider, notifier edomain.Notifier, events evdomain.Publisher, log zerolog.Logger) *Pipeline {
	return &Pipeline{resolver: resolver, repos: repos, notifier: notifier, events: events, log: log}
}

func fail(kind domain.FailureKind, message, redirect string) domain.Outcome {
	metrics.IncRejected(string(kind))
	return domain.Outcome{Message: message, Redirect: redirect, Kind: kind}
}

// Process runs the submission through every stage, short-circuiting on the
// first violation.
func (p *Pipeline) Process(ctx context.Context, req domain.Request) domain.Outcome {
	fields := req.Fields
	if fields == nil {
		fields = domain.NewFormData()
	}

	configID := ""
	if v, ok := fields.Get(domain.FieldConfigID); ok {
		configID = v.First()
	}
	if configID == "" {
		return fail(domain.FailMissingConfig, msgMissingConfig, "")
	}

	cfg, err := p.resolver.Load(ctx, configID)
	if err != nil {
		p.log.Error().Str("config_id", configID).Err(err).Msg("config resolution failed")
		return fail(domain.FailConfig, msgGenericError, "")
	}

	if !originAuthorized(cfg.Origins(), req.Origin, req.Referer) {
		p.publish(ctx, "submission.rejected", cfg, map[string]string{"reason": string(domain.FailOrigin), "origin": req.Origin})
		return fail(domain.FailOrigin, msgOriginDenied, "")
	}

	if hp, ok := fields.Get(domain.FieldHoneypot); ok && hp.First() != "" {
		// Bots get a success response with no side effects, so there is no
		// rejection signal to probe against.
		metrics.IncBot()
		p.publish(ctx, "submission.bot", cfg, nil)
		return domain.Outcome{Success: true, Message: msgBotAccepted}
	}

	specials := partition(fields)
	redirect := specials.Redirect()

	sanitized := sanitizeFields(fields)
	if sanitized.Len() == 0 {
		return fail(domain.FailNoData, msgNoFormData, redirect)
	}

	formName := defaultFormName
	if name, ok := specials.FormName(); ok {
		formName = name
	}

	repo, err := p.repos.For(ctx, cfg)
	if err != nil {
		p.log.Error().Str("config_id", cfg.ConfigID).Err(err).Msg("tenant store unavailable")
		return fail(domain.FailPersistence, msgGenericError, redirect)
	}
	id, err := repo.SaveSubmission(ctx, sanitized, formName)
	if err != nil {
		p.log.Error().Str("config_id", cfg.ConfigID).Err(err).Msg("submission persist failed")
		return fail(domain.FailPersistence, msgGenericError, redirect)
	}

	// Notification is best-effort: a failure is logged and counted, never
	// reflected in the outcome.
	if p.notifier.Send(ctx, cfg, sanitized, specials) {
		metrics.IncNotification("ok")
	} else {
		metrics.IncNotification("failed")
		p.publish(ctx, "notification.failed", cfg, map[string]string{"form_name": formName})
	}

	metrics.IncAccepted(formName)
	p.publish(ctx, "submission.accepted", cfg, map[string]string{"form_name": formName})

	return domain.Outcome{
		Success:      true,
		Message:      msgSubmitted,
		Redirect:     redirect,
		SubmissionID: id,
	}
}

// partition extracts and removes the reserved control fields from the working
// set, stripping the underscore prefix from the extracted names.
func partition(fields *domain.FormData) domain.Specials {
	specials := domain.Specials{}
	for _, name := range domain.ReservedFields {
		if v, ok := fields.Delete(name); ok {
			specials[strings.TrimPrefix(name, domain.ReservedPrefix)] = v
		}
	}
	return specials
}

// originAuthorized checks the request against a tenant's allow-list. The
// Origin header must match a member exactly; the Referer only needs an
// allowed prefix, which stays deliberately permissive for path-bearing
// referers and is spoofable by construction. Tightening it would change the
// authorization contract tenants rely on.
func originAuthorized(allowed []string, origin, referer string) bool {
	for _, a := range allowed {
		if a == tdomain.Wildcard {
			return true
		}
	}
	if origin != "" {
		for _, a := range allowed {
			if origin == a {
				return true
			}
		}
	}
	if referer != "" {
		for _, a := range allowed {
			if strings.HasPrefix(referer, a) {
				return true
			}
		}
	}
	return false
}

func (p *Pipeline) publish(ctx context.Context, eventType string, cfg *tdomain.TenantConfig, meta map[string]string) {
	if p.events == nil {
		return
	}
	_ = p.events.Publish(ctx, evdomain.Event{
		Type:     eventType,
		ConfigID: cfg.ConfigID,
		TenantID: cfg.TenantID,
		Meta:     meta,
		Time:     time.Now(),
	})
}
