package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/formsink/formsink/internal/tenants/domain"
	"github.com/rs/zerolog"
)

// Ensure Resolver implements domain.Resolver
var _ domain.Resolver = (*Resolver)(nil)

var configIDPattern = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeConfigID strips everything but alphanumerics, underscore, and hyphen
// from a config id, preventing path or key injection through the lookup key.
// An input with nothing left becomes the literal id "default".
func SanitizeConfigID(id string) string {
	id = configIDPattern.ReplaceAllString(id, "")
	if id == "" {
		return "default"
	}
	return id
}

// Resolver loads tenant configurations from an injected Source and caches
// them for the lifetime of the instance. Values are immutable once cached and
// never evicted; duplicate loads under concurrency are harmless.
type Resolver struct {
	src domain.Source
	log zerolog.Logger

	mu    sync.RWMutex
	cache map[string]*domain.TenantConfig
}

func New(src domain.Source, log zerolog.Logger) *Resolver {
	return &Resolver{src: src, log: log, cache: make(map[string]*domain.TenantConfig)}
}

// Load resolves a config by its opaque id. Results are cached under the raw
// input id, so repeated lookups skip sanitization entirely.
func (r *Resolver) Load(ctx context.Context, configID string) (*domain.TenantConfig, error) {
	if cfg, ok := r.cached(configID); ok {
		return cfg, nil
	}

	clean := SanitizeConfigID(configID)
	data, found, err := r.src.Read(ctx, clean)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, clean)
	}

	cfg, err := decode(clean, data)
	if err != nil {
		return nil, err
	}

	r.store(configID, cfg)
	return cfg, nil
}

// LoadByTenantID scans all backing records for an exact tenant_id match and
// returns the first one. The hit is cached under the record's own config id.
// Used by the dashboard login flow, not by the submission pipeline.
func (r *Resolver) LoadByTenantID(ctx context.Context, tenantID string) (*domain.TenantConfig, bool, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, false, nil
	}

	records, err := r.src.List(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, rec := range records {
		cfg, err := decode(rec.ID, rec.Data)
		if err != nil {
			r.log.Warn().Str("config_id", rec.ID).Err(err).Msg("skipping unparsable config record")
			continue
		}
		if cfg.TenantID == tenantID {
			r.store(rec.ID, cfg)
			return cfg, true, nil
		}
	}
	return nil, false, nil
}

// AllowedOrigins returns the allow-list for CORS pre-authorization. Any
// resolution failure defaults to the wildcard: preflight stays fail-open, the
// real authorization happens in the submission pipeline.
func (r *Resolver) AllowedOrigins(ctx context.Context, configID string) []string {
	cfg, err := r.Load(ctx, configID)
	if err != nil {
		return []string{domain.Wildcard}
	}
	return cfg.Origins()
}

func (r *Resolver) cached(key string) (*domain.TenantConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.cache[key]
	return cfg, ok
}

func (r *Resolver) store(key string, cfg *domain.TenantConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[key] = cfg
}

func decode(id string, data []byte) (*domain.TenantConfig, error) {
	var cfg domain.TenantConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, id, err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, id, err)
	}
	cfg.ConfigID = id
	cfg.Raw = raw
	return &cfg, nil
}
