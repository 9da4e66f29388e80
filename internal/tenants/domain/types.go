package domain

import (
	"context"
	"encoding/json"
	"errors"
)

// Wildcard is the allowed-origins sentinel matching any origin.
const Wildcard = "*"

var (
	// ErrConfigNotFound means no backing record exists for the sanitized id.
	ErrConfigNotFound = errors.New("configuration not found")
	// ErrInvalidConfig means the backing record exists but cannot be decoded.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// TenantConfig is one tenant's resolved configuration record.
type TenantConfig struct {
	// ConfigID is the opaque lookup key (sanitized), distinct from TenantID.
	ConfigID string `json:"-"`

	TenantID       string         `json:"tenant_id"`
	AllowedOrigins []string       `json:"allowed_origins"`
	Database       DatabaseConfig `json:"database"`
	Email          *EmailConfig   `json:"email,omitempty"`
	SMTP           *SMTPConfig    `json:"smtp,omitempty"`

	// Raw holds the decoded record as a generic mapping for dotted-path lookups.
	Raw map[string]any `json:"-"`
}

// DatabaseConfig carries per-tenant connection parameters. The pipeline treats
// these as opaque; only the persistence layer interprets them.
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port,omitempty"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// EmailConfig controls the notification email for a tenant.
type EmailConfig struct {
	Enabled       *bool      `json:"enabled,omitempty"`
	FromEmail     string     `json:"from_email,omitempty"`
	FromName      string     `json:"from_name,omitempty"`
	To            StringList `json:"to"`
	CC            StringList `json:"cc,omitempty"`
	BCC           StringList `json:"bcc,omitempty"`
	SubjectPrefix string     `json:"subject_prefix,omitempty"`
}

// SMTPConfig is an optional per-tenant mail transport. Absence means the
// process-default transport is used.
type SMTPConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
	Encryption string `json:"encryption,omitempty"`
}

// NotificationsEnabled reports whether a notification should be composed at
// all. A missing enabled flag counts as enabled; only an explicit false turns
// notifications off.
func (c *TenantConfig) NotificationsEnabled() bool {
	if c.Email == nil || c.Email.Enabled == nil {
		return true
	}
	return *c.Email.Enabled
}

// Origins returns the allow-list, defaulting to the wildcard when the record
// carries none.
func (c *TenantConfig) Origins() []string {
	if len(c.AllowedOrigins) == 0 {
		return []string{Wildcard}
	}
	return c.AllowedOrigins
}

// Get traverses the raw record by a dotted path ("email.subject_prefix"),
// returning def the first time a segment is missing or the value under the
// cursor is not a mapping.
func (c *TenantConfig) Get(path string, def any) any {
	return DottedLookup(c.Raw, path, def)
}

// StringList decodes a JSON string or array of strings into a slice. Tenant
// records use both forms interchangeably for recipient lists.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = StringList(many)
	return nil
}

// Record is one raw backing config record.
type Record struct {
	ID   string
	Data []byte
}

// Source abstracts the durable store of tenant config records.
type Source interface {
	// Read returns the raw record for a sanitized config id, or found=false.
	Read(ctx context.Context, id string) (data []byte, found bool, err error)
	// List returns all records. Used only by tenant-id lookup; no index exists.
	List(ctx context.Context) ([]Record, error)
}

// Resolver resolves tenant configurations with process-lifetime caching.
type Resolver interface {
	Load(ctx context.Context, configID string) (*TenantConfig, error)
	LoadByTenantID(ctx context.Context, tenantID string) (*TenantConfig, bool, error)
	// AllowedOrigins is a fail-open helper for CORS pre-authorization: any
	// resolution failure yields the wildcard rather than blocking preflight.
	AllowedOrigins(ctx context.Context, configID string) []string
}
