package domain

import (
	"context"
	"time"

	tdomain "github.com/formsink/formsink/internal/tenants/domain"
)

// ReservedPrefix marks control fields; sanitization drops any user field still
// carrying it.
const ReservedPrefix = "_"

// ReservedFields are the eight control names partitioned out of the user data
// before sanitization. Underscore-prefixed names are exposed to later stages
// with the prefix stripped.
var ReservedFields = []string{
	"configId",
	"tomail",
	"bcc",
	"cc",
	"_formname",
	"_redirect",
	"_honeypot",
	"_subject",
}

// FieldConfigID is the reserved field carrying the tenant config lookup key.
const FieldConfigID = "configId"

// FieldHoneypot is the raw honeypot field name, checked before partitioning.
const FieldHoneypot = "_honeypot"

// Specials holds the partitioned reserved fields, keyed without the
// underscore prefix.
type Specials map[string]FieldValue

func (s Specials) lookup(key string) (string, bool) {
	v, ok := s[key]
	return v.First(), ok
}

// FormName and Subject report presence separately from the value: a field
// posted with an empty value still overrides the defaults.
func (s Specials) FormName() (string, bool) { return s.lookup("formname") }
func (s Specials) Subject() (string, bool)  { return s.lookup("subject") }

// Redirect treats empty as absent; there is no empty redirect target.
func (s Specials) Redirect() string {
	v, _ := s.lookup("redirect")
	return v
}

// Recipients returns the override address candidates for a recipient slot
// ("tomail", "cc", "bcc") and whether an override was supplied at all.
func (s Specials) Recipients(slot string) ([]string, bool) {
	v, ok := s[slot]
	if !ok {
		return nil, false
	}
	return v.Items(), true
}

// Submission is one accepted, persisted form post. Immutable once stored.
type Submission struct {
	ID         int64
	FormName   string
	FormData   *FormData
	SenderIP   string
	UserAgent  string
	RefererURL string
	CreatedAt  time.Time
}

// FailureKind tags a pipeline failure for transport mapping.
type FailureKind string

const (
	FailNone          FailureKind = ""
	FailMissingConfig FailureKind = "missing_config"
	FailConfig        FailureKind = "config"
	FailOrigin        FailureKind = "origin_not_allowed"
	FailNoData        FailureKind = "no_form_data"
	FailPersistence   FailureKind = "persistence"
)

// Outcome is the caller-visible result of processing one submission. A bot
// submission succeeds with no SubmissionID.
type Outcome struct {
	Success      bool
	Message      string
	Redirect     string
	SubmissionID int64
	Kind         FailureKind
}

// Request is one inbound submission with the headers origin authorization
// needs. Request metadata for persistence travels in the context.
type Request struct {
	Fields  *FormData
	Origin  string
	Referer string
}

// Processor runs one submission through the pipeline.
type Processor interface {
	Process(ctx context.Context, req Request) Outcome
}

// Repository stores and queries submissions for one tenant. An empty formName
// filter means no filter.
type Repository interface {
	SaveSubmission(ctx context.Context, fields *FormData, formName string) (int64, error)
	GetSubmissions(ctx context.Context, limit, offset int, formName string) ([]Submission, error)
	GetSubmission(ctx context.Context, id int64) (*Submission, bool, error)
	CountSubmissions(ctx context.Context, formName string) (int64, error)
	ListFormNames(ctx context.Context) ([]string, error)
}

// RepositoryProvider hands out the repository backed by a tenant's own
// database.
type RepositoryProvider interface {
	For(ctx context.Context, cfg *tdomain.TenantConfig) (Repository, error)
}
