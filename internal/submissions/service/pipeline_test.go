package service

import (
	"context"
	"errors"
	"testing"

	"github.com/formsink/formsink/internal/logger"
	"github.com/formsink/formsink/internal/submissions/domain"
	tdomain "github.com/formsink/formsink/internal/tenants/domain"
)

type stubResolver struct {
	cfg *tdomain.TenantConfig
	err error
}

func (s *stubResolver) Load(ctx context.Context, id string) (*tdomain.TenantConfig, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.cfg, nil
}

func (s *stubResolver) LoadByTenantID(ctx context.Context, tenantID string) (*tdomain.TenantConfig, bool, error) {
	return nil, false, nil
}

func (s *stubResolver) AllowedOrigins(ctx context.Context, id string) []string {
	return []string{tdomain.Wildcard}
}

type memRepo struct {
	saveErr    error
	saved      []*domain.FormData
	savedNames []string
}

func (m *memRepo) SaveSubmission(ctx context.Context, fields *domain.FormData, formName string) (int64, error) {
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.saved = append(m.saved, fields)
	m.savedNames = append(m.savedNames, formName)
	return int64(len(m.saved)), nil
}

func (m *memRepo) GetSubmissions(ctx context.Context, limit, offset int, formName string) ([]domain.Submission, error) {
	return nil, nil
}

func (m *memRepo) GetSubmission(ctx context.Context, id int64) (*domain.Submission, bool, error) {
	return nil, false, nil
}

func (m *memRepo) CountSubmissions(ctx context.Context, formName string) (int64, error) {
	return int64(len(m.saved)), nil
}

func (m *memRepo) ListFormNames(ctx context.Context) ([]string, error) { return nil, nil }

type stubProvider struct {
	repo domain.Repository
	err  error
}

func (s *stubProvider) For(ctx context.Context, cfg *tdomain.TenantConfig) (domain.Repository, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.repo, nil
}

type stubNotifier struct {
	calls     int
	fields    *domain.FormData
	overrides domain.Specials
	ok        bool
}

func (s *stubNotifier) Send(ctx context.Context, cfg *tdomain.TenantConfig, fields *domain.FormData, overrides domain.Specials) bool {
	s.calls++
	s.fields = fields
	s.overrides = overrides
	return s.ok
}

func wildcardConfig() *tdomain.TenantConfig {
	return &tdomain.TenantConfig{ConfigID: "t1", TenantID: "acme", AllowedOrigins: []string{"*"}}
}

type fixture struct {
	pipeline *Pipeline
	repo     *memRepo
	notifier *stubNotifier
}

func newFixture(cfg *tdomain.TenantConfig, resolveErr error) fixture {
	repo := &memRepo{}
	notifier := &stubNotifier{ok: true}
	p := New(
		&stubResolver{cfg: cfg, err: resolveErr},
		&stubProvider{repo: repo},
		notifier,
		nil,
		logger.Nop(),
	)
	return fixture{pipeline: p, repo: repo, notifier: notifier}
}

func formOf(pairs ...string) *domain.FormData {
	f := domain.NewFormData()
	for i := 0; i+1 < len(pairs); i += 2 {
		f.Append(pairs[i], pairs[i+1])
	}
	return f
}

func TestProcess_MissingConfigID(t *testing.T) {
	fx := newFixture(wildcardConfig(), nil)
	out := fx.pipeline.Process(context.Background(), domain.Request{Fields: formOf("name", "Ann")})
	if out.Success {
		t.Fatalf("expected failure")
	}
	if out.Kind != domain.FailMissingConfig {
		t.Fatalf("expected missing-config failure, got %q", out.Kind)
	}
	if out.Message != "Missing configId" {
		t.Fatalf("unexpected message %q", out.Message)
	}
}

func TestProcess_ResolverFailureIsGeneric(t *testing.T) {
	fx := newFixture(nil, errors.New("disk exploded: /etc/secrets"))
	out := fx.pipeline.Process(context.Background(), domain.Request{Fields: formOf("configId", "t1", "name", "Ann")})
	if out.Success {
		t.Fatalf("expected failure")
	}
	if out.Kind != domain.FailConfig {
		t.Fatalf("expected config failure, got %q", out.Kind)
	}
	// Causes are logged, never surfaced.
	if out.Message != "An error occurred. Please try again." {
		t.Fatalf("resolver detail leaked to caller: %q", out.Message)
	}
}

func TestOriginAuthorized(t *testing.T) {
	allowed := []string{"https://a.example"}

	cases := []struct {
		name            string
		allowed         []string
		origin, referer string
		want            bool
	}{
		{"wildcard allows absent headers", []string{"*"}, "", "", true},
		{"wildcard allows anything", []string{"*"}, "https://evil.example", "", true},
		{"exact origin", allowed, "https://a.example", "", true},
		{"other origin rejected", allowed, "https://b.example", "", false},
		{"referer prefix", allowed, "", "https://a.example/page?x=1", true},
		{"referer embedding allowed url rejected", allowed, "", "https://evil.example/https://a.example", false},
		{"both absent rejected", allowed, "", "", false},
	}
	for _, tc := range cases {
		if got := originAuthorized(tc.allowed, tc.origin, tc.referer); got != tc.want {
			t.Errorf("%s: originAuthorized = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestProcess_OriginRejected(t *testing.T) {
	cfg := &tdomain.TenantConfig{ConfigID: "t1", AllowedOrigins: []string{"https://a.example"}}
	fx := newFixture(cfg, nil)
	out := fx.pipeline.Process(context.Background(), domain.Request{
		Fields: formOf("configId", "t1", "name", "Ann"),
		Origin: "https://b.example",
	})
	if out.Success || out.Kind != domain.FailOrigin {
		t.Fatalf("expected origin failure, got %+v", out)
	}
	if len(fx.repo.saved) != 0 || fx.notifier.calls != 0 {
		t.Fatalf("rejected submission must not reach the gateways")
	}
}

func TestProcess_HoneypotSilentlyAccepted(t *testing.T) {
	fx := newFixture(wildcardConfig(), nil)
	out := fx.pipeline.Process(context.Background(), domain.Request{
		Fields: formOf("configId", "t1", "_honeypot", "gotcha", "name", "Ann"),
	})
	if !out.Success {
		t.Fatalf("bots must get a success response")
	}
	if out.Message != "OK" {
		t.Fatalf("unexpected message %q", out.Message)
	}
	if out.SubmissionID != 0 {
		t.Fatalf("bot submission must not carry a submission id")
	}
	if len(fx.repo.saved) != 0 {
		t.Fatalf("bot submission must not be persisted")
	}
	if fx.notifier.calls != 0 {
		t.Fatalf("bot submission must not be notified")
	}
}

func TestProcess_PartitionsReservedFields(t *testing.T) {
	fx := newFixture(wildcardConfig(), nil)
	out := fx.pipeline.Process(context.Background(), domain.Request{
		Fields: formOf(
			"configId", "t1",
			"tomail", "override@x.example",
			"bcc", "b@x.example",
			"cc", "c@x.example",
			"_formname", "contact",
			"_redirect", "https://a.example/thanks",
			"_honeypot", "",
			"_subject", "Hello",
			"_private", "dropme",
			"name", "Ann",
		),
	})
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if out.Redirect != "https://a.example/thanks" {
		t.Fatalf("expected redirect override, got %q", out.Redirect)
	}
	if out.SubmissionID != 1 {
		t.Fatalf("expected submission id 1, got %d", out.SubmissionID)
	}

	saved := fx.repo.saved[0]
	if saved.Len() != 1 {
		t.Fatalf("expected only user data persisted, got keys %v", saved.Keys())
	}
	if _, ok := saved.Get("name"); !ok {
		t.Fatalf("user field missing from persisted set")
	}
	if fx.repo.savedNames[0] != "contact" {
		t.Fatalf("expected form name contact, got %q", fx.repo.savedNames[0])
	}

	if fx.notifier.calls != 1 {
		t.Fatalf("expected exactly one notification attempt, got %d", fx.notifier.calls)
	}
	if got, ok := fx.notifier.overrides.Subject(); !ok || got != "Hello" {
		t.Fatalf("subject override lost: %v", fx.notifier.overrides)
	}
	if got, _ := fx.notifier.overrides.Recipients("tomail"); len(got) != 1 || got[0] != "override@x.example" {
		t.Fatalf("tomail override lost: %v", got)
	}
}

func TestProcess_DefaultFormName(t *testing.T) {
	fx := newFixture(wildcardConfig(), nil)
	out := fx.pipeline.Process(context.Background(), domain.Request{
		Fields: formOf("configId", "t1", "name", "Ann"),
	})
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if fx.repo.savedNames[0] != "default" {
		t.Fatalf("expected default form name, got %q", fx.repo.savedNames[0])
	}
}

func TestProcess_EmptyFormNameIsKept(t *testing.T) {
	fx := newFixture(wildcardConfig(), nil)
	out := fx.pipeline.Process(context.Background(), domain.Request{
		Fields: formOf("configId", "t1", "_formname", "", "name", "Ann"),
	})
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	// A posted form name wins even when empty; only an absent one defaults.
	if fx.repo.savedNames[0] != "" {
		t.Fatalf("expected empty form name, got %q", fx.repo.savedNames[0])
	}
}

func TestProcess_NoFormData(t *testing.T) {
	fx := newFixture(wildcardConfig(), nil)
	out := fx.pipeline.Process(context.Background(), domain.Request{
		Fields: formOf("configId", "t1", "_private", "x"),
	})
	if out.Success || out.Kind != domain.FailNoData {
		t.Fatalf("expected no-data failure, got %+v", out)
	}
	if out.Message != "No form data received" {
		t.Fatalf("unexpected message %q", out.Message)
	}
}

func TestProcess_PersistenceFailureIsFatal(t *testing.T) {
	fx := newFixture(wildcardConfig(), nil)
	fx.repo.saveErr = errors.New("pq: connection refused 10.0.0.3")
	out := fx.pipeline.Process(context.Background(), domain.Request{
		Fields: formOf("configId", "t1", "name", "Ann"),
	})
	if out.Success || out.Kind != domain.FailPersistence {
		t.Fatalf("expected persistence failure, got %+v", out)
	}
	if out.Message != "An error occurred. Please try again." {
		t.Fatalf("store detail leaked to caller: %q", out.Message)
	}
	if fx.notifier.calls != 0 {
		t.Fatalf("failed persistence must not trigger a notification")
	}
}

func TestProcess_NotificationFailureIsSwallowed(t *testing.T) {
	fx := newFixture(wildcardConfig(), nil)
	fx.notifier.ok = false
	out := fx.pipeline.Process(context.Background(), domain.Request{
		Fields: formOf("configId", "t1", "name", "Ann"),
	})
	if !out.Success {
		t.Fatalf("notification failure must not fail the pipeline: %+v", out)
	}
	if out.Message != "Form submitted successfully" {
		t.Fatalf("unexpected message %q", out.Message)
	}
	if out.SubmissionID == 0 {
		t.Fatalf("expected a submission id")
	}
}
