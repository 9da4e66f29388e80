package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/formsink/formsink/internal/config"
	"github.com/formsink/formsink/internal/logger"
	sdomain "github.com/formsink/formsink/internal/submissions/domain"
	tdomain "github.com/formsink/formsink/internal/tenants/domain"
)

type captureSender struct {
	msgs []*gomail.Message
	err  error
}

func (c *captureSender) DialAndSend(msgs ...*gomail.Message) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func newTestMailer(capture *captureSender) (*Mailer, *[]*tdomain.SMTPConfig) {
	m := NewMailer(config.Config{
		SMTPHost:     "smtp.internal",
		SMTPPort:     25,
		SMTPFrom:     "noreply@formsink.example",
		SMTPFromName: "Formsink",
	}, logger.Nop())

	var dialed []*tdomain.SMTPConfig
	m.dial = func(smtp *tdomain.SMTPConfig) sender {
		dialed = append(dialed, smtp)
		return capture
	}
	return m, &dialed
}

func tenantWithTo(to ...string) *tdomain.TenantConfig {
	return &tdomain.TenantConfig{
		ConfigID: "t1",
		Email:    &tdomain.EmailConfig{To: to},
	}
}

// rendered dumps the full wire form of a message for substring assertions;
// gomail does not expose header reads.
func rendered(t *testing.T, msg *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("render message: %v", err)
	}
	return buf.String()
}

func TestSend_DisabledIsNoopSuccess(t *testing.T) {
	capture := &captureSender{}
	m, dialed := newTestMailer(capture)

	disabled := false
	cfg := tenantWithTo("ops@x.example")
	cfg.Email.Enabled = &disabled

	if !m.Send(context.Background(), cfg, sdomain.NewFormData(), sdomain.Specials{}) {
		t.Fatalf("disabled notifications must report success")
	}
	if len(*dialed) != 0 || len(capture.msgs) != 0 {
		t.Fatalf("disabled notifications must not dial")
	}
}

func TestSend_NoValidRecipients(t *testing.T) {
	capture := &captureSender{}
	m, dialed := newTestMailer(capture)

	if m.Send(context.Background(), tenantWithTo("not-an-email"), sdomain.NewFormData(), sdomain.Specials{}) {
		t.Fatalf("expected failure with no valid recipients")
	}
	if len(*dialed) != 0 {
		t.Fatalf("compose failure must not dial")
	}
}

func TestSend_FiltersInvalidRecipients(t *testing.T) {
	capture := &captureSender{}
	m, _ := newTestMailer(capture)

	cfg := tenantWithTo("broken", "ops@x.example")
	if !m.Send(context.Background(), cfg, sdomain.NewFormData(), sdomain.Specials{}) {
		t.Fatalf("expected success")
	}
	out := rendered(t, capture.msgs[0])
	if !strings.Contains(out, "ops@x.example") {
		t.Errorf("valid recipient missing:\n%s", out)
	}
	if strings.Contains(out, "broken") {
		t.Errorf("invalid recipient kept:\n%s", out)
	}
}

func TestSend_OverridesWin(t *testing.T) {
	capture := &captureSender{}
	m, _ := newTestMailer(capture)

	cfg := tenantWithTo("configured@x.example")
	overrides := sdomain.Specials{
		"tomail":  sdomain.Scalar("a@x.example, b@x.example, junk"),
		"subject": sdomain.Scalar("Order #42"),
	}

	if !m.Send(context.Background(), cfg, sdomain.NewFormData(), overrides) {
		t.Fatalf("expected success")
	}
	out := rendered(t, capture.msgs[0])
	for _, want := range []string{"a@x.example", "b@x.example", "Subject: Order #42"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "configured@x.example") {
		t.Errorf("override did not replace configured recipients:\n%s", out)
	}
}

func TestSend_DialFailure(t *testing.T) {
	capture := &captureSender{err: errors.New("connect timeout")}
	m, _ := newTestMailer(capture)

	if m.Send(context.Background(), tenantWithTo("ops@x.example"), sdomain.NewFormData(), sdomain.Specials{}) {
		t.Fatalf("dial failure must report false")
	}
}

func TestSend_UsesTenantSMTPWhenConfigured(t *testing.T) {
	capture := &captureSender{}
	m, dialed := newTestMailer(capture)

	cfg := tenantWithTo("ops@x.example")
	cfg.SMTP = &tdomain.SMTPConfig{Host: "smtp.tenant.example", Port: 465, Encryption: "ssl"}

	if !m.Send(context.Background(), cfg, sdomain.NewFormData(), sdomain.Specials{}) {
		t.Fatalf("expected success")
	}
	if len(*dialed) != 1 || (*dialed)[0] != cfg.SMTP {
		t.Fatalf("tenant SMTP settings not passed to dialer: %+v", *dialed)
	}
}

func TestSubject(t *testing.T) {
	cases := []struct {
		name      string
		prefix    string
		overrides sdomain.Specials
		want      string
	}{
		{"explicit subject wins", "[Contact]", sdomain.Specials{"subject": sdomain.Scalar("Hi")}, "Hi"},
		{"posted empty subject wins", "[Contact]", sdomain.Specials{"subject": sdomain.Scalar("")}, ""},
		{"prefix plus form name", "[Contact]", sdomain.Specials{"formname": sdomain.Scalar("sales")}, "[Contact] sales"},
		{"posted empty form name kept", "[Contact]", sdomain.Specials{"formname": sdomain.Scalar("")}, "[Contact] "},
		{"defaults", "", sdomain.Specials{}, "[Form Submission] Form"},
	}
	for _, tc := range cases {
		if got := subject(tc.prefix, tc.overrides); got != tc.want {
			t.Errorf("%s: subject = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestBodiesRenderFieldsInOrder(t *testing.T) {
	fields := sdomain.NewFormData()
	fields.Append("name", "Ann <admin>")
	fields.Append("tags", "a")
	fields.Append("tags", "b")
	fields.Append("message", "line1\nline2")

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	text := textBody(fields, at)
	if !strings.Contains(text, "name: Ann <admin>") {
		t.Errorf("text body missing field:\n%s", text)
	}
	if !strings.Contains(text, "tags: [a, b]") {
		t.Errorf("text body missing list rendering:\n%s", text)
	}
	if !strings.Contains(text, "Submitted at: 2026-03-14 09:26:53") {
		t.Errorf("text body missing timestamp:\n%s", text)
	}
	if strings.Index(text, "name:") > strings.Index(text, "message:") {
		t.Errorf("text body lost field order:\n%s", text)
	}

	html := htmlBody(fields, at)
	if !strings.Contains(html, "Ann &lt;admin&gt;") {
		t.Errorf("html body not escaped:\n%s", html)
	}
	if !strings.Contains(html, "line1<br>line2") {
		t.Errorf("html body missing newline conversion:\n%s", html)
	}
}
