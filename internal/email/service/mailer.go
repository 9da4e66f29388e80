package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/formsink/formsink/internal/config"
	edomain "github.com/formsink/formsink/internal/email/domain"
	"github.com/formsink/formsink/internal/platform/validation"
	sdomain "github.com/formsink/formsink/internal/submissions/domain"
	tdomain "github.com/formsink/formsink/internal/tenants/domain"
)

// Ensure Mailer implements domain.Notifier
var _ edomain.Notifier = (*Mailer)(nil)

const defaultSubjectPrefix = "[Form Submission]"

// sender abstracts the SMTP dial so tests can capture messages.
type sender interface {
	DialAndSend(msgs ...*gomail.Message) error
}

// Mailer composes the notification email for a submission and delivers it
// over SMTP. Per-tenant transport settings win over the process defaults.
type Mailer struct {
	cfg config.Config
	log zerolog.Logger

	// dial builds the transport for one send; swapped out in tests.
	dial func(smtp *tdomain.SMTPConfig) sender
}

func NewMailer(cfg config.Config, log zerolog.Logger) *Mailer {
	m := &Mailer{cfg: cfg, log: log}
	m.dial = m.dialer
	return m
}

func (m *Mailer) dialer(smtp *tdomain.SMTPConfig) sender {
	if smtp != nil && smtp.Host != "" {
		port := smtp.Port
		if port == 0 {
			port = 587
		}
		d := gomail.NewDialer(smtp.Host, port, smtp.Username, smtp.Password)
		if strings.EqualFold(smtp.Encryption, "ssl") {
			d.SSL = true
		}
		return d
	}
	return gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.SMTPUsername, m.cfg.SMTPPassword)
}

// Send composes and dispatches the notification. It never returns an error:
// a tenant with notifications disabled is a no-op success, anything else that
// goes wrong is logged and reported as false.
func (m *Mailer) Send(ctx context.Context, cfg *tdomain.TenantConfig, fields *sdomain.FormData, overrides sdomain.Specials) bool {
	if !cfg.NotificationsEnabled() {
		return true
	}

	msg, err := m.compose(cfg, fields, overrides)
	if err != nil {
		m.log.Error().Str("config_id", cfg.ConfigID).Err(err).Msg("notification compose failed")
		return false
	}

	if err := m.dial(cfg.SMTP).DialAndSend(msg); err != nil {
		m.log.Error().Str("config_id", cfg.ConfigID).Err(err).Msg("notification send failed")
		return false
	}
	return true
}

func (m *Mailer) compose(cfg *tdomain.TenantConfig, fields *sdomain.FormData, overrides sdomain.Specials) (*gomail.Message, error) {
	var email tdomain.EmailConfig
	if cfg.Email != nil {
		email = *cfg.Email
	}

	to := recipients(overrides, "tomail", email.To)
	if len(to) == 0 {
		return nil, fmt.Errorf("no valid recipients")
	}

	fromEmail := email.FromEmail
	if fromEmail == "" {
		fromEmail = m.cfg.SMTPFrom
	}
	fromName := email.FromName
	if fromName == "" {
		fromName = m.cfg.SMTPFromName
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", fromEmail, fromName)
	msg.SetHeader("To", to...)
	if cc := recipients(overrides, "cc", email.CC); len(cc) > 0 {
		msg.SetHeader("Cc", cc...)
	}
	if bcc := recipients(overrides, "bcc", email.BCC); len(bcc) > 0 {
		msg.SetHeader("Bcc", bcc...)
	}

	msg.SetHeader("Subject", subject(email.SubjectPrefix, overrides))

	now := time.Now()
	msg.SetBody("text/plain", textBody(fields, now))
	msg.AddAlternative("text/html", htmlBody(fields, now))
	return msg, nil
}

// recipients resolves one recipient slot: the override wins when present,
// otherwise the configured list. Candidates may be comma-joined; invalid
// addresses are dropped silently.
func recipients(overrides sdomain.Specials, slot string, configured tdomain.StringList) []string {
	candidates, ok := overrides.Recipients(slot)
	if !ok {
		candidates = configured
	}
	var out []string
	for _, c := range candidates {
		for _, addr := range strings.Split(c, ",") {
			addr = strings.TrimSpace(addr)
			if validation.IsEmailAddress(addr) {
				out = append(out, addr)
			}
		}
	}
	return out
}

// subject resolves the notification subject. A posted subject wins even when
// empty; only an absent one falls back to prefix + form name.
func subject(prefix string, overrides sdomain.Specials) string {
	if s, ok := overrides.Subject(); ok {
		return s
	}
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}
	formName := "Form"
	if name, ok := overrides.FormName(); ok {
		formName = name
	}
	return prefix + " " + formName
}

func renderValue(v sdomain.FieldValue) string {
	if v.IsList() {
		return "[" + strings.Join(v.Items(), ", ") + "]"
	}
	return v.First()
}

func htmlBody(fields *sdomain.FormData, at time.Time) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8"></head><body>`)
	b.WriteString(`<h2>New Form Submission</h2>`)
	b.WriteString(`<table border="1" cellpadding="10" cellspacing="0" style="border-collapse: collapse;">`)
	for _, key := range fields.Keys() {
		v, _ := fields.Get(key)
		value := html.EscapeString(renderValue(v))
		value = strings.ReplaceAll(value, "\n", "<br>")
		b.WriteString(`<tr><td style="background:#f5f5f5;"><strong>`)
		b.WriteString(html.EscapeString(key))
		b.WriteString(`</strong></td><td>`)
		b.WriteString(value)
		b.WriteString(`</td></tr>`)
	}
	b.WriteString(`</table>`)
	b.WriteString(`<p style="color:#666;font-size:12px;">Submitted at: `)
	b.WriteString(at.Format("2006-01-02 15:04:05"))
	b.WriteString(`</p></body></html>`)
	return b.String()
}

func textBody(fields *sdomain.FormData, at time.Time) string {
	var b strings.Builder
	b.WriteString("New Form Submission\n")
	b.WriteString(strings.Repeat("=", 40))
	b.WriteString("\n\n")
	for _, key := range fields.Keys() {
		v, _ := fields.Get(key)
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(renderValue(v))
		b.WriteString("\n")
	}
	b.WriteString("\nSubmitted at: ")
	b.WriteString(at.Format("2006-01-02 15:04:05"))
	return b.String()
}
