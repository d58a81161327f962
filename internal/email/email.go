// Package email renders and delivers transactional email.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/01moynul/tradelink-golang/internal/config"
)

// Template names a message layout.
type Template string

const (
	TemplateTradesmanApproved Template = "tradesman_approved"
	TemplateTradesmanRejected Template = "tradesman_rejected"
)

// ApprovalData fills the approval templates. Note is the admin's optional
// comment or rejection reason.
type ApprovalData struct {
	Name string
	Note string
}

// Message is a rendered email.
type Message struct {
	Subject string
	HTML    string
}

type layout struct {
	subject string
	body    *template.Template
}

var layouts = map[Template]layout{
	TemplateTradesmanApproved: {
		subject: "Your account has been approved",
		body: template.Must(template.New(string(TemplateTradesmanApproved)).Parse(
			`<p>Hi {{.Name}},</p>
<p>Your tradesman account has been <strong>approved</strong>. You can now go live and share your travel plans.</p>
{{- if .Note}}
<p>Note from the team: {{.Note}}</p>
{{- end}}`)),
	},
	TemplateTradesmanRejected: {
		subject: "Your tradesman request was rejected",
		body: template.Must(template.New(string(TemplateTradesmanRejected)).Parse(
			`<p>Hi {{.Name}},</p>
<p>Your tradesman account request has been <strong>rejected</strong>.</p>
{{- if .Note}}
<p>Reason: {{.Note}}</p>
{{- end}}`)),
	},
}

// Render fills the named template with data.
func Render(tmpl Template, data any) (Message, error) {
	l, ok := layouts[tmpl]
	if !ok {
		return Message{}, fmt.Errorf("unknown email template %q", tmpl)
	}
	var buf bytes.Buffer
	if err := l.body.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", tmpl, err)
	}
	return Message{Subject: l.subject, HTML: buf.String()}, nil
}

// Notifier delivers templated email.
type Notifier interface {
	Send(ctx context.Context, to string, tmpl Template, data any) error
}

// NewNotifier returns an SMTP notifier when a relay is configured and a
// logging notifier otherwise.
func NewNotifier(cfg config.SMTPConfig, logger *slog.Logger) Notifier {
	if cfg.Enabled() {
		return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
	}
	return &LogNotifier{Logger: logger}
}

// LogNotifier writes rendered email to the log instead of sending it.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Send(ctx context.Context, to string, tmpl Template, data any) error {
	msg, err := Render(tmpl, data)
	if err != nil {
		return err
	}
	n.Logger.InfoContext(ctx, "email (not sent, no SMTP relay configured)",
		"to", to, "template", string(tmpl), "subject", msg.Subject, "body", msg.HTML)
	return nil
}

// SMTPNotifier sends email through an SMTP relay with PLAIN auth.
type SMTPNotifier struct {
	cfg  config.SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (n *SMTPNotifier) Send(ctx context.Context, to string, tmpl Template, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := Render(tmpl, data)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	if err := n.send(addr, auth, n.cfg.From, []string{to}, compose(n.cfg.From, to, msg)); err != nil {
		return fmt.Errorf("send %s to %s: %w", tmpl, to, err)
	}
	return nil
}

func compose(from, to string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}
