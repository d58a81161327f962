package email

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"

	"github.com/01moynul/tradelink-golang/internal/config"
)

func TestRender(t *testing.T) {
	msg, err := Render(TemplateTradesmanRejected, ApprovalData{Name: "Tom", Note: "Missing <licence>"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if msg.Subject != "Your tradesman request was rejected" {
		t.Fatalf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "Reason: Missing &lt;licence&gt;") {
		t.Fatalf("HTML does not escape the note: %s", msg.HTML)
	}

	msg, err = Render(TemplateTradesmanApproved, ApprovalData{Name: "Tom"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(msg.HTML, "Note from the team") {
		t.Fatalf("empty note rendered: %s", msg.HTML)
	}

	if _, err := Render("welcome", nil); err == nil {
		t.Fatal("unknown template rendered")
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := &LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	if err := n.Send(context.Background(), "tom@example.com", TemplateTradesmanApproved, ApprovalData{Name: "Tom"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.Contains(buf.String(), "to=tom@example.com") {
		t.Fatalf("log output = %s", buf.String())
	}
}

func TestSMTPNotifier(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	n := &SMTPNotifier{
		cfg: config.SMTPConfig{Host: "smtp.example.com", Port: 2525, From: "no-reply@example.com"},
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotTo, gotMsg = addr, to, string(msg)
			return nil
		},
	}
	if err := n.Send(context.Background(), "tom@example.com", TemplateTradesmanApproved, ApprovalData{Name: "Tom"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAddr != "smtp.example.com:2525" || len(gotTo) != 1 || gotTo[0] != "tom@example.com" {
		t.Fatalf("addr = %q, to = %v", gotAddr, gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: Your account has been approved\r\n") || !strings.Contains(gotMsg, "text/html") {
		t.Fatalf("message = %q", gotMsg)
	}

	n.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }
	if err := n.Send(context.Background(), "tom@example.com", TemplateTradesmanApproved, ApprovalData{}); err == nil {
		t.Fatal("expected relay error")
	}
}

func TestNewNotifier(t *testing.T) {
	if _, ok := NewNotifier(config.SMTPConfig{}, slog.Default()).(*LogNotifier); !ok {
		t.Fatal("expected LogNotifier without SMTP host")
	}
	if _, ok := NewNotifier(config.SMTPConfig{Host: "smtp.example.com"}, slog.Default()).(*SMTPNotifier); !ok {
		t.Fatal("expected SMTPNotifier with SMTP host")
	}
}
