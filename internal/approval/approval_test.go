package approval

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/email"
	"github.com/01moynul/tradelink-golang/internal/memstore"
	"github.com/01moynul/tradelink-golang/internal/models"
	"github.com/01moynul/tradelink-golang/internal/pagination"
)

type sent struct {
	to   string
	tmpl email.Template
	data email.ApprovalData
}

type recordingNotifier struct {
	sent []sent
	err  error
}

func (n *recordingNotifier) Send(ctx context.Context, to string, tmpl email.Template, data any) error {
	n.sent = append(n.sent, sent{to: to, tmpl: tmpl, data: data.(email.ApprovalData)})
	return n.err
}

func newService(t *testing.T) (*Service, *memstore.Store, *recordingNotifier) {
	t.Helper()
	store := memstore.New()
	n := &recordingNotifier{}
	return NewService(store, n, slog.New(slog.NewTextHandler(io.Discard, nil))), store, n
}

func TestPending(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	a := store.AddUser(models.User{Role: models.RoleTradesman, Name: "A"})
	store.AddUser(models.User{Role: models.RoleTradesman, Name: "B"})
	store.AddUser(models.User{Role: models.RoleClient, Name: "C"})

	if _, err := svc.Approve(ctx, a.ID, ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	page, err := svc.Pending(ctx, pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if page.Meta.Total != 1 || page.Data[0].User.Name != "B" {
		t.Fatalf("pending = %+v", page)
	}
}

func TestApproveAndReject(t *testing.T) {
	svc, store, n := newService(t)
	ctx := context.Background()
	tom := store.AddUser(models.User{Role: models.RoleTradesman, Name: "Tom", Email: "tom@example.com"})

	got, err := svc.Approve(ctx, tom.ID, " Welcome aboard ")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !got.Details.IsApproved {
		t.Fatal("tradesman not approved")
	}
	if len(n.sent) != 1 || n.sent[0].tmpl != email.TemplateTradesmanApproved || n.sent[0].to != "tom@example.com" || n.sent[0].data.Note != "Welcome aboard" {
		t.Fatalf("sent = %+v", n.sent)
	}

	got, err = svc.Reject(ctx, tom.ID, "Licence expired")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got.Details.IsApproved || n.sent[1].tmpl != email.TemplateTradesmanRejected {
		t.Fatalf("after reject: %+v, sent %+v", got.Details, n.sent)
	}
}

func TestDecisionStandsWhenEmailFails(t *testing.T) {
	svc, store, n := newService(t)
	n.err = errors.New("smtp down")
	tom := store.AddUser(models.User{Role: models.RoleTradesman, Name: "Tom"})

	got, err := svc.Approve(context.Background(), tom.ID, "")
	if err != nil || !got.Details.IsApproved {
		t.Fatalf("Approve() = %+v, %v", got, err)
	}
}

func TestApproveNonTradesman(t *testing.T) {
	svc, store, _ := newService(t)
	client := store.AddUser(models.User{Role: models.RoleClient, Name: "Cleo"})

	if _, err := svc.Approve(context.Background(), client.ID, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Approve(client) err = %v", err)
	}
	if _, err := svc.Approve(context.Background(), 9999, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Approve(missing) err = %v", err)
	}
}
