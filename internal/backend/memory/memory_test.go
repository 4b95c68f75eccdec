package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"invoicer/internal/core"
)

func input(number string) core.InvoiceInput {
	return core.InvoiceInput{
		InvoiceNumber: number,
		DueDate:       "2025-02-01",
		BillTo:        core.Recipient{ClientName: "Globex", Email: "ap@globex.com"},
		Items:         []core.InvoiceItem{{Name: "Work", Quantity: 1, UnitPrice: 100, Total: 100}},
		Total:         100,
	}
}

func TestStoreCreateListUpdateDelete(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New().WithClock(func() time.Time { return now })

	inv, err := s.CreateInvoice(ctx, input("INV-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.ID != "mem-1" || inv.Status != core.StatusUnpaid || !inv.CreatedAt.Equal(now) {
		t.Fatalf("server fields not assigned: %+v", inv)
	}

	if _, err := s.CreateInvoice(ctx, input("INV-1")); err == nil {
		t.Fatal("expected duplicate number to be rejected")
	}

	updated, err := s.UpdateInvoice(ctx, inv.ID, core.StatusPatch(core.StatusPaid))
	if err != nil || updated.Status != core.StatusPaid || updated.Total != 100 {
		t.Fatalf("update: %+v %v", updated, err)
	}

	list, _ := s.ListInvoices(ctx)
	if len(list) != 1 || list[0].Status != core.StatusPaid {
		t.Fatalf("list: %+v", list)
	}

	if err := s.DeleteInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var me *Error
	if _, err := s.GetInvoice(ctx, inv.ID); !errors.As(err, &me) || me.StatusCode != 404 || me.ServerMessage() != "Invoice not found" {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Put(core.Invoice{InvoiceNumber: "INV-1", Items: []core.InvoiceItem{{Name: "a"}}})
	list, _ := s.ListInvoices(ctx)
	list[0].Items[0].Name = "changed"
	list[0].Status = core.StatusPaid

	again, _ := s.ListInvoices(ctx)
	if again[0].Items[0].Name != "a" || again[0].Status != core.StatusUnpaid {
		t.Fatalf("store state leaked: %+v", again[0])
	}
}

func TestStoreFailureInjection(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()
	boom := &Error{StatusCode: 500, Message: "database down"}
	s.Fail(OpList, boom)

	if _, err := s.ListInvoices(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	s.Recover(OpList)
	if _, err := s.ListInvoices(ctx); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if s.Calls(OpList) != 2 {
		t.Fatalf("calls = %d", s.Calls(OpList))
	}
}

func TestStoreAuth(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	if _, err := s.Login(ctx, core.Credentials{Email: "demo@invoicer.local", Password: "nope"}); err == nil {
		t.Fatal("expected invalid credentials")
	}
	res, err := s.Login(ctx, core.Credentials{Email: "DEMO@invoicer.local", Password: "demo123"})
	if err != nil || res.Token == "" || res.Profile.BusinessName != "Demo Studio" {
		t.Fatalf("login: %+v %v", res, err)
	}

	p, err := s.UpdateProfile(ctx, core.ProfileUpdate{FullName: "Demo", Email: "new@invoicer.local", BusinessName: "New Studio"})
	if err != nil || p.BusinessName != "New Studio" || p.ID != "mem-user-1" {
		t.Fatalf("profile: %+v %v", p, err)
	}
	if _, err := s.Login(ctx, core.Credentials{Email: "new@invoicer.local", Password: "demo123"}); err != nil {
		t.Fatalf("login with changed email: %v", err)
	}

	if _, err := s.Signup(ctx, core.SignupRequest{FullName: "X", Email: "new@invoicer.local", Password: "secret"}); err == nil {
		t.Fatal("expected duplicate signup to fail")
	}
}

func TestStoreAssistant(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	insights, err := s.Insights(ctx)
	if err != nil || !strings.Contains(insights, "1 of 3 invoices are paid") {
		t.Fatalf("insights: %q %v", insights, err)
	}

	inv, err := s.ParseText(ctx, "  logo design for Acme  ")
	if err != nil || inv.ID == "" || inv.Items[0].Name != "logo design for Acme" {
		t.Fatalf("parse: %+v %v", inv, err)
	}
	if _, err := s.ParseText(ctx, " "); err == nil {
		t.Fatal("expected blank text to be rejected")
	}

	mail, err := s.GenerateReminder(ctx, inv.ID)
	if err != nil || !strings.Contains(mail, inv.InvoiceNumber) {
		t.Fatalf("reminder: %q %v", mail, err)
	}

	if text, _ := New().Insights(ctx); text != "" {
		t.Fatalf("empty store must yield empty insights, got %q", text)
	}
}
