package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"invoicer/internal/backend/memory"
	"invoicer/internal/cache"
	"invoicer/internal/core"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newService(t *testing.T, be *memory.Store) *InvoiceService {
	t.Helper()
	return NewInvoiceService(be, cache.NewLRUCache[string](16, time.Minute), nil)
}

func validDraft(t *testing.T) core.Draft {
	t.Helper()
	d := core.NewDraft(&core.Profile{BusinessName: "Acme Studio", Email: "hello@acme.in"}, testNow)
	steps := []struct{ path, value string }{
		{core.FieldInvoiceNumber, "INV-TEST001"},
		{core.FieldDueDate, "2025-03-29"},
		{core.FieldBillToName, "Globex"},
		{core.FieldBillToEmail, "ap@globex.in"},
	}
	var err error
	for _, s := range steps {
		if d, err = core.SetField(d, s.path, s.value); err != nil {
			t.Fatal(err)
		}
	}
	for field, value := range map[string]string{
		core.ItemDescription: "  Logo design  ",
		core.ItemQuantity:    "2",
		core.ItemPrice:       "100",
		core.ItemTax:         "10",
	} {
		if d, err = core.SetLineItem(d, 0, field, value); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func TestSubmitRejectsInvalidDraftWithoutRequest(t *testing.T) {
	be := memory.New()
	svc := newService(t, be)

	tests := []struct {
		name   string
		mutate func(core.Draft) core.Draft
		rule   string
		msg    string
	}{
		{"missing due date", func(d core.Draft) core.Draft { d.DueDate = ""; return d }, core.RuleInvoiceDetails, "Fill invoice details"},
		{"missing client email", func(d core.Draft) core.Draft { d.BillTo.Email = ""; return d }, core.RuleClientDetails, "Fill client details"},
		{"missing price", func(d core.Draft) core.Draft {
			d.Items = []core.LineItem{{Description: "x", Quantity: "1", Tax: "0"}}
			return d
		}, core.RuleItemFields, "Fill all item fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.mutate(validDraft(t)))
			var ve *core.ValidationError
			if !errors.As(err, &ve) || ve.Rule != tt.rule || ve.Message != tt.msg {
				t.Fatalf("got %v, want %s %q", err, tt.rule, tt.msg)
			}
		})
	}
	if n := be.Calls(memory.OpCreate); n != 0 {
		t.Fatalf("validation failures reached the backend %d times", n)
	}
}

func TestSubmitCreatesInvoice(t *testing.T) {
	be := memory.New()
	svc := newService(t, be)
	d := validDraft(t)

	res, err := svc.Submit(context.Background(), d)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Next != "/invoices/"+res.Invoice.ID || res.Invoice.ID == "" {
		t.Fatalf("unexpected next target %q for id %q", res.Next, res.Invoice.ID)
	}
	inv := res.Invoice
	if inv.Total != 220 || inv.Subtotal != 200 || inv.TaxTotal != 20 {
		t.Fatalf("unexpected totals %v %v %v", inv.Subtotal, inv.TaxTotal, inv.Total)
	}
	if inv.Items[0].Name != "Logo design" || inv.PaymentTerms != core.DefaultPaymentTerms || inv.Status != core.StatusUnpaid {
		t.Fatalf("unexpected invoice %+v", inv)
	}
	if inv.BillFrom.BusinessName != "Acme Studio" || inv.BillTo.ClientName != "Globex" {
		t.Fatalf("names not mapped: %+v %+v", inv.BillFrom, inv.BillTo)
	}
}

func TestSubmitFailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"backend message", &memory.Error{StatusCode: http.StatusInternalServerError, Message: "Database unavailable"}, "Database unavailable"},
		{"no message", &memory.Error{StatusCode: http.StatusInternalServerError}, MsgSubmitFailed},
		{"transport error", errors.New("dial tcp: connection refused"), MsgSubmitFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := memory.New()
			be.Fail(memory.OpCreate, tt.err)
			_, err := newService(t, be).Submit(context.Background(), validDraft(t))

			var re *RequestError
			if !errors.As(err, &re) || re.Message != tt.want {
				t.Fatalf("got %v, want %q", err, tt.want)
			}
			if !errors.Is(err, tt.err) {
				t.Fatal("cause not wrapped")
			}
		})
	}
}

func TestSubmitDuplicateNumber(t *testing.T) {
	svc := newService(t, memory.New())
	d := validDraft(t)
	if _, err := svc.Submit(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Submit(context.Background(), d)
	if err == nil || err.Error() != "Invoice number already exists" {
		t.Fatalf("expected conflict message, got %v", err)
	}
}

func TestParseText(t *testing.T) {
	be := memory.New().WithClock(func() time.Time { return testNow })
	svc := newService(t, be)

	_, err := svc.ParseText(context.Background(), "   ")
	if err == nil || err.Error() != MsgParseTextRequired {
		t.Fatalf("expected %q, got %v", MsgParseTextRequired, err)
	}
	if be.Calls(memory.OpParse) != 0 {
		t.Fatal("blank text reached the backend")
	}

	res, err := svc.ParseText(context.Background(), "2 hours consulting for Initech")
	if err != nil {
		t.Fatal(err)
	}
	if res.Next != "/invoices/"+res.Invoice.ID {
		t.Fatalf("unexpected next %q", res.Next)
	}

	be.Fail(memory.OpParse, errors.New("timeout"))
	if _, err := svc.ParseText(context.Background(), "more"); err == nil || err.Error() != MsgParseFailed {
		t.Fatalf("expected %q, got %v", MsgParseFailed, err)
	}
}

func TestReminderCachingAndInvalidation(t *testing.T) {
	ctx := context.Background()
	be := memory.NewSeeded()
	svc := newService(t, be)

	paid, _ := be.GetInvoice(ctx, "mem-1")
	if _, err := svc.Reminder(ctx, paid); !errors.Is(err, ErrReminderPaid) {
		t.Fatalf("expected ErrReminderPaid, got %v", err)
	}

	unpaid, _ := be.GetInvoice(ctx, "mem-2")
	first, err := svc.Reminder(ctx, unpaid)
	if err != nil || !strings.Contains(first, unpaid.InvoiceNumber) {
		t.Fatalf("Reminder: %q %v", first, err)
	}
	if again, _ := svc.Reminder(ctx, unpaid); again != first || be.Calls(memory.OpReminder) != 1 {
		t.Fatalf("second reminder not served from cache: %d calls", be.Calls(memory.OpReminder))
	}

	if _, err := svc.SetStatus(ctx, unpaid.ID, core.StatusUnpaid); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Reminder(ctx, unpaid); err != nil || be.Calls(memory.OpReminder) != 2 {
		t.Fatalf("status change did not drop cached reminder: %d calls, %v", be.Calls(memory.OpReminder), err)
	}

	be.Fail(memory.OpReminder, &memory.Error{StatusCode: http.StatusBadGateway})
	svc.Forget()
	if _, err := svc.Reminder(ctx, unpaid); err == nil || err.Error() != MsgReminderFailed {
		t.Fatalf("expected %q, got %v", MsgReminderFailed, err)
	}
}

func TestInsightsFallback(t *testing.T) {
	svc := newService(t, memory.New())
	text, err := svc.Insights(context.Background())
	if err != nil || text != MsgInsightsEmpty {
		t.Fatalf("got %q %v", text, err)
	}
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	be := memory.NewSeeded()
	if _, err := newService(t, be).SetStatus(context.Background(), "mem-1", "overdue"); !errors.Is(err, core.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if be.Calls(memory.OpUpdate) != 0 {
		t.Fatal("invalid status reached the backend")
	}
}
