package core

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func TestGenerateInvoiceNumber(t *testing.T) {
	ms := fixedNow.UnixMilli() // 1741944600000
	got := GenerateInvoiceNumber(fixedNow, 7)
	want := "INV-600000007"
	if ms%1000000 != 600000 || got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if n := GenerateInvoiceNumber(fixedNow, 1234); n != "INV-600000234" {
		t.Fatalf("suffix must stay three digits, got %s", n)
	}
}

func TestNewDraft(t *testing.T) {
	d := NewDraft(nil, fixedNow)
	if !regexp.MustCompile(`^INV-\d{9}$`).MatchString(d.InvoiceNumber) {
		t.Fatalf("unexpected invoice number %q", d.InvoiceNumber)
	}
	if d.InvoiceDate != "2025-03-14" || d.DueDate != "" {
		t.Fatalf("unexpected dates %q %q", d.InvoiceDate, d.DueDate)
	}
	if len(d.Items) != 1 {
		t.Fatalf("expected one blank item, got %d", len(d.Items))
	}
	it := d.Items[0]
	if it.Quantity != "1" || it.Price != "" || it.Tax != "0" || !it.Total.IsZero() {
		t.Fatalf("unexpected blank item %+v", it)
	}
	if d.BillFrom != (PartyInfo{}) {
		t.Fatalf("bill-from must stay empty without a profile, got %+v", d.BillFrom)
	}
}

func TestNewDraftPrefill(t *testing.T) {
	p := &Profile{FullName: "Asha", Email: "asha@acme.in", BusinessName: "Acme", BusinessAddress: "MG Road", BusinessPhone: "99"}
	d := NewDraft(p, fixedNow)
	want := PartyInfo{Name: "Acme", Email: "asha@acme.in", Address: "MG Road", Phone: "99"}
	if d.BillFrom != want {
		t.Fatalf("expected %+v, got %+v", want, d.BillFrom)
	}
}

func TestApplyProfileOverwritesEdits(t *testing.T) {
	d := NewDraft(&Profile{Email: "a@b.c", BusinessName: "Old"}, fixedNow)
	d, _ = SetField(d, FieldBillFromName, "Hand edited")
	d, _ = SetField(d, FieldBillFromPhone, "123")

	d = ApplyProfile(d, &Profile{Email: "new@b.c", BusinessName: "New"})
	if d.BillFrom.Name != "New" || d.BillFrom.Email != "new@b.c" || d.BillFrom.Phone != "" {
		t.Fatalf("profile change must overwrite bill-from, got %+v", d.BillFrom)
	}

	same := ApplyProfile(d, nil)
	if same.BillFrom != d.BillFrom {
		t.Fatalf("nil profile must leave the draft alone")
	}
}

func TestSetField(t *testing.T) {
	d := NewDraft(nil, fixedNow)
	paths := map[string]func(Draft) string{
		FieldInvoiceNumber:   func(d Draft) string { return d.InvoiceNumber },
		FieldInvoiceDate:     func(d Draft) string { return d.InvoiceDate },
		FieldDueDate:         func(d Draft) string { return d.DueDate },
		FieldNotes:           func(d Draft) string { return d.Notes },
		FieldBillFromName:    func(d Draft) string { return d.BillFrom.Name },
		FieldBillFromEmail:   func(d Draft) string { return d.BillFrom.Email },
		FieldBillFromAddress: func(d Draft) string { return d.BillFrom.Address },
		FieldBillFromPhone:   func(d Draft) string { return d.BillFrom.Phone },
		FieldBillToName:      func(d Draft) string { return d.BillTo.Name },
		FieldBillToEmail:     func(d Draft) string { return d.BillTo.Email },
		FieldBillToAddress:   func(d Draft) string { return d.BillTo.Address },
		FieldBillToPhone:     func(d Draft) string { return d.BillTo.Phone },
	}
	for path, get := range paths {
		t.Run(path, func(t *testing.T) {
			out, err := SetField(d, path, "x-"+path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := get(out); got != "x-"+path {
				t.Fatalf("expected %q, got %q", "x-"+path, got)
			}
		})
	}

	if _, err := SetField(d, "billTo.fax", "1"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestSetLineItemRecomputes(t *testing.T) {
	d := NewDraft(nil, fixedNow)
	d = AddLineItem(d)
	d, _ = SetLineItem(d, 1, ItemPrice, "50")
	before := d.Items[1]

	d, err := SetLineItem(d, 0, ItemQuantity, "2")
	if err != nil {
		t.Fatal(err)
	}
	d, _ = SetLineItem(d, 0, ItemPrice, "100")
	d, _ = SetLineItem(d, 0, ItemTax, "10")

	if !d.Items[0].Total.Equal(decimal.NewFromInt(220)) {
		t.Fatalf("item total: %s", d.Items[0].Total)
	}
	if d.Items[1] != before {
		t.Fatalf("untouched item changed: %+v", d.Items[1])
	}
	if !d.Subtotal.Equal(decimal.NewFromInt(250)) || !d.TaxTotal.Equal(decimal.NewFromInt(20)) || !d.Total.Equal(decimal.NewFromInt(270)) {
		t.Fatalf("aggregates: %s %s %s", d.Subtotal, d.TaxTotal, d.Total)
	}

	if _, err := SetLineItem(d, 5, ItemPrice, "1"); !errors.Is(err, ErrItemIndex) {
		t.Fatalf("expected ErrItemIndex, got %v", err)
	}
	if _, err := SetLineItem(d, 0, "discount", "1"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestSetLineItemDoesNotMutateInput(t *testing.T) {
	d := NewDraft(nil, fixedNow)
	_, _ = SetLineItem(d, 0, ItemPrice, "10")
	if d.Items[0].Price != "" {
		t.Fatalf("input draft was mutated")
	}
}

func TestRemoveLineItem(t *testing.T) {
	d := NewDraft(nil, fixedNow)
	out, err := RemoveLineItem(d, 0)
	if !errors.Is(err, ErrMinItems) {
		t.Fatalf("expected ErrMinItems, got %v", err)
	}
	if len(out.Items) != 1 || err.Error() != "At least one item required" {
		t.Fatalf("draft must be unchanged, got %d items", len(out.Items))
	}

	d = AddLineItem(d)
	d, _ = SetLineItem(d, 1, ItemDescription, "second")
	d, _ = SetLineItem(d, 1, ItemPrice, "5")
	d, err = RemoveLineItem(d, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Items) != 1 || d.Items[0].Description != "second" {
		t.Fatalf("wrong item removed: %+v", d.Items)
	}
	if !d.Total.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("total not recomputed: %s", d.Total)
	}
	if _, err := RemoveLineItem(AddLineItem(d), 9); !errors.Is(err, ErrItemIndex) {
		t.Fatalf("expected ErrItemIndex, got %v", err)
	}
}
