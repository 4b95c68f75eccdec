package core

import (
	"errors"
	"testing"
)

func validDraft() Draft {
	d := NewDraft(&Profile{Email: "me@acme.in", BusinessName: "Acme"}, fixedNow)
	d, _ = SetField(d, FieldDueDate, "2025-03-29")
	d, _ = SetField(d, FieldBillToName, "Globex")
	d, _ = SetField(d, FieldBillToEmail, "ap@globex.com")
	d, _ = SetLineItem(d, 0, ItemDescription, "Consulting")
	d, _ = SetLineItem(d, 0, ItemPrice, "1000")
	return d
}

func TestDraftValidate(t *testing.T) {
	if err := validDraft().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		edit func(Draft) Draft
		rule string
		msg  string
	}{
		{"missing number", func(d Draft) Draft { d.InvoiceNumber = ""; return d }, RuleInvoiceDetails, "Fill invoice details"},
		{"missing due date", func(d Draft) Draft { d.DueDate = ""; return d }, RuleInvoiceDetails, "Fill invoice details"},
		{"missing client name", func(d Draft) Draft { d.BillTo.Name = ""; return d }, RuleClientDetails, "Fill client details"},
		{"missing client email", func(d Draft) Draft { d.BillTo.Email = ""; return d }, RuleClientDetails, "Fill client details"},
		{"missing description", func(d Draft) Draft { d, _ = SetLineItem(d, 0, ItemDescription, ""); return d }, RuleItemFields, "Fill all item fields"},
		{"missing price", func(d Draft) Draft { d, _ = SetLineItem(d, 0, ItemPrice, ""); return d }, RuleItemFields, "Fill all item fields"},
		{"non-numeric price", func(d Draft) Draft { d, _ = SetLineItem(d, 0, ItemPrice, "ten"); return d }, RuleItemAmounts, "Enter a valid quantity and price for every item"},
		{"zero quantity", func(d Draft) Draft { d, _ = SetLineItem(d, 0, ItemQuantity, "0"); return d }, RuleItemAmounts, "Enter a valid quantity and price for every item"},
		// first failing rule wins
		{"several problems", func(d Draft) Draft { d.DueDate = ""; d.BillTo.Email = ""; return d }, RuleInvoiceDetails, "Fill invoice details"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.edit(validDraft()).Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Rule != tc.rule || ve.Message != tc.msg {
				t.Fatalf("expected %s %q, got %s %q", tc.rule, tc.msg, ve.Rule, ve.Message)
			}
		})
	}
}

func TestSignupValidate(t *testing.T) {
	good := SignupRequest{FullName: "Asha", Email: "a@b.in", Password: "secret", ConfirmPassword: "secret"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	cases := []struct {
		edit func(*SignupRequest)
		msg  string
	}{
		{func(r *SignupRequest) { r.FullName = " " }, "Please fill in all required fields"},
		{func(r *SignupRequest) { r.ConfirmPassword = "" }, "Please fill in all required fields"},
		{func(r *SignupRequest) { r.Email = "asha" }, "Please enter a valid email"},
		{func(r *SignupRequest) { r.Password, r.ConfirmPassword = "abc", "abc" }, "Password must be at least 6 characters long"},
		{func(r *SignupRequest) { r.ConfirmPassword = "secreT" }, "Passwords do not match"},
	}
	for i, tc := range cases {
		r := good
		tc.edit(&r)
		err := r.Validate()
		if err == nil || err.Error() != tc.msg {
			t.Fatalf("case %d expected %q, got %v", i, tc.msg, err)
		}
	}
}

func TestProfileUpdateValidate(t *testing.T) {
	if err := (ProfileUpdate{FullName: "A", Email: "a@b"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (ProfileUpdate{Email: "a@b"}).Validate(); err == nil || err.Error() != "Name and email are required" {
		t.Fatalf("unexpected %v", err)
	}
	if err := (ProfileUpdate{FullName: "A", Email: "ab"}).Validate(); err == nil || err.Error() != "Please enter a valid email" {
		t.Fatalf("unexpected %v", err)
	}
	if err := (Credentials{Email: "a@b"}).Validate(); err == nil {
		t.Fatalf("expected error for missing password")
	}
}
