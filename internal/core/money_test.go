package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"1", "1"},
		{" 2.50 ", "2.5"},
		{"", "0"},
		{"   ", "0"},
		{"abc", "0"},
		{"1.2.3", "0"},
		{"-3", "-3"},
	}
	for _, tc := range cases {
		got := ParseAmount(tc.in)
		if !got.Equal(decimal.RequireFromString(tc.out)) {
			t.Fatalf("%q expected %s, got %s", tc.in, tc.out, got)
		}
	}
}

func TestLineTotal(t *testing.T) {
	cases := []struct {
		name      string
		q, p, tax string
		want      string
	}{
		{"no tax", "3", "10", "0", "30"},
		{"ten percent", "2", "100", "10", "220"},
		{"fractional", "1.5", "19.99", "18", "35.3823"},
		{"blank price", "1", "", "0", "0"},
		{"negative quantity", "-1", "50", "0", "-50"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ItemTotal(LineItem{Quantity: tc.q, Price: tc.p, Tax: tc.tax})
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestTotalsScenario(t *testing.T) {
	a := Totals([]LineItem{{Quantity: "2", Price: "100", Tax: "10"}})
	if !a.Subtotal.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("subtotal: %s", a.Subtotal)
	}
	if !a.TaxTotal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("tax total: %s", a.TaxTotal)
	}
	if !a.Total.Equal(decimal.NewFromInt(220)) {
		t.Fatalf("total: %s", a.Total)
	}
}

func TestTotalsAgreeWithLineTotals(t *testing.T) {
	items := []LineItem{
		{Quantity: "3", Price: "0.1", Tax: "0"},
		{Quantity: "7", Price: "13.37", Tax: "18"},
		{Quantity: "1", Price: "0.2", Tax: "5"},
		{Quantity: "", Price: "99", Tax: "12"},
		{Quantity: "4", Price: "2.25", Tax: "abc"},
	}
	a := Totals(items)
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(ItemTotal(it))
	}
	if !a.Total.Equal(sum) {
		t.Fatalf("aggregate %s != sum of lines %s", a.Total, sum)
	}
	if !a.Total.Equal(a.Subtotal.Add(a.TaxTotal)) {
		t.Fatalf("total %s != subtotal+tax %s", a.Total, a.Subtotal.Add(a.TaxTotal))
	}
}

func TestTotalsEmpty(t *testing.T) {
	a := Totals(nil)
	if !a.Total.IsZero() || !a.Subtotal.IsZero() || !a.TaxTotal.IsZero() {
		t.Fatalf("expected zeros, got %+v", a)
	}
}
