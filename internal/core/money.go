// Package core provides the invoice domain: line-item arithmetic, the draft
// model, submission validation and read-only projections over fetched
// invoices.
//
// This file contains the money arithmetic. All figures are kept as decimals so
// that the per-line totals and the invoice aggregates agree exactly.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Amounts is the tax-exclusive, tax and tax-inclusive breakdown of a set of items.
type Amounts struct {
	Subtotal decimal.Decimal
	TaxTotal decimal.Decimal
	Total    decimal.Decimal
}

// ParseAmount coerces a form value to a number. Blank or non-numeric input
// counts as zero; negative values are passed through unchanged.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// LineTotal returns quantity * unitPrice * (1 + taxPercent/100).
func LineTotal(quantity, unitPrice, taxPercent decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Mul(decimal.NewFromInt(1).Add(taxPercent.Div(hundred)))
}

// ItemTotal computes the line total of a form row from its current values.
func ItemTotal(it LineItem) decimal.Decimal {
	return LineTotal(ParseAmount(it.Quantity), ParseAmount(it.Price), ParseAmount(it.Tax))
}

// Totals sums the net and tax parts of every item. Total is Subtotal+TaxTotal,
// which equals the sum of the individual line totals.
func Totals(items []LineItem) Amounts {
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, it := range items {
		net := ParseAmount(it.Quantity).Mul(ParseAmount(it.Price))
		subtotal = subtotal.Add(net)
		taxTotal = taxTotal.Add(net.Mul(ParseAmount(it.Tax)).Div(hundred))
	}
	return Amounts{
		Subtotal: subtotal,
		TaxTotal: taxTotal,
		Total:    subtotal.Add(taxTotal),
	}
}
