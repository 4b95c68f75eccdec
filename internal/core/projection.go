package core

import (
	"errors"
	"strings"
)

// StatusFilter selects invoices by status in list projections.
type StatusFilter string

const (
	FilterAll    StatusFilter = "all"
	FilterPaid   StatusFilter = "paid"
	FilterUnpaid StatusFilter = "unpaid"
)

var ErrInvalidFilter = errors.New("invalid status filter")

// ParseStatusFilter accepts all, paid or unpaid. An empty string means all.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPaid:
		return FilterPaid, nil
	case FilterUnpaid:
		return FilterUnpaid, nil
	}
	return "", ErrInvalidFilter
}

func (f StatusFilter) match(s Status) bool {
	switch f {
	case FilterPaid:
		return s == StatusPaid
	case FilterUnpaid:
		return s == StatusUnpaid
	}
	return true
}

// Project filters invoices by status, then by a case-insensitive search over
// invoice number, client name and client email. Input order is preserved and
// the input slice is never modified.
func Project(invoices []Invoice, search string, filter StatusFilter) []Invoice {
	term := strings.ToLower(search)
	out := make([]Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if !filter.match(inv.Status) {
			continue
		}
		if term != "" && !matches(inv, term) {
			continue
		}
		out = append(out, inv)
	}
	return out
}

func matches(inv Invoice, term string) bool {
	return strings.Contains(strings.ToLower(inv.InvoiceNumber), term) ||
		strings.Contains(strings.ToLower(inv.BillTo.ClientName), term) ||
		strings.Contains(strings.ToLower(inv.BillTo.Email), term)
}
