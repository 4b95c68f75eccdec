package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// RecentLimit is how many invoices the dashboard lists.
const RecentLimit = 5

// DashboardStats summarises the whole, unfiltered invoice collection.
type DashboardStats struct {
	TotalInvoices  int
	PaidInvoices   int
	UnpaidInvoices int
	// TotalRevenue only counts paid invoices.
	TotalRevenue decimal.Decimal
}

// ComputeStats counts invoices by status and sums the totals of paid ones.
func ComputeStats(invoices []Invoice) DashboardStats {
	st := DashboardStats{TotalInvoices: len(invoices), TotalRevenue: decimal.Zero}
	for _, inv := range invoices {
		switch inv.Status {
		case StatusPaid:
			st.PaidInvoices++
			st.TotalRevenue = st.TotalRevenue.Add(decimal.NewFromFloat(inv.Total))
		case StatusUnpaid:
			st.UnpaidInvoices++
		}
	}
	return st
}

// Recent returns up to n invoices, newest createdAt first. The input is not reordered.
func Recent(invoices []Invoice, n int) []Invoice {
	out := append([]Invoice(nil), invoices...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
