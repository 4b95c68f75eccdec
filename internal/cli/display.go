package cli

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"invoicer/internal/core"
)

// NotAvailable stands in for missing values.
const NotAvailable = "N/A"

// FormatCurrency renders an amount with two decimals and Indian digit
// grouping: 123456.5 becomes ₹1,23,456.50.
func FormatCurrency(symbol string, amount decimal.Decimal) string {
	sign := ""
	if amount.Sign() < 0 {
		sign = "-"
		amount = amount.Neg()
	}
	fixed := amount.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + symbol + groupIndian(intPart) + "." + frac
}

// FormatAmount is FormatCurrency for wire amounts.
func FormatAmount(symbol string, amount float64) string {
	return FormatCurrency(symbol, decimal.NewFromFloat(amount))
}

// groupIndian places a comma before the last three digits and then after
// every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}

// FormatDate renders a wire date (YYYY-MM-DD or RFC 3339) as DD-Mon-YYYY.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NotAvailable
	}
	for _, layout := range []string{core.DateLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02-Jan-2006")
		}
	}
	return NotAvailable
}

// FormatTime renders a timestamp as DD-Mon-YYYY in UTC.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.UTC().Format("02-Jan-2006")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

// TableWriter provides simple table formatting
type TableWriter struct {
	headers []string
	rows    [][]string
	widths  []int
}

func NewTableWriter(headers ...string) *TableWriter {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	return &TableWriter{headers: headers, widths: widths}
}

func (t *TableWriter) AddRow(row ...string) {
	t.rows = append(t.rows, row)
	for i, cell := range row {
		if n := utf8.RuneCountInString(cell); i < len(t.widths) && n > t.widths[i] {
			t.widths[i] = n
		}
	}
}

// Print writes the table with a header underline.
func (t *TableWriter) Print(w io.Writer) {
	t.printRow(w, t.headers)
	parts := make([]string, len(t.widths))
	for i, width := range t.widths {
		parts[i] = strings.Repeat("-", width)
	}
	fmt.Fprintln(w, strings.Join(parts, "  "))
	for _, row := range t.rows {
		t.printRow(w, row)
	}
}

func (t *TableWriter) printRow(w io.Writer, row []string) {
	cells := make([]string, 0, len(row))
	for i, cell := range row {
		if i >= len(t.widths) {
			break
		}
		pad := t.widths[i] - utf8.RuneCountInString(cell)
		if i == len(row)-1 {
			pad = 0
		}
		cells = append(cells, cell+strings.Repeat(" ", pad))
	}
	fmt.Fprintln(w, strings.Join(cells, "  "))
}

func printInvoiceTable(w io.Writer, symbol string, invoices []core.Invoice) {
	if len(invoices) == 0 {
		fmt.Fprintln(w, "No invoices found.")
		return
	}
	tw := NewTableWriter("ID", "NUMBER", "CLIENT", "DATE", "DUE", "TOTAL", "STATUS")
	for _, inv := range invoices {
		tw.AddRow(inv.ID, orNA(inv.InvoiceNumber), orNA(inv.BillTo.ClientName),
			FormatDate(inv.InvoiceDate), FormatDate(inv.DueDate),
			FormatAmount(symbol, inv.Total), orNA(string(inv.Status)))
	}
	tw.Print(w)
}

func printInvoice(w io.Writer, symbol string, inv core.Invoice) {
	fmt.Fprintf(w, "Invoice %s (%s)\n", orNA(inv.InvoiceNumber), orNA(string(inv.Status)))
	fmt.Fprintf(w, "  Date:     %s\n", FormatDate(inv.InvoiceDate))
	fmt.Fprintf(w, "  Due:      %s\n", FormatDate(inv.DueDate))
	fmt.Fprintf(w, "  Terms:    %s\n", orNA(inv.PaymentTerms))
	fmt.Fprintf(w, "  From:     %s <%s>\n", orNA(inv.BillFrom.BusinessName), orNA(inv.BillFrom.Email))
	fmt.Fprintf(w, "  To:       %s <%s>\n", orNA(inv.BillTo.ClientName), orNA(inv.BillTo.Email))
	if inv.BillTo.Address != "" {
		fmt.Fprintf(w, "            %s\n", inv.BillTo.Address)
	}
	fmt.Fprintln(w)

	tw := NewTableWriter("ITEM", "QTY", "PRICE", "TAX %", "TOTAL")
	for _, it := range inv.Items {
		tw.AddRow(orNA(it.Name), decimal.NewFromFloat(it.Quantity).String(),
			FormatAmount(symbol, it.UnitPrice), decimal.NewFromFloat(it.TaxPercent).String(),
			FormatAmount(symbol, it.Total))
	}
	tw.Print(w)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Subtotal: %s\n", FormatAmount(symbol, inv.Subtotal))
	fmt.Fprintf(w, "  Tax:      %s\n", FormatAmount(symbol, inv.TaxTotal))
	fmt.Fprintf(w, "  Total:    %s\n", FormatAmount(symbol, inv.Total))
	if inv.Notes != "" {
		fmt.Fprintf(w, "\nNotes: %s\n", inv.Notes)
	}
}

func printDraft(w io.Writer, symbol, name string, d core.Draft) {
	fmt.Fprintf(w, "Draft %q: %s\n", name, orNA(d.InvoiceNumber))
	fmt.Fprintf(w, "  Date:     %s\n", FormatDate(d.InvoiceDate))
	fmt.Fprintf(w, "  Due:      %s\n", FormatDate(d.DueDate))
	fmt.Fprintf(w, "  From:     %s <%s>\n", orNA(d.BillFrom.Name), orNA(d.BillFrom.Email))
	fmt.Fprintf(w, "  To:       %s <%s>\n", orNA(d.BillTo.Name), orNA(d.BillTo.Email))
	fmt.Fprintln(w)

	tw := NewTableWriter("#", "DESCRIPTION", "QTY", "PRICE", "TAX %", "TOTAL")
	for i, it := range d.Items {
		tw.AddRow(fmt.Sprint(i+1), orNA(it.Description), it.Quantity, orNA(it.Price), it.Tax,
			FormatCurrency(symbol, it.Total))
	}
	tw.Print(w)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Subtotal: %s\n", FormatCurrency(symbol, d.Subtotal))
	fmt.Fprintf(w, "  Tax:      %s\n", FormatCurrency(symbol, d.TaxTotal))
	fmt.Fprintf(w, "  Total:    %s\n", FormatCurrency(symbol, d.Total))
	if d.Notes != "" {
		fmt.Fprintf(w, "\nNotes: %s\n", d.Notes)
	}
}

func printProfile(w io.Writer, p *core.Profile) {
	fmt.Fprintf(w, "Name:     %s\n", orNA(p.FullName))
	fmt.Fprintf(w, "Email:    %s\n", orNA(p.Email))
	fmt.Fprintf(w, "Business: %s\n", orNA(p.BusinessName))
	fmt.Fprintf(w, "Address:  %s\n", orNA(p.BusinessAddress))
	fmt.Fprintf(w, "Phone:    %s\n", orNA(p.BusinessPhone))
}
