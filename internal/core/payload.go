package core

import "strings"

// BuildCreatePayload converts a validated draft into the create request body.
// This is the only place where form names are mapped to persisted names:
// description→name, price→unitPrice, tax→taxPercent, billFrom.name→businessName
// and billTo.name→clientName. Item and invoice totals are recomputed here from
// the raw values; whatever totals the draft carries are ignored.
func BuildCreatePayload(d Draft) InvoiceInput {
	items := make([]InvoiceItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, InvoiceItem{
			Name:       strings.TrimSpace(it.Description),
			Quantity:   ParseAmount(it.Quantity).InexactFloat64(),
			UnitPrice:  ParseAmount(it.Price).InexactFloat64(),
			TaxPercent: ParseAmount(it.Tax).InexactFloat64(),
			Total:      ItemTotal(it).InexactFloat64(),
		})
	}
	sum := Totals(d.Items)

	return InvoiceInput{
		InvoiceNumber: d.InvoiceNumber,
		InvoiceDate:   d.InvoiceDate,
		DueDate:       d.DueDate,
		BillFrom: Sender{
			BusinessName: d.BillFrom.Name,
			Email:        d.BillFrom.Email,
			Address:      d.BillFrom.Address,
			Phone:        d.BillFrom.Phone,
		},
		BillTo: Recipient{
			ClientName: d.BillTo.Name,
			Email:      d.BillTo.Email,
			Address:    d.BillTo.Address,
			Phone:      d.BillTo.Phone,
		},
		Items:        items,
		Notes:        d.Notes,
		PaymentTerms: DefaultPaymentTerms,
		Subtotal:     sum.Subtotal.InexactFloat64(),
		TaxTotal:     sum.TaxTotal.InexactFloat64(),
		Total:        sum.Total.InexactFloat64(),
	}
}
