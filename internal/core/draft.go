package core

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and form format of invoice dates.
const DateLayout = "2006-01-02"

// Draft field paths accepted by SetField.
const (
	FieldInvoiceNumber   = "invoiceNumber"
	FieldInvoiceDate     = "invoiceDate"
	FieldDueDate         = "dueDate"
	FieldNotes           = "notes"
	FieldBillFromName    = "billFrom.name"
	FieldBillFromEmail   = "billFrom.email"
	FieldBillFromAddress = "billFrom.address"
	FieldBillFromPhone   = "billFrom.phone"
	FieldBillToName      = "billTo.name"
	FieldBillToEmail     = "billTo.email"
	FieldBillToAddress   = "billTo.address"
	FieldBillToPhone     = "billTo.phone"
)

// Line item fields accepted by SetLineItem.
const (
	ItemDescription = "description"
	ItemQuantity    = "quantity"
	ItemPrice       = "price"
	ItemTax         = "tax"
)

// GenerateInvoiceNumber formats INV-<last six digits of the unix millis><suffix as 3 digits>.
// Nothing checks the result for uniqueness; two drafts created in the same
// millisecond window can collide.
func GenerateInvoiceNumber(now time.Time, suffix int) string {
	ts := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}
	if suffix < 0 {
		suffix = -suffix
	}
	return fmt.Sprintf("INV-%s%03d", ts, suffix%1000)
}

// BlankItem is the row added on creation and by AddLineItem.
func BlankItem() LineItem {
	return LineItem{Quantity: "1", Price: "", Tax: "0", Total: decimal.Zero}
}

// NewDraft returns an empty draft with one blank item, a generated invoice
// number and today's invoice date. When profile is non-nil the bill-from
// block is prefilled from it.
func NewDraft(profile *Profile, now time.Time) Draft {
	d := Draft{
		InvoiceNumber: GenerateInvoiceNumber(now, rand.Intn(1000)),
		InvoiceDate:   now.Format(DateLayout),
		Items:         []LineItem{BlankItem()},
	}
	d.recalc()
	return ApplyProfile(d, profile)
}

// ApplyProfile re-derives the bill-from block from the session profile.
// It must be called every time the profile changes. Every bill-from field is
// overwritten, including any edit the user made since the last prefill. A nil
// profile leaves the draft as it is.
func ApplyProfile(d Draft, profile *Profile) Draft {
	if profile == nil {
		return d
	}
	d = d.clone()
	d.BillFrom = PartyInfo{
		Name:    profile.BusinessName,
		Address: profile.BusinessAddress,
		Phone:   profile.BusinessPhone,
		Email:   profile.Email,
	}
	return d
}

// SetField replaces a header field or a nested bill-from/bill-to field.
func SetField(d Draft, path, value string) (Draft, error) {
	d = d.clone()
	switch path {
	case FieldInvoiceNumber:
		d.InvoiceNumber = value
	case FieldInvoiceDate:
		d.InvoiceDate = value
	case FieldDueDate:
		d.DueDate = value
	case FieldNotes:
		d.Notes = value
	case FieldBillFromName:
		d.BillFrom.Name = value
	case FieldBillFromEmail:
		d.BillFrom.Email = value
	case FieldBillFromAddress:
		d.BillFrom.Address = value
	case FieldBillFromPhone:
		d.BillFrom.Phone = value
	case FieldBillToName:
		d.BillTo.Name = value
	case FieldBillToEmail:
		d.BillTo.Email = value
	case FieldBillToAddress:
		d.BillTo.Address = value
	case FieldBillToPhone:
		d.BillTo.Phone = value
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownField, path)
	}
	return d, nil
}

// SetLineItem updates one field of one row, refreshes that row's total and
// then the draft aggregates.
func SetLineItem(d Draft, index int, field, value string) (Draft, error) {
	if index < 0 || index >= len(d.Items) {
		return d, fmt.Errorf("%w: %d", ErrItemIndex, index)
	}
	out := d.clone()
	it := &out.Items[index]
	switch field {
	case ItemDescription:
		it.Description = value
	case ItemQuantity:
		it.Quantity = value
	case ItemPrice:
		it.Price = value
	case ItemTax:
		it.Tax = value
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	it.Total = ItemTotal(*it)
	out.recalc()
	return out, nil
}

// AddLineItem appends a blank row.
func AddLineItem(d Draft) Draft {
	d = d.clone()
	d.Items = append(d.Items, BlankItem())
	d.recalc()
	return d
}

// RemoveLineItem drops the row at index. A draft always keeps at least one
// row; removing the last one fails with ErrMinItems and returns d unchanged.
func RemoveLineItem(d Draft, index int) (Draft, error) {
	if len(d.Items) <= 1 {
		return d, ErrMinItems
	}
	if index < 0 || index >= len(d.Items) {
		return d, fmt.Errorf("%w: %d", ErrItemIndex, index)
	}
	out := d.clone()
	out.Items = append(out.Items[:index], out.Items[index+1:]...)
	out.recalc()
	return out, nil
}

func (d *Draft) recalc() {
	a := Totals(d.Items)
	d.Subtotal, d.TaxTotal, d.Total = a.Subtotal, a.TaxTotal, a.Total
}

func (d Draft) clone() Draft {
	d.Items = append([]LineItem(nil), d.Items...)
	return d
}
