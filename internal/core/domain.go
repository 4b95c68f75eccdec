package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPaid   Status = "paid"
	StatusUnpaid Status = "unpaid"
)

// DefaultPaymentTerms is sent with every invoice created from a draft.
const DefaultPaymentTerms = "Net 15"

type (
	Status string

	// PartyInfo is the form-side shape of both the bill-from and bill-to blocks.
	PartyInfo struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Address string `json:"address"`
		Phone   string `json:"phone"`
	}

	// LineItem holds the raw form values of one billable row. Total is derived
	// from the other three fields and refreshed on every edit of the row.
	LineItem struct {
		Description string          `json:"description"`
		Quantity    string          `json:"quantity"`
		Price       string          `json:"price"`
		Tax         string          `json:"tax"`
		Total       decimal.Decimal `json:"total"`
	}

	// Draft is an invoice being composed, not yet persisted.
	Draft struct {
		InvoiceNumber string          `json:"invoiceNumber"`
		InvoiceDate   string          `json:"invoiceDate"`
		DueDate       string          `json:"dueDate"`
		BillFrom      PartyInfo       `json:"billFrom"`
		BillTo        PartyInfo       `json:"billTo"`
		Items         []LineItem      `json:"items"`
		Notes         string          `json:"notes"`
		Subtotal      decimal.Decimal `json:"subtotal"`
		TaxTotal      decimal.Decimal `json:"taxTotal"`
		Total         decimal.Decimal `json:"total"`
	}

	Sender struct {
		BusinessName string `json:"businessName"`
		Email        string `json:"email"`
		Address      string `json:"address"`
		Phone        string `json:"phone"`
	}

	Recipient struct {
		ClientName string `json:"clientName"`
		Email      string `json:"email"`
		Address    string `json:"address"`
		Phone      string `json:"phone"`
	}

	InvoiceItem struct {
		Name       string  `json:"name"`
		Quantity   float64 `json:"quantity"`
		UnitPrice  float64 `json:"unitPrice"`
		TaxPercent float64 `json:"taxPercent"`
		Total      float64 `json:"total"`
	}

	// InvoiceInput is the create-request payload: a persisted invoice without
	// the server-assigned fields.
	InvoiceInput struct {
		InvoiceNumber string        `json:"invoiceNumber"`
		InvoiceDate   string        `json:"invoiceDate"`
		DueDate       string        `json:"dueDate"`
		BillFrom      Sender        `json:"billFrom"`
		BillTo        Recipient     `json:"billTo"`
		Items         []InvoiceItem `json:"items"`
		Notes         string        `json:"notes"`
		PaymentTerms  string        `json:"paymentTerms"`
		Subtotal      float64       `json:"subtotal"`
		TaxTotal      float64       `json:"taxTotal"`
		Total         float64       `json:"total"`
	}

	// Invoice is the backend's authoritative record.
	Invoice struct {
		ID            string        `json:"_id"`
		InvoiceNumber string        `json:"invoiceNumber"`
		InvoiceDate   string        `json:"invoiceDate"`
		DueDate       string        `json:"dueDate"`
		BillFrom      Sender        `json:"billFrom"`
		BillTo        Recipient     `json:"billTo"`
		Items         []InvoiceItem `json:"items"`
		Notes         string        `json:"notes,omitempty"`
		PaymentTerms  string        `json:"paymentTerms,omitempty"`
		Subtotal      float64       `json:"subtotal"`
		TaxTotal      float64       `json:"taxTotal"`
		Total         float64       `json:"total"`
		Status        Status        `json:"status"`
		CreatedAt     time.Time     `json:"createdAt"`
	}

	// InvoicePatch carries the fields of a partial update. Nil fields are not sent.
	InvoicePatch struct {
		Status *Status `json:"status,omitempty"`
	}
)

var (
	ErrMinItems      = errors.New("At least one item required")
	ErrItemIndex     = errors.New("line item index out of range")
	ErrUnknownField  = errors.New("unknown field")
	ErrInvalidStatus = errors.New("invalid status")
)

// ParseStatus accepts only the two persisted states.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPaid, StatusUnpaid:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// Toggle flips between paid and unpaid. Anything that is not paid becomes paid.
func (s Status) Toggle() Status {
	if s == StatusPaid {
		return StatusUnpaid
	}
	return StatusPaid
}

func (s Status) String() string {
	return string(s)
}

// Apply merges the patch into a copy of the invoice; only non-nil fields change.
func (p InvoicePatch) Apply(inv Invoice) Invoice {
	if p.Status != nil {
		inv.Status = *p.Status
	}
	return inv
}

// StatusPatch builds a patch that only touches status.
func StatusPatch(s Status) InvoicePatch {
	return InvoicePatch{Status: &s}
}
