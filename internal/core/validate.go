package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Validation rules, in the order they are checked.
const (
	RuleInvoiceDetails = "invoice_details"
	RuleClientDetails  = "client_details"
	RuleItemFields     = "item_fields"
	RuleItemAmounts    = "item_amounts"
)

// ValidationError is a locally detected input problem. Message is meant to be
// shown to the user as is.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(rule, msg string) *ValidationError {
	return &ValidationError{Rule: rule, Message: msg}
}

// Validate checks the draft before submission. Rules run in sequence and the
// first failing one is returned.
func (d Draft) Validate() error {
	if d.InvoiceNumber == "" || d.DueDate == "" {
		return invalid(RuleInvoiceDetails, "Fill invoice details")
	}
	if d.BillTo.Name == "" || d.BillTo.Email == "" {
		return invalid(RuleClientDetails, "Fill client details")
	}
	if len(d.Items) == 0 {
		return invalid(RuleItemFields, ErrMinItems.Error())
	}
	for _, it := range d.Items {
		if it.Description == "" || it.Price == "" {
			return invalid(RuleItemFields, "Fill all item fields")
		}
	}
	for _, it := range d.Items {
		if !numeric(it.Price) || !numeric(it.Quantity) || ParseAmount(it.Quantity).Sign() <= 0 {
			return invalid(RuleItemAmounts, "Enter a valid quantity and price for every item")
		}
		if it.Tax != "" && !numeric(it.Tax) {
			return invalid(RuleItemAmounts, "Enter a valid quantity and price for every item")
		}
	}
	return nil
}

// ValidateDraft is Draft.Validate as a function value.
func ValidateDraft(d Draft) error {
	return d.Validate()
}

func numeric(s string) bool {
	_, err := decimal.NewFromString(strings.TrimSpace(s))
	return err == nil
}
