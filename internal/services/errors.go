package services

import (
	"errors"
)

// Fallback messages shown when the backend gives no message of its own.
const (
	MsgSubmitFailed       = "Invoice failed"
	MsgListFailed         = "Failed to load invoices"
	MsgDeleteFailed       = "Failed to delete invoice"
	MsgToggleFailed       = "Failed to update invoice status"
	MsgStatusFailed       = "Failed to update status"
	MsgLoadFailed         = "Failed to load invoice"
	MsgDashboardFailed    = "Failed to load dashboard data"
	MsgParseFailed        = "Failed to generate invoice"
	MsgReminderFailed     = "Failed to generate reminder email"
	MsgInsightsFailed     = "Failed to generate insights"
	MsgReminderEmpty      = "Failed to generate email"
	MsgInsightsEmpty      = "No insights available."
	MsgParseTextRequired  = "Please enter some text to generate invoice"
	MsgDeleteConfirmation = "Are you sure you want to delete this invoice?"
)

var (
	// ErrReminderPaid is returned when a reminder is requested for a paid invoice.
	ErrReminderPaid = errors.New("Reminders are only available for unpaid invoices")
	// ErrNoInvoice is returned by detail operations before an invoice is loaded.
	ErrNoInvoice = errors.New("No invoice loaded")
	// ErrNotFound is returned when an id is not part of the loaded list.
	ErrNotFound = errors.New("Invoice not found")
)

// RequestError is a failed backend request. Message is what the user sees:
// the backend's own message when it sent one, otherwise a fixed fallback for
// the operation.
type RequestError struct {
	Op      string
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// serverMessager is implemented by adapter errors that carry a message
// written by the backend.
type serverMessager interface {
	ServerMessage() string
}

func requestError(op, fallback string, err error) error {
	msg := fallback
	var sm serverMessager
	if errors.As(err, &sm) && sm.ServerMessage() != "" {
		msg = sm.ServerMessage()
	}
	return &RequestError{Op: op, Message: msg, Err: err}
}
