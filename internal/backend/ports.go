package backend

import (
	"context"

	"invoicer/internal/core"
)

// Ports for outbound adapters.
type (
	InvoiceLister interface {
		// ListInvoices returns every invoice of the signed-in user in backend order.
		ListInvoices(ctx context.Context) ([]core.Invoice, error)
	}

	InvoiceReader interface {
		GetInvoice(ctx context.Context, id string) (core.Invoice, error)
	}

	InvoiceWriter interface {
		CreateInvoice(ctx context.Context, in core.InvoiceInput) (core.Invoice, error)
		// UpdateInvoice sends only the non-nil fields of the patch.
		UpdateInvoice(ctx context.Context, id string, patch core.InvoicePatch) (core.Invoice, error)
		DeleteInvoice(ctx context.Context, id string) error
	}

	// Assistant exposes the AI helpers of the backend.
	Assistant interface {
		// ParseText asks the backend to build and persist an invoice from free text.
		ParseText(ctx context.Context, text string) (core.Invoice, error)
		GenerateReminder(ctx context.Context, invoiceID string) (string, error)
		Insights(ctx context.Context) (string, error)
	}

	Authenticator interface {
		Login(ctx context.Context, c core.Credentials) (core.AuthResult, error)
		Signup(ctx context.Context, r core.SignupRequest) (core.AuthResult, error)
		UpdateProfile(ctx context.Context, u core.ProfileUpdate) (core.Profile, error)
	}
)
