package services

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"

	"invoicer/internal/backend"
	"invoicer/internal/cache"
	"invoicer/internal/core"
	"invoicer/internal/log"
)

const (
	keyReminder = "reminder"
	keyInsights = "insights"
)

// SubmitResult is a created invoice and where the user goes next.
type SubmitResult struct {
	Invoice core.Invoice
	Next    string
}

func created(inv core.Invoice) *SubmitResult {
	next := "/invoices"
	if inv.ID != "" {
		next = "/invoices/" + inv.ID
	}
	return &SubmitResult{Invoice: inv, Next: next}
}

// InvoiceService turns user actions into backend requests. It holds no view
// state: views own what is displayed and refetch after every mutation.
type InvoiceService struct {
	backend backend.Backend
	cache   cache.Cache[string]
	logger  *log.Logger
	flight  singleflight.Group
}

func NewInvoiceService(be backend.Backend, c cache.Cache[string], logger *log.Logger) *InvoiceService {
	if c == nil {
		c = cache.Nop[string]{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &InvoiceService{
		backend: be,
		cache:   c,
		logger:  logger.WithComponent(log.ComponentInvoice),
	}
}

// Submit validates the draft and creates the invoice. Concurrent submissions
// of the same invoice number share one request. The draft is never modified.
func (s *InvoiceService) Submit(ctx context.Context, d core.Draft) (*SubmitResult, error) {
	if err := core.ValidateDraft(d); err != nil {
		s.logger.DebugContext(ctx, "Draft rejected", log.FieldOperation, log.OpValidate, log.FieldError, err.Error())
		return nil, err
	}
	payload := core.BuildCreatePayload(d)

	v, err, shared := s.flight.Do("create:"+payload.InvoiceNumber, func() (any, error) {
		return s.backend.CreateInvoice(ctx, payload)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Invoice creation failed",
			log.NewFields().WithOperation(log.OpCreate).WithInvoice("", payload.InvoiceNumber).WithError(err).ToSlice()...)
		return nil, requestError(log.OpCreate, MsgSubmitFailed, err)
	}
	inv := v.(core.Invoice)
	s.invalidate("")
	s.logger.InfoContext(ctx, "Invoice created",
		append(log.NewFields().WithOperation(log.OpCreate).WithInvoice(inv.ID, inv.InvoiceNumber).ToSlice(),
			log.FieldTotal, inv.Total, "shared", shared)...)
	return created(inv), nil
}

// List returns the full collection in backend order.
func (s *InvoiceService) List(ctx context.Context) ([]core.Invoice, error) {
	return s.list(ctx, MsgListFailed)
}

func (s *InvoiceService) list(ctx context.Context, fallback string) ([]core.Invoice, error) {
	invs, err := s.backend.ListInvoices(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Listing invoices failed", log.FieldOperation, log.OpList, log.FieldError, err.Error())
		return nil, requestError(log.OpList, fallback, err)
	}
	s.logger.DebugContext(ctx, "Invoices listed", log.FieldCount, len(invs))
	return invs, nil
}

func (s *InvoiceService) Get(ctx context.Context, id string) (core.Invoice, error) {
	inv, err := s.backend.GetInvoice(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "Loading invoice failed",
			log.NewFields().WithOperation(log.OpRead).WithInvoice(id, "").WithError(err).ToSlice()...)
		return core.Invoice{}, requestError(log.OpRead, MsgLoadFailed, err)
	}
	return inv, nil
}

// SetStatus sends a status-only update.
func (s *InvoiceService) SetStatus(ctx context.Context, id string, status core.Status) (core.Invoice, error) {
	return s.setStatus(ctx, id, status, MsgStatusFailed)
}

func (s *InvoiceService) setStatus(ctx context.Context, id string, status core.Status, fallback string) (core.Invoice, error) {
	if _, err := core.ParseStatus(string(status)); err != nil {
		return core.Invoice{}, err
	}
	inv, err := s.backend.UpdateInvoice(ctx, id, core.StatusPatch(status))
	if err != nil {
		s.logger.WarnContext(ctx, "Status update failed",
			log.NewFields().WithOperation(log.OpUpdate).WithInvoice(id, "").WithError(err).ToSlice()...)
		return core.Invoice{}, requestError(log.OpUpdate, fallback, err)
	}
	s.invalidate(id)
	s.logger.InfoContext(ctx, "Invoice status updated", log.FieldInvoiceID, id, log.FieldStatus, string(status))
	return inv, nil
}

func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	if err := s.backend.DeleteInvoice(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "Delete failed",
			log.NewFields().WithOperation(log.OpDelete).WithInvoice(id, "").WithError(err).ToSlice()...)
		return requestError(log.OpDelete, MsgDeleteFailed, err)
	}
	s.invalidate(id)
	s.logger.InfoContext(ctx, "Invoice deleted", log.FieldInvoiceID, id)
	return nil
}

// ParseText asks the backend to build an invoice from free text. Blank text
// is rejected without a request.
func (s *InvoiceService) ParseText(ctx context.Context, text string) (*SubmitResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &core.ValidationError{Rule: "text", Message: MsgParseTextRequired}
	}
	inv, err := s.backend.ParseText(ctx, text)
	if err != nil {
		s.logger.WarnContext(ctx, "Invoice generation failed", log.FieldOperation, log.OpParse, log.FieldError, err.Error())
		return nil, requestError(log.OpParse, MsgParseFailed, err)
	}
	s.invalidate("")
	s.logger.InfoContext(ctx, "Invoice generated from text",
		log.NewFields().WithOperation(log.OpParse).WithInvoice(inv.ID, inv.InvoiceNumber).ToSlice()...)
	return created(inv), nil
}

// Reminder returns a payment reminder email for an unpaid invoice.
func (s *InvoiceService) Reminder(ctx context.Context, inv core.Invoice) (string, error) {
	if inv.Status != core.StatusUnpaid {
		return "", ErrReminderPaid
	}
	key := cache.Key(keyReminder, inv.ID)
	if text, ok := s.cache.Get(key); ok {
		s.logger.DebugContext(ctx, "Reminder served from cache", log.FieldCacheKey, key)
		return text, nil
	}
	text, err := s.backend.GenerateReminder(ctx, inv.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "Reminder generation failed",
			log.NewFields().WithOperation(log.OpReminder).WithInvoice(inv.ID, inv.InvoiceNumber).WithError(err).ToSlice()...)
		return "", requestError(log.OpReminder, MsgReminderFailed, err)
	}
	if text == "" {
		return MsgReminderEmpty, nil
	}
	s.cache.Set(key, text)
	return text, nil
}

// Insights returns the backend's summary of the user's invoices.
func (s *InvoiceService) Insights(ctx context.Context) (string, error) {
	key := cache.Key(keyInsights, "all")
	if text, ok := s.cache.Get(key); ok {
		s.logger.DebugContext(ctx, "Insights served from cache", log.FieldCacheKey, key)
		return text, nil
	}
	text, err := s.backend.Insights(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Insights failed", log.FieldOperation, log.OpInsights, log.FieldError, err.Error())
		return "", requestError(log.OpInsights, MsgInsightsFailed, err)
	}
	if text == "" {
		return MsgInsightsEmpty, nil
	}
	s.cache.Set(key, text)
	return text, nil
}

// invalidate drops cached text that a mutation made stale. Insights cover
// every invoice; a reminder only its own.
func (s *InvoiceService) invalidate(id string) {
	s.cache.Delete(cache.Key(keyInsights, "all"))
	if id != "" {
		s.cache.Delete(cache.Key(keyReminder, id))
	}
}

// Forget drops every cached result, used when the signed-in user changes.
func (s *InvoiceService) Forget() {
	s.cache.Purge()
}
