package services

import (
	"context"
	"sync"

	"invoicer/internal/core"
)

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// ListView holds the invoice list page: the fetched collection plus the
// search term and status filter applied to it. The collection only ever
// changes by a full refetch.
type ListView struct {
	svc *InvoiceService

	mu       sync.Mutex
	invoices []core.Invoice
	search   string
	filter   core.StatusFilter
	loaded   bool
	closed   bool
}

func NewListView(svc *InvoiceService) *ListView {
	return &ListView{svc: svc, filter: core.FilterAll}
}

// Refresh refetches the whole collection. On failure the previous
// collection stays in place.
func (v *ListView) Refresh(ctx context.Context) error {
	invs, err := v.svc.List(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.invoices, v.loaded = invs, true
	return nil
}

func (v *ListView) SetSearch(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = term
}

func (v *ListView) SetStatusFilter(f core.StatusFilter) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = f
}

// Visible returns the projection of the collection through the current
// filter and search term.
func (v *ListView) Visible() []core.Invoice {
	v.mu.Lock()
	defer v.mu.Unlock()
	return core.Project(v.invoices, v.search, v.filter)
}

// All returns a copy of the unfiltered collection.
func (v *ListView) All() []core.Invoice {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]core.Invoice(nil), v.invoices...)
}

func (v *ListView) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

func (v *ListView) find(id string) (core.Invoice, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, inv := range v.invoices {
		if inv.ID == id {
			return inv, true
		}
	}
	return core.Invoice{}, false
}

// Delete removes an invoice after confirmation and refetches the list. It
// reports whether the invoice was deleted; a declined confirmation sends
// nothing.
func (v *ListView) Delete(ctx context.Context, id string, confirm Confirmer) (bool, error) {
	if confirm != nil && !confirm.Confirm(MsgDeleteConfirmation) {
		return false, nil
	}
	if err := v.svc.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, v.Refresh(ctx)
}

// ToggleStatus flips an invoice between paid and unpaid. The local copy is
// only updated by the refetch that follows a successful update.
func (v *ListView) ToggleStatus(ctx context.Context, id string) error {
	inv, ok := v.find(id)
	if !ok {
		return ErrNotFound
	}
	if _, err := v.svc.setStatus(ctx, id, inv.Status.Toggle(), MsgToggleFailed); err != nil {
		return err
	}
	return v.Refresh(ctx)
}

// Close discards responses that arrive afterwards.
func (v *ListView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
}

// DetailView holds a single invoice. Status changes are merged into the held
// record without a refetch.
type DetailView struct {
	svc *InvoiceService

	mu     sync.Mutex
	inv    *core.Invoice
	closed bool
}

func NewDetailView(svc *InvoiceService) *DetailView {
	return &DetailView{svc: svc}
}

func (v *DetailView) Load(ctx context.Context, id string) error {
	inv, err := v.svc.Get(ctx, id)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed {
		v.inv = &inv
	}
	return nil
}

// Invoice returns a copy of the held invoice.
func (v *DetailView) Invoice() (core.Invoice, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.inv == nil {
		return core.Invoice{}, false
	}
	inv := *v.inv
	inv.Items = append([]core.InvoiceItem(nil), inv.Items...)
	return inv, true
}

// SetStatus updates the status on the backend and, once it succeeds, changes
// only the status of the held record.
func (v *DetailView) SetStatus(ctx context.Context, status core.Status) error {
	inv, ok := v.Invoice()
	if !ok {
		return ErrNoInvoice
	}
	if _, err := v.svc.SetStatus(ctx, inv.ID, status); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed && v.inv != nil && v.inv.ID == inv.ID {
		v.inv.Status = status
	}
	return nil
}

// Delete removes the held invoice after confirmation.
func (v *DetailView) Delete(ctx context.Context, confirm Confirmer) (bool, error) {
	inv, ok := v.Invoice()
	if !ok {
		return false, ErrNoInvoice
	}
	if confirm != nil && !confirm.Confirm(MsgDeleteConfirmation) {
		return false, nil
	}
	if err := v.svc.Delete(ctx, inv.ID); err != nil {
		return false, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inv = nil
	return true, nil
}

func (v *DetailView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
}

// Dashboard shows aggregate stats and the most recent invoices. Everything is
// recomputed from a fresh fetch on each load.
type Dashboard struct {
	svc *InvoiceService

	mu       sync.Mutex
	stats    core.DashboardStats
	recent   []core.Invoice
	insights string
	closed   bool
}

func NewDashboard(svc *InvoiceService) *Dashboard {
	return &Dashboard{svc: svc}
}

// Load refetches the collection and recomputes stats and recent invoices.
func (d *Dashboard) Load(ctx context.Context) error {
	invs, err := d.svc.list(ctx, MsgDashboardFailed)
	if err != nil {
		return err
	}
	d.apply(invs)
	return nil
}

// LoadWithInsights refetches the collection and, when it holds at least one
// invoice, asks for AI insights. An insights failure is returned separately
// and does not fail the dashboard.
func (d *Dashboard) LoadWithInsights(ctx context.Context) (insightsErr error, err error) {
	invs, err := d.svc.list(ctx, MsgDashboardFailed)
	if err != nil {
		return nil, err
	}
	d.apply(invs)
	if len(invs) == 0 {
		return nil, nil
	}

	insights, insightsErr := d.svc.Insights(ctx)
	if insightsErr != nil {
		return insightsErr, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.insights = insights
	}
	return nil, nil
}

func (d *Dashboard) apply(invs []core.Invoice) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stats = core.ComputeStats(invs)
	d.recent = core.Recent(invs, core.RecentLimit)
	d.insights = ""
}

func (d *Dashboard) Stats() core.DashboardStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Dashboard) Recent() []core.Invoice {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]core.Invoice(nil), d.recent...)
}

// Insights returns the last loaded insights text, or "" when none was loaded.
func (d *Dashboard) Insights() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.insights
}

func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}
