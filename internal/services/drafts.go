package services

import (
	"context"
	"errors"
	"time"

	"invoicer/internal/core"
	"invoicer/internal/log"
	"invoicer/internal/storage"
)

// DefaultDraft is the name of the draft the CLI works on when none is given.
const DefaultDraft = "current"

// DraftStore persists drafts between invocations.
type DraftStore interface {
	SaveDraft(ctx context.Context, name string, d core.Draft) error
	LoadDraft(ctx context.Context, name string) (core.Draft, error)
	DeleteDraft(ctx context.Context, name string) error
	ListDrafts(ctx context.Context) ([]storage.DraftInfo, error)
}

// ProfileSource supplies the profile used to prefill the sender block.
type ProfileSource interface {
	CurrentUser() *core.Profile
}

// DraftWorkspace edits saved drafts. Every edit goes load, apply the core
// draft operation, save; a failed operation leaves the stored draft as it was.
type DraftWorkspace struct {
	store   DraftStore
	profile ProfileSource
	logger  *log.Logger
	now     func() time.Time
}

func NewDraftWorkspace(store DraftStore, profile ProfileSource, logger *log.Logger) *DraftWorkspace {
	if logger == nil {
		logger = log.Discard()
	}
	return &DraftWorkspace{
		store:   store,
		profile: profile,
		logger:  logger.WithComponent(log.ComponentInvoice),
		now:     time.Now,
	}
}

func (w *DraftWorkspace) user() *core.Profile {
	if w.profile == nil {
		return nil
	}
	return w.profile.CurrentUser()
}

// Start replaces the named draft with a fresh one prefilled from the profile.
func (w *DraftWorkspace) Start(ctx context.Context, name string) (core.Draft, error) {
	d := core.NewDraft(w.user(), w.now())
	if err := w.store.SaveDraft(ctx, name, d); err != nil {
		return core.Draft{}, err
	}
	w.logger.DebugContext(ctx, "Draft started", log.FieldDraft, name, log.FieldInvoiceNumber, d.InvoiceNumber)
	return d, nil
}

// Open loads the named draft, starting one if it does not exist.
func (w *DraftWorkspace) Open(ctx context.Context, name string) (core.Draft, error) {
	d, err := w.store.LoadDraft(ctx, name)
	if errors.Is(err, storage.ErrDraftNotFound) {
		return w.Start(ctx, name)
	}
	return d, err
}

func (w *DraftWorkspace) Get(ctx context.Context, name string) (core.Draft, error) {
	return w.store.LoadDraft(ctx, name)
}

func (w *DraftWorkspace) List(ctx context.Context) ([]storage.DraftInfo, error) {
	return w.store.ListDrafts(ctx)
}

func (w *DraftWorkspace) update(ctx context.Context, name string, fn func(core.Draft) (core.Draft, error)) (core.Draft, error) {
	d, err := w.Open(ctx, name)
	if err != nil {
		return core.Draft{}, err
	}
	next, err := fn(d)
	if err != nil {
		return d, err
	}
	if err := w.store.SaveDraft(ctx, name, next); err != nil {
		return d, err
	}
	return next, nil
}

func (w *DraftWorkspace) SetField(ctx context.Context, name, path, value string) (core.Draft, error) {
	return w.update(ctx, name, func(d core.Draft) (core.Draft, error) {
		return core.SetField(d, path, value)
	})
}

func (w *DraftWorkspace) SetItem(ctx context.Context, name string, index int, field, value string) (core.Draft, error) {
	return w.update(ctx, name, func(d core.Draft) (core.Draft, error) {
		return core.SetLineItem(d, index, field, value)
	})
}

func (w *DraftWorkspace) AddItem(ctx context.Context, name string) (core.Draft, error) {
	return w.update(ctx, name, func(d core.Draft) (core.Draft, error) {
		return core.AddLineItem(d), nil
	})
}

func (w *DraftWorkspace) RemoveItem(ctx context.Context, name string, index int) (core.Draft, error) {
	return w.update(ctx, name, func(d core.Draft) (core.Draft, error) {
		return core.RemoveLineItem(d, index)
	})
}

func (w *DraftWorkspace) Discard(ctx context.Context, name string) error {
	return w.store.DeleteDraft(ctx, name)
}

// Submit creates an invoice from the named draft and drops the draft once the
// backend accepted it. On any failure the draft is kept unchanged.
func (w *DraftWorkspace) Submit(ctx context.Context, name string, svc *InvoiceService) (*SubmitResult, error) {
	d, err := w.store.LoadDraft(ctx, name)
	if err != nil {
		return nil, err
	}
	res, err := svc.Submit(ctx, d)
	if err != nil {
		return nil, err
	}
	if err := w.store.DeleteDraft(ctx, name); err != nil && !errors.Is(err, storage.ErrDraftNotFound) {
		w.logger.WarnContext(ctx, "Submitted draft could not be removed", log.FieldDraft, name, log.FieldError, err.Error())
	}
	return res, nil
}

// ProfileChanged re-applies the sender prefill to every saved draft. A nil
// profile leaves drafts untouched.
func (w *DraftWorkspace) ProfileChanged(ctx context.Context, p *core.Profile) {
	if p == nil {
		return
	}
	infos, err := w.store.ListDrafts(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "Listing drafts failed", log.FieldError, err.Error())
		return
	}
	for _, info := range infos {
		d, err := w.store.LoadDraft(ctx, info.Name)
		if err != nil {
			continue
		}
		if err := w.store.SaveDraft(ctx, info.Name, core.ApplyProfile(d, p)); err != nil {
			w.logger.WarnContext(ctx, "Refreshing draft sender failed", log.FieldDraft, info.Name, log.FieldError, err.Error())
		}
	}
}
