package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"invoicer/internal/backend/memory"
	"invoicer/internal/core"
	"invoicer/internal/storage"
)

type staticProfile struct{ p *core.Profile }

func (s *staticProfile) CurrentUser() *core.Profile { return s.p }

func newWorkspace(t *testing.T, p *core.Profile) (*DraftWorkspace, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "state.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewDraftWorkspace(repo, &staticProfile{p: p}, nil), repo
}

func TestDraftWorkspaceEditing(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorkspace(t, &core.Profile{BusinessName: "Acme", Email: "a@acme.in"})

	d, err := w.Open(ctx, DefaultDraft)
	if err != nil {
		t.Fatal(err)
	}
	if d.BillFrom.Name != "Acme" || len(d.Items) != 1 {
		t.Fatalf("unexpected new draft %+v", d)
	}

	if _, err := w.SetItem(ctx, DefaultDraft, 0, core.ItemPrice, "50"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.AddItem(ctx, DefaultDraft); err != nil {
		t.Fatal(err)
	}
	d, err = w.SetItem(ctx, DefaultDraft, 1, core.ItemPrice, "25")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Items) != 2 || d.Total.String() != "75" {
		t.Fatalf("unexpected draft totals %s with %d items", d.Total, len(d.Items))
	}

	if _, err := w.RemoveItem(ctx, DefaultDraft, 5); !errors.Is(err, core.ErrItemIndex) {
		t.Fatalf("expected ErrItemIndex, got %v", err)
	}
	if _, err := w.RemoveItem(ctx, DefaultDraft, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := w.RemoveItem(ctx, DefaultDraft, 0); !errors.Is(err, core.ErrMinItems) {
		t.Fatalf("expected ErrMinItems, got %v", err)
	}
	if _, err := w.SetField(ctx, DefaultDraft, "billTo.fax", "x"); !errors.Is(err, core.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}

	stored, err := w.Get(ctx, DefaultDraft)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Items) != 1 || stored.Items[0].Price != "25" || stored.Total.String() != "25" {
		t.Fatalf("stored draft out of sync: %+v", stored)
	}
}

func TestDraftWorkspaceSubmit(t *testing.T) {
	ctx := context.Background()
	w, repo := newWorkspace(t, nil)
	be := memory.New()
	svc := newService(t, be)

	if err := repo.SaveDraft(ctx, DefaultDraft, validDraft(t)); err != nil {
		t.Fatal(err)
	}

	be.Fail(memory.OpCreate, errors.New("offline"))
	if _, err := w.Submit(ctx, DefaultDraft, svc); err == nil {
		t.Fatal("expected failure")
	}
	if _, err := w.Get(ctx, DefaultDraft); err != nil {
		t.Fatalf("failed submit dropped the draft: %v", err)
	}

	be.Recover(memory.OpCreate)
	res, err := w.Submit(ctx, DefaultDraft, svc)
	if err != nil {
		t.Fatal(err)
	}
	if res.Invoice.InvoiceNumber != "INV-TEST001" {
		t.Fatalf("unexpected invoice %+v", res.Invoice)
	}
	if _, err := w.Get(ctx, DefaultDraft); !errors.Is(err, storage.ErrDraftNotFound) {
		t.Fatalf("submitted draft still stored: %v", err)
	}
}

func TestDraftWorkspaceProfileChanged(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorkspace(t, &core.Profile{BusinessName: "Old Name", Email: "old@acme.in"})

	if _, err := w.Start(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.SetField(ctx, "a", core.FieldBillFromPhone, "12345"); err != nil {
		t.Fatal(err)
	}

	w.ProfileChanged(ctx, nil)
	if d, _ := w.Get(ctx, "a"); d.BillFrom.Name != "Old Name" {
		t.Fatal("nil profile changed the draft")
	}

	w.ProfileChanged(ctx, &core.Profile{BusinessName: "New Name", Email: "new@acme.in"})
	d, err := w.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if d.BillFrom != (core.PartyInfo{Name: "New Name", Email: "new@acme.in"}) {
		t.Fatalf("sender not re-derived: %+v", d.BillFrom)
	}
}
