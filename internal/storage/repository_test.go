package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"invoicer/internal/core"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "state.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	if _, _, err := repo.LoadSession(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if err := repo.SaveSession(ctx, "tok-1", []byte(`{"fullName":"A"}`)); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveSession(ctx, "tok-2", []byte(`{"fullName":"B"}`)); err != nil {
		t.Fatal(err)
	}
	token, user, err := repo.LoadSession(ctx)
	if err != nil || token != "tok-2" || string(user) != `{"fullName":"B"}` {
		t.Fatalf("LoadSession: %q %s %v", token, user, err)
	}
	if err := repo.ClearSession(ctx); err != nil {
		t.Fatal(err)
	}
	if _, _, err := repo.LoadSession(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after clear, got %v", err)
	}
}

func TestDraftsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	tick := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { tick = tick.Add(time.Second); return tick }

	d := core.NewDraft(&core.Profile{BusinessName: "Acme", Email: "a@acme.in"}, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	d, _ = core.SetLineItem(d, 0, core.ItemQuantity, "2")
	d, _ = core.SetLineItem(d, 0, core.ItemPrice, "100")
	d, _ = core.SetLineItem(d, 0, core.ItemTax, "10")

	if err := repo.SaveDraft(ctx, "current", d); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveDraft(ctx, "other", core.NewDraft(nil, time.Now())); err != nil {
		t.Fatal(err)
	}

	got, err := repo.LoadDraft(ctx, "current")
	if err != nil {
		t.Fatal(err)
	}
	if got.InvoiceNumber != d.InvoiceNumber || got.BillFrom.Name != "Acme" || got.Items[0].Price != "100" {
		t.Fatalf("draft fields lost: %+v", got)
	}
	if !got.Total.Equal(decimal.NewFromInt(220)) || !got.Items[0].Total.Equal(decimal.NewFromInt(220)) {
		t.Fatalf("totals lost: %s %s", got.Total, got.Items[0].Total)
	}

	infos, err := repo.ListDrafts(ctx)
	if err != nil || len(infos) != 2 || infos[0].Name != "other" {
		t.Fatalf("ListDrafts: %+v %v", infos, err)
	}

	if err := repo.DeleteDraft(ctx, "other"); err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteDraft(ctx, "other"); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
	if _, err := repo.LoadDraft(ctx, "other"); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}

	n, err := repo.ClearDrafts(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ClearDrafts: %d %v", n, err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	for i := 0; i < 2; i++ {
		v, err := RunMigrations(path)
		if err != nil || v != 1 {
			t.Fatalf("run %d: version %d err %v", i, v, err)
		}
	}
}
