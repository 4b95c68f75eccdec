package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"invoicer/internal/backend"
	"invoicer/internal/cache"
	"invoicer/internal/config"
	"invoicer/internal/core"
	"invoicer/internal/export/sheets"
	"invoicer/internal/log"
	"invoicer/internal/services"
	"invoicer/internal/session"
	"invoicer/internal/storage"
)

// Streams are the terminal the commands talk to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Exporter writes invoices to an external spreadsheet.
type Exporter interface {
	Export(ctx context.Context, invoices []core.Invoice) (int, error)
}

// App wires the state store, session, backend and services for one
// invocation.
type App struct {
	cfg     *config.Config
	logger  *log.Logger
	store   *storage.SQLiteRepository
	session *session.Session
	backend backend.Backend
	svc     *services.InvoiceService
	drafts  *services.DraftWorkspace

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	newExporter func(ctx context.Context) (Exporter, error)
	cleanup     []backend.CleanupFunc
}

func NewApp(ctx context.Context, cfg *config.Config, s Streams, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if s.In == nil {
		s.In = strings.NewReader("")
	}
	if s.Out == nil {
		s.Out = io.Discard
	}
	if s.Err == nil {
		s.Err = io.Discard
	}

	store, err := InitSQLite(logger, cfg.StateDBPath)
	if err != nil {
		return nil, err
	}
	app := &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
		in:     bufio.NewReader(s.In),
		out:    s.Out,
		errOut: s.Err,
	}
	app.cleanup = append(app.cleanup, store.Close)

	app.session = session.New(store, logger)
	bcfg, err := backend.FromAppConfig(cfg, app.session.Token, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("create backend: %w", err)
	}
	if res.Cleanup != nil {
		app.cleanup = append(app.cleanup, res.Cleanup)
	}
	app.backend = res.Backend
	app.session.Bind(res.Backend)

	lru := cache.NewLRUCache[string](cfg.CacheSize, cfg.CacheTTL)
	app.svc = services.NewInvoiceService(res.Backend, lru, logger)
	app.drafts = services.NewDraftWorkspace(store, app.session, logger)

	// A different user must never see the previous user's generated text,
	// and open drafts follow the new sender details.
	app.session.OnProfileChange(func(ctx context.Context, p *core.Profile) {
		app.svc.Forget()
		app.drafts.ProfileChanged(ctx, p)
	})

	if err := app.session.Init(ctx); err != nil {
		app.Close()
		return nil, err
	}

	app.newExporter = func(ctx context.Context) (Exporter, error) {
		if !cfg.ExportConfigured() {
			return nil, errors.New("export is not configured: set GOOGLE_SPREADSHEET_ID and service account credentials")
		}
		return sheets.New(ctx, sheets.FromAppConfig(cfg), logger)
	}

	logger.Debug("Application ready", log.FieldOperation, log.OpStartup,
		"backend", cfg.DataBackend, "authenticated", app.session.IsAuthenticated())
	return app, nil
}

// Close releases the backend and the state store.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanup = nil
	if a.session != nil {
		a.session.Teardown()
	}
	return errors.Join(errs...)
}

func (a *App) requireAuth() error {
	if !a.session.IsAuthenticated() {
		return session.ErrNotAuthenticated
	}
	return nil
}

// readLine prompts on the error stream and reads one line of input.
func (a *App) readLine(prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm implements services.Confirmer by asking y/N on the terminal.
func (a *App) Confirm(prompt string) bool {
	answer, err := a.readLine(prompt + " [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func (a *App) symbol() string {
	return a.cfg.CurrencySymbol
}
