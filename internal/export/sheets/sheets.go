// Package sheets exports the invoice list to a Google Sheet. The target sheet
// is overwritten on every export: a header row followed by one row per invoice.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"invoicer/internal/config"
	"invoicer/internal/core"
	"invoicer/internal/log"
)

// Header is the first row of every export.
var Header = []any{"Invoice #", "Client", "Client Email", "Invoice Date", "Due Date", "Status", "Subtotal", "Tax", "Total", "Created"}

// Config selects the target spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// FromAppConfig extracts the export settings.
func FromAppConfig(c *config.Config) Config {
	return Config{
		SpreadsheetID:      c.GoogleSpreadsheetID,
		SheetName:          c.GoogleSheetName,
		ServiceAccountJSON: c.GoogleServiceAccountJSON,
		ServiceAccountFile: c.GoogleServiceAccountFile,
	}
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger
}

// New creates an exporter authenticated with the configured service account.
// Extra client options are appended after the credentials.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentExport)

	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	if creds != nil {
		opts = append([]goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}, opts...)
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Invoices"
	}
	logger.DebugContext(ctx, "Sheets exporter ready", "spreadsheet_id", cfg.SpreadsheetID, "sheet", sheet)
	return &Exporter{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheet: sheet, logger: logger}, nil
}

// credentials returns the service account key, inline JSON first. Nil means
// the caller supplies authentication through options.
func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, nil
}

// Rows renders the header and one row per invoice, in input order.
func Rows(invoices []core.Invoice) [][]any {
	rows := make([][]any, 0, len(invoices)+1)
	rows = append(rows, Header)
	for _, inv := range invoices {
		created := ""
		if !inv.CreatedAt.IsZero() {
			created = inv.CreatedAt.UTC().Format(core.DateLayout)
		}
		rows = append(rows, []any{
			inv.InvoiceNumber,
			inv.BillTo.ClientName,
			inv.BillTo.Email,
			inv.InvoiceDate,
			inv.DueDate,
			string(inv.Status),
			inv.Subtotal,
			inv.TaxTotal,
			inv.Total,
			created,
		})
	}
	return rows
}

// Export clears the sheet and writes the invoices. It returns the number of
// invoice rows written.
func (e *Exporter) Export(ctx context.Context, invoices []core.Invoice) (int, error) {
	if e.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:Z", e.sheet)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rng := fmt.Sprintf("%s!A1", e.sheet)
	vr := &gsheet.ValueRange{Values: Rows(invoices)}
	_, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", rng, err)
	}

	e.logger.InfoContext(ctx, "Invoices exported", log.FieldOperation, log.OpExport, log.FieldCount, len(invoices), "sheet", e.sheet)
	return len(invoices), nil
}
