package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"invoicer/internal/core"
)

// invoiceList accepts both list shapes the backend has used: a bare array,
// or an object wrapping the array in "data".
type invoiceList []core.Invoice

func (l *invoiceList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var arr []core.Invoice
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		*l = arr
		return nil
	}
	var wrapped struct {
		Data []core.Invoice `json:"data"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	*l = wrapped.Data
	return nil
}

func (c *Client) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	var list invoiceList
	if err := c.do(ctx, http.MethodGet, c.endpoint("invoices"), nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		return []core.Invoice{}, nil
	}
	return list, nil
}

func (c *Client) GetInvoice(ctx context.Context, id string) (core.Invoice, error) {
	u, err := c.resource(id, "invoices")
	if err != nil {
		return core.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	var inv core.Invoice
	err = c.do(ctx, http.MethodGet, u, nil, &inv)
	return inv, err
}

func (c *Client) CreateInvoice(ctx context.Context, in core.InvoiceInput) (core.Invoice, error) {
	var inv core.Invoice
	err := c.do(ctx, http.MethodPost, c.endpoint("invoices"), in, &inv)
	return inv, err
}

func (c *Client) UpdateInvoice(ctx context.Context, id string, patch core.InvoicePatch) (core.Invoice, error) {
	u, err := c.resource(id, "invoices")
	if err != nil {
		return core.Invoice{}, fmt.Errorf("update invoice: %w", err)
	}
	var inv core.Invoice
	err = c.do(ctx, http.MethodPut, u, patch, &inv)
	return inv, err
}

func (c *Client) DeleteInvoice(ctx context.Context, id string) error {
	u, err := c.resource(id, "invoices")
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return c.do(ctx, http.MethodDelete, u, nil, nil)
}
