package rest

import (
	"context"
	"fmt"
	"net/http"

	"invoicer/internal/core"
)

type (
	parseRequest struct {
		Text string `json:"text"`
	}

	reminderResponse struct {
		ReminderEmail string `json:"reminderEmail"`
	}

	insightsResponse struct {
		Insights string `json:"insights"`
	}
)

func (c *Client) ParseText(ctx context.Context, text string) (core.Invoice, error) {
	var inv core.Invoice
	err := c.do(ctx, http.MethodPost, c.endpoint("ai", "parse-text"), parseRequest{Text: text}, &inv)
	return inv, err
}

// GenerateReminder returns the drafted email body. An empty string means the
// backend answered without one.
func (c *Client) GenerateReminder(ctx context.Context, invoiceID string) (string, error) {
	u, err := c.resource(invoiceID, "ai", "reminder")
	if err != nil {
		return "", fmt.Errorf("generate reminder: %w", err)
	}
	var resp reminderResponse
	if err := c.do(ctx, http.MethodPost, u, nil, &resp); err != nil {
		return "", err
	}
	return resp.ReminderEmail, nil
}

func (c *Client) Insights(ctx context.Context) (string, error) {
	var resp insightsResponse
	if err := c.do(ctx, http.MethodGet, c.endpoint("ai", "insights"), nil, &resp); err != nil {
		return "", err
	}
	return resp.Insights, nil
}
