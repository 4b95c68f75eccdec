// Package memory is an in-process backend used for offline demos and as the
// fake behind service tests. It mimics the REST backend closely enough that
// callers cannot tell the two apart: server-assigned ids and timestamps,
// default unpaid status, partial updates, and message-carrying errors.
package memory

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"invoicer/internal/core"
)

// Operation names accepted by Fail and Calls.
const (
	OpList     = "list"
	OpGet      = "get"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpParse    = "parse"
	OpReminder = "reminder"
	OpInsights = "insights"
	OpLogin    = "login"
	OpSignup   = "signup"
	OpProfile  = "profile"
)

// Error is returned for rejected calls. Message plays the role of the
// backend's JSON "message" field.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("memory backend: status %d", e.StatusCode)
	}
	return fmt.Sprintf("memory backend: status %d: %s", e.StatusCode, e.Message)
}

// ServerMessage returns the message a user should see.
func (e *Error) ServerMessage() string {
	return e.Message
}

type account struct {
	profile  core.Profile
	password string
}

type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	seq      int
	invoices []core.Invoice
	accounts map[string]*account // keyed by lower-cased email
	current  string              // email of the last signed-in account
	failures map[string]error
	calls    map[string]int
}

func New() *Store {
	return &Store{
		now:      time.Now,
		accounts: map[string]*account{},
		failures: map[string]error{},
		calls:    map[string]int{},
	}
}

// NewSeeded returns a store with a demo account (demo@invoicer.local /
// demo123) and a handful of invoices.
func NewSeeded() *Store {
	s := New()
	s.accounts["demo@invoicer.local"] = &account{
		profile: core.Profile{
			ID:              "mem-user-1",
			FullName:        "Demo User",
			Email:           "demo@invoicer.local",
			BusinessName:    "Demo Studio",
			BusinessAddress: "12 MG Road, Bengaluru",
			BusinessPhone:   "+91 98450 00000",
		},
		password: "demo123",
	}
	base := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	clients := []core.Recipient{
		{ClientName: "Globex Pvt Ltd", Email: "accounts@globex.in"},
		{ClientName: "Initech", Email: "billing@initech.io"},
		{ClientName: "Umbrella Traders", Email: "finance@umbrella.co.in"},
	}
	for i, c := range clients {
		qty, price := float64(i+1), 12500.0
		net := qty * price
		inv := core.Invoice{
			InvoiceNumber: fmt.Sprintf("INV-DEMO%03d", i+1),
			InvoiceDate:   base.AddDate(0, 0, 7*i).Format(core.DateLayout),
			DueDate:       base.AddDate(0, 0, 7*i+15).Format(core.DateLayout),
			BillFrom:      core.Sender{BusinessName: "Demo Studio", Email: "demo@invoicer.local"},
			BillTo:        c,
			Items:         []core.InvoiceItem{{Name: "Design retainer", Quantity: qty, UnitPrice: price, TaxPercent: 18, Total: net * 1.18}},
			PaymentTerms:  core.DefaultPaymentTerms,
			Subtotal:      net,
			TaxTotal:      net * 0.18,
			Total:         net * 1.18,
			Status:        core.StatusUnpaid,
		}
		if i == 0 {
			inv.Status = core.StatusPaid
		}
		s.insert(inv, base.AddDate(0, 0, 7*i))
	}
	return s
}

// WithClock replaces the time source used for createdAt.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Fail makes every following call of op return err until Recover is called.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// Recover clears an injected failure.
func (s *Store) Recover(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, op)
}

// Calls reports how many times op was invoked, failed calls included.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Len returns the number of stored invoices.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invoices)
}

// Put stores inv as is, assigning an id when it has none.
func (s *Store) Put(inv core.Invoice) core.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := inv.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	return s.insert(inv, created)
}

// begin records the call and returns the injected failure, if any. Callers hold s.mu.
func (s *Store) begin(op string) error {
	s.calls[op]++
	return s.failures[op]
}

func (s *Store) insert(inv core.Invoice, created time.Time) core.Invoice {
	if inv.ID == "" {
		s.seq++
		inv.ID = fmt.Sprintf("mem-%d", s.seq)
	}
	if inv.Status == "" {
		inv.Status = core.StatusUnpaid
	}
	inv.CreatedAt = created
	inv.Items = append([]core.InvoiceItem(nil), inv.Items...)
	s.invoices = append(s.invoices, inv)
	return inv
}

func (s *Store) find(id string) int {
	for i := range s.invoices {
		if s.invoices[i].ID == id {
			return i
		}
	}
	return -1
}

func notFound() error {
	return &Error{StatusCode: http.StatusNotFound, Message: "Invoice not found"}
}

func copyInvoice(inv core.Invoice) core.Invoice {
	inv.Items = append([]core.InvoiceItem(nil), inv.Items...)
	return inv
}

func (s *Store) ListInvoices(_ context.Context) ([]core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpList); err != nil {
		return nil, err
	}
	out := make([]core.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		out = append(out, copyInvoice(inv))
	}
	return out, nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpGet); err != nil {
		return core.Invoice{}, err
	}
	i := s.find(id)
	if i < 0 {
		return core.Invoice{}, notFound()
	}
	return copyInvoice(s.invoices[i]), nil
}

func (s *Store) CreateInvoice(_ context.Context, in core.InvoiceInput) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpCreate); err != nil {
		return core.Invoice{}, err
	}
	if in.InvoiceNumber == "" || in.BillTo.ClientName == "" || len(in.Items) == 0 {
		return core.Invoice{}, &Error{StatusCode: http.StatusBadRequest, Message: "Invoice number, client and items are required"}
	}
	for _, inv := range s.invoices {
		if inv.InvoiceNumber == in.InvoiceNumber {
			return core.Invoice{}, &Error{StatusCode: http.StatusConflict, Message: "Invoice number already exists"}
		}
	}
	inv := core.Invoice{
		InvoiceNumber: in.InvoiceNumber,
		InvoiceDate:   in.InvoiceDate,
		DueDate:       in.DueDate,
		BillFrom:      in.BillFrom,
		BillTo:        in.BillTo,
		Items:         in.Items,
		Notes:         in.Notes,
		PaymentTerms:  in.PaymentTerms,
		Subtotal:      in.Subtotal,
		TaxTotal:      in.TaxTotal,
		Total:         in.Total,
		Status:        core.StatusUnpaid,
	}
	return copyInvoice(s.insert(inv, s.now())), nil
}

func (s *Store) UpdateInvoice(_ context.Context, id string, patch core.InvoicePatch) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpUpdate); err != nil {
		return core.Invoice{}, err
	}
	i := s.find(id)
	if i < 0 {
		return core.Invoice{}, notFound()
	}
	if patch.Status != nil {
		if _, err := core.ParseStatus(string(*patch.Status)); err != nil {
			return core.Invoice{}, &Error{StatusCode: http.StatusBadRequest, Message: "Invalid status"}
		}
	}
	s.invoices[i] = patch.Apply(s.invoices[i])
	return copyInvoice(s.invoices[i]), nil
}

func (s *Store) DeleteInvoice(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpDelete); err != nil {
		return err
	}
	i := s.find(id)
	if i < 0 {
		return notFound()
	}
	s.invoices = append(s.invoices[:i], s.invoices[i+1:]...)
	return nil
}

// ParseText stands in for the AI parser: the whole text becomes a single
// line item of an unpaid draft invoice.
func (s *Store) ParseText(_ context.Context, text string) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpParse); err != nil {
		return core.Invoice{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return core.Invoice{}, &Error{StatusCode: http.StatusBadRequest, Message: "Text is required"}
	}
	now := s.now()
	inv := core.Invoice{
		InvoiceNumber: core.GenerateInvoiceNumber(now, s.seq+1),
		InvoiceDate:   now.Format(core.DateLayout),
		DueDate:       now.AddDate(0, 0, 15).Format(core.DateLayout),
		BillTo:        core.Recipient{ClientName: "Parsed client"},
		Items:         []core.InvoiceItem{{Name: text, Quantity: 1}},
		Notes:         text,
		PaymentTerms:  core.DefaultPaymentTerms,
	}
	return copyInvoice(s.insert(inv, now)), nil
}

func (s *Store) GenerateReminder(_ context.Context, invoiceID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpReminder); err != nil {
		return "", err
	}
	i := s.find(invoiceID)
	if i < 0 {
		return "", notFound()
	}
	inv := s.invoices[i]
	return fmt.Sprintf("Dear %s,\n\nThis is a friendly reminder that invoice %s for %.2f was due on %s. "+
		"Please arrange payment at your earliest convenience.\n\nRegards,\n%s",
		inv.BillTo.ClientName, inv.InvoiceNumber, inv.Total, inv.DueDate, inv.BillFrom.BusinessName), nil
}

func (s *Store) Insights(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpInsights); err != nil {
		return "", err
	}
	if len(s.invoices) == 0 {
		return "", nil
	}
	st := core.ComputeStats(s.invoices)
	outstanding := 0.0
	for _, inv := range s.invoices {
		if inv.Status == core.StatusUnpaid {
			outstanding += inv.Total
		}
	}
	return fmt.Sprintf("%d of %d invoices are paid, bringing in %s. %d invoices worth %.2f are still outstanding.",
		st.PaidInvoices, st.TotalInvoices, st.TotalRevenue.StringFixed(2), st.UnpaidInvoices, outstanding), nil
}

func (s *Store) Login(_ context.Context, c core.Credentials) (core.AuthResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpLogin); err != nil {
		return core.AuthResult{}, err
	}
	acc, ok := s.accounts[strings.ToLower(c.Email)]
	if !ok || acc.password != c.Password {
		return core.AuthResult{}, &Error{StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"}
	}
	s.current = strings.ToLower(c.Email)
	return s.issue(acc), nil
}

func (s *Store) Signup(_ context.Context, r core.SignupRequest) (core.AuthResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpSignup); err != nil {
		return core.AuthResult{}, err
	}
	key := strings.ToLower(r.Email)
	if _, exists := s.accounts[key]; exists {
		return core.AuthResult{}, &Error{StatusCode: http.StatusConflict, Message: "User already exists"}
	}
	s.seq++
	acc := &account{
		profile: core.Profile{
			ID:              fmt.Sprintf("mem-user-%d", s.seq),
			FullName:        r.FullName,
			Email:           r.Email,
			BusinessName:    r.BusinessName,
			BusinessAddress: r.BusinessAddress,
			BusinessPhone:   r.BusinessPhone,
		},
		password: r.Password,
	}
	s.accounts[key] = acc
	s.current = key
	return s.issue(acc), nil
}

func (s *Store) UpdateProfile(_ context.Context, u core.ProfileUpdate) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpProfile); err != nil {
		return core.Profile{}, err
	}
	acc, ok := s.accounts[s.current]
	if !ok {
		return core.Profile{}, &Error{StatusCode: http.StatusUnauthorized, Message: "Not authorized"}
	}
	acc.profile.FullName = u.FullName
	acc.profile.Email = u.Email
	acc.profile.BusinessName = u.BusinessName
	acc.profile.BusinessAddress = u.BusinessAddress
	acc.profile.BusinessPhone = u.BusinessPhone
	if key := strings.ToLower(u.Email); key != s.current {
		delete(s.accounts, s.current)
		s.accounts[key] = acc
		s.current = key
	}
	return acc.profile, nil
}

func (s *Store) issue(acc *account) core.AuthResult {
	s.seq++
	return core.AuthResult{Token: fmt.Sprintf("mem-token-%d", s.seq), Profile: acc.profile}
}
