package backend

import (
	"context"
	"net/http"
	"slices"
	"time"

	"invoicer/internal/log"
)

// Backend represents a unified backend interface that provides all necessary operations
type Backend interface {
	InvoiceLister
	InvoiceReader
	InvoiceWriter
	Assistant
	Authenticator
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// REST specific
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// Token returns the bearer token to send, or "" when signed out.
	Token func() string
	// Transport is the base round tripper; nil means http.DefaultTransport.
	Transport http.RoundTripper

	Logger *log.Logger
}

// BackendType represents the type of backend
type BackendType string

const (
	RESTBackend   BackendType = "rest"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	return slices.Contains(GetBackendTypes(), bt)
}
