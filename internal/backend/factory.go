package backend

import (
	"context"
	"fmt"

	"invoicer/internal/backend/memory"
	"invoicer/internal/backend/rest"
	"invoicer/internal/log"
	"invoicer/internal/middleware/trace"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case RESTBackend:
		return f.createRESTBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createRESTBackend(config Config) (*BackendResult, error) {
	logger := config.Logger
	if logger == nil {
		logger = f.logger
	}
	opts := []rest.Option{
		rest.WithTimeout(config.Timeout),
		rest.WithMaxRetries(config.MaxRetries),
		rest.WithTransport(trace.NewTransport(config.Transport, logger)),
	}
	if config.Token != nil {
		opts = append(opts, rest.WithTokenFunc(config.Token))
	}
	client, err := rest.NewClient(config.BaseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize REST client: %w", err)
	}

	f.logger.Debug("Initialized REST backend", "base_url", config.BaseURL, "max_retries", config.MaxRetries)

	return &BackendResult{
		Backend: client,
		Cleanup: func() error {
			client.CloseIdleConnections()
			return nil
		},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	store := memory.NewSeeded()

	f.logger.Debug("Initialized memory backend", "invoices", store.Len())

	return &BackendResult{
		Backend: store,
		Cleanup: nil,
	}, nil
}
