package backend

import (
	"fmt"
	"strings"

	"invoicer/internal/config"
	"invoicer/internal/log"
)

// FromAppConfig converts the application config to backend config. token may
// be nil for unauthenticated use.
func FromAppConfig(appConfig *config.Config, token func() string, logger *log.Logger) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s (valid: %s)", appConfig.DataBackend, validTypes())
	}

	return Config{
		Type:       backendType,
		BaseURL:    appConfig.APIBaseURL,
		Timeout:    appConfig.APITimeout,
		MaxRetries: appConfig.APIMaxRetries,
		Token:      token,
		Logger:     logger,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s (valid: %s)", c.Type, validTypes())
	}

	switch c.Type {
	case RESTBackend:
		if c.BaseURL == "" {
			return fmt.Errorf("base URL is required for rest backend")
		}
		if c.MaxRetries < 0 {
			return fmt.Errorf("max retries cannot be negative")
		}
	case MemoryBackend:
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{RESTBackend, MemoryBackend}
}

func validTypes() string {
	types := GetBackendTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
