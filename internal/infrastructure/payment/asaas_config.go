package payment

import (
	"errors"
	"time"
)

const (
	asaasProductionURL = "https://api.asaas.com/v3"
	asaasSandboxURL    = "https://sandbox.asaas.com/api/v3"
)

// ErrAsaasMissingAPIKey is returned when no API key is configured
var ErrAsaasMissingAPIKey = errors.New("asaas: missing API key")

// AsaasConfig contains configuration for the Asaas v3 API
type AsaasConfig struct {
	APIKey  string
	Sandbox bool
	// BaseURL overrides the environment URL
	BaseURL string
	Timeout time.Duration
}

// Validate validates the configuration
func (c *AsaasConfig) Validate() error {
	if c.APIKey == "" {
		return ErrAsaasMissingAPIKey
	}
	return nil
}

// URL returns the API base URL without a trailing slash
func (c *AsaasConfig) URL() string {
	switch {
	case c.BaseURL != "":
		return c.BaseURL
	case c.Sandbox:
		return asaasSandboxURL
	default:
		return asaasProductionURL
	}
}
