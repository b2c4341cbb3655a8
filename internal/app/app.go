// Package app wires configuration into the credential-client components.
package app

import (
	"fmt"

	"github.com/calebmarchent/vagrant/internal/cloudclient"
	"github.com/calebmarchent/vagrant/internal/tokensource"
)

// NewTokenSource creates a token source backed by the configured secret store.
// No I/O is performed until the first Resolve call.
func NewTokenSource(cfg *Config) (*tokensource.Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := cfg.Auth.NewSecretStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create secret store: %w", err)
	}

	return tokensource.New(store)
}

// NewClient creates a Vagrant Cloud client from application configuration,
// using the given token source for credential resolution.
func NewClient(cfg *Config, source *tokensource.Source) (*cloudclient.Client, error) {
	return cloudclient.New(source, cloudclient.WithBaseURL(cfg.Cloud.BaseURL))
}
