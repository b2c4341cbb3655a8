package tokensource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/calebmarchent/vagrant/internal/tokenstore"
)

const (
	// PrimaryEnvVar holds the access token when supplied by the process
	// environment. It takes precedence over the persisted token.
	PrimaryEnvVar = "VAGRANT_CLOUD_TOKEN"

	// LegacyEnvVar is the deprecated predecessor of PrimaryEnvVar, honored
	// last in the resolution order.
	LegacyEnvVar = "ATLAS_TOKEN"
)

// LookupEnvFunc looks up a process environment variable.
// Matches the signature of os.LookupEnv.
type LookupEnvFunc func(key string) (string, bool)

// Option configures a Source.
type Option func(*Source)

// WithLookupEnv sets a custom environment lookup function.
// If not provided, os.LookupEnv is used.
func WithLookupEnv(lookup LookupEnvFunc) Option {
	return func(s *Source) {
		s.lookupEnv = lookup
	}
}

// WithLogger sets the logger used for resolution advisories.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.log = logger
	}
}

// Source resolves the single authoritative access token from its competing
// sources and mutates the persisted slot. It holds no token state of its own.
type Source struct {
	store     tokenstore.SecretStore
	lookupEnv LookupEnvFunc
	log       *slog.Logger
}

// New creates a Source backed by the given secret store.
func New(store tokenstore.SecretStore, opts ...Option) (*Source, error) {
	if store == nil {
		return nil, fmt.Errorf("missing secret store")
	}

	s := &Source{
		store:     store,
		lookupEnv: os.LookupEnv,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Resolve returns the current access token, or the empty string when no
// source yields one. Precedence: PrimaryEnvVar, then the persisted store,
// then LegacyEnvVar.
//
// When both the primary environment variable and a persisted token are
// present, an advisory is logged and the environment value wins; the
// persisted token is left untouched.
func (s *Source) Resolve(ctx context.Context) (string, error) {
	envToken := s.envValue(PrimaryEnvVar)

	exists, err := s.store.Exists(ctx)
	if err != nil {
		return "", fmt.Errorf("checking stored token: %w", err)
	}

	if envToken != "" {
		if exists {
			s.log.WarnContext(ctx, "detected both a stored token and the "+PrimaryEnvVar+" environment variable; the environment variable takes precedence",
				"stored", s.store.Location())
		}
		return envToken, nil
	}

	if exists {
		token, err := s.store.Read(ctx)
		if err != nil {
			return "", fmt.Errorf("reading stored token: %w", err)
		}
		return strings.TrimSpace(token), nil
	}

	if legacy := s.envValue(LegacyEnvVar); legacy != "" {
		s.log.WarnContext(ctx, LegacyEnvVar+" is deprecated; set "+PrimaryEnvVar+" instead")
		return legacy, nil
	}

	return "", nil
}

// Store persists the token, overwriting any existing value. The environment
// variables are unaffected and continue to take precedence if set.
func (s *Source) Store(ctx context.Context, token string) error {
	if err := s.store.Write(ctx, token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	return nil
}

// Clear removes the persisted token. Clearing an absent token is not an error.
func (s *Source) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	return nil
}

func (s *Source) envValue(key string) string {
	v, ok := s.lookupEnv(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}
