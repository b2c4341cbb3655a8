package tokenstore

import "context"

// SecretStore reads and writes the persisted login token.
//
// Implementations hold a single named secret slot. All operations are
// whole-value: readers never observe a partial write.
type SecretStore interface {
	// Exists reports whether a token is currently persisted.
	Exists(ctx context.Context) (bool, error)

	// Read returns the stored token. Returns an error if the slot is
	// missing or empty.
	Read(ctx context.Context) (string, error)

	// Write persists the token, overwriting any existing value.
	Write(ctx context.Context, token string) error

	// Delete removes the stored token. Deleting an absent slot is not an
	// error.
	Delete(ctx context.Context) error

	// Location returns a human-readable description of where the token is
	// stored, for advisory messages.
	Location() string
}
