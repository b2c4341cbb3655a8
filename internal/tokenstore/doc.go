// Package tokenstore provides persistent storage for the Vagrant Cloud login token.
//
// Supports two storage backends with different security and deployment tradeoffs:
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//
// The store holds exactly one token per installation. Environment-supplied
// tokens are never written here; they are read by the token source during
// resolution and always take precedence over the persisted value.
package tokenstore
