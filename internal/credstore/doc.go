// Package credstore provides secure local persistence for the voter identifier
// and the current pre-verification token.
//
// Store layers voter semantics over a Backend. Supported backends trade off
// security and deployment differently:
//   - File: one sealed file per key with atomic writes and 0600 permissions
//   - SQLite: sealed values in an embedded database, for devices that already keep one
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Env: read-only voter identifier from an environment variable
//
// File and SQLite values are encrypted and authenticated with a Sealer, so
// other applications on the device can neither read nor silently alter them.
// Key management is the caller's concern: the Sealer only receives a secret.
package credstore
