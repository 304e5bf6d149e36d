// Package credentials is the persisted, hashed credential repository.
//
// It replaces the plaintext in-memory user table of earlier deployments with a
// bcrypt-hashed database table. Reservation admission uses Lookup to validate
// the holder named in reserved_by; the user CLI command uses Upsert to manage
// accounts.
package credentials
