// Package storage wraps the MinIO client behind a narrow interface.
//
// The sync pipeline uses it to archive the raw payloads extracted from the
// system of record, one object per collection per run, so a bad upstream
// snapshot can be inspected after the fact. The Client interface keeps the
// surface small enough to mock in tests (see the mocks subpackage).
package storage
