// Package gateway is the HTTP client for the read-only system-of-record
// gateway. It fetches the item master and movement ledger snapshots the sync
// pipeline loads, authenticating with a static API key header.
package gateway
