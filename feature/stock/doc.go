// Package stock owns the authoritative inventory snapshot.
//
// The Store reads the item master and movement ledger that the sync pipeline
// replaces wholesale, and computes per-item availability (opening quantity
// minus cumulative OUT movements, clamped at zero) fresh on every call. The
// HTTP surface serves reservation-aware aggregates by delegating to the
// reservation feature through the ReservationView interface, running the
// maintenance sweeps before each read.
package stock
