// Package reservation owns the reservation ledger: the admission path that
// decides, under row locks, whether a claim still fits the available stock;
// the lifecycle sweeps that expire and release claims; and the
// reservation-aware aggregates the stock endpoints serve.
package reservation
