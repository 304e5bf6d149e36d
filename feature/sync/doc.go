// Package sync keeps the local inventory snapshot aligned with the system of
// record. Each cycle extracts both snapshots from the gateway, swaps them
// into the store inside one transaction, settles newly observed outbound
// movements against the reservation ledger, and releases the reservations the
// fresh stock no longer covers. Cycles run on an interval scheduler and on
// demand over HTTP; only one runs at a time.
package sync
