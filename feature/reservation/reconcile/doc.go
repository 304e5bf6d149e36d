// Package reconcile reshapes the reservation ledger after the inventory
// snapshot changes underneath it. It carries two allocation strategies behind
// one interface: a bulk overflow release that cancels the claims current
// stock no longer covers, and a per-movement consumption release that settles
// newly observed outbound movements against existing claims.
package reconcile
