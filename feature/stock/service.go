package stock

import "context"

// Aggregates is the reservation-aware view of one item: the numbers a caller
// needs to decide whether a new reservation can still fit.
type Aggregates struct {
	Item         string  `json:"item"`
	Category     string  `json:"category,omitempty"`
	BaseUnit     string  `json:"base_unit,omitempty"`
	TotalQty     float64 `json:"total_qty"`
	ReservedQty  float64 `json:"reserved_qty"`
	AvailableQty float64 `json:"available_qty"`
	ReservedBy   string  `json:"reserved_by,omitempty"`
	ReserveUntil string  `json:"reserve_until,omitempty"`
}

// ReservationView is the slice of the reservation feature the stock read
// endpoints need: run maintenance sweeps, then read per-item aggregates.
type ReservationView interface {
	// Sweep runs the expire and overflow-cancel sweeps. Invoked before
	// reservation-aware reads so the served numbers honor the invariant.
	Sweep(ctx context.Context) error
	// ItemAggregates returns the reservation-aware view of one item.
	ItemAggregates(ctx context.Context, name string) (*Aggregates, error)
	// ListAggregates returns the reservation-aware view of all items,
	// optionally filtered by category.
	ListAggregates(ctx context.Context, category string) ([]Aggregates, error)
}

// Service exposes inventory reads to the HTTP layer.
type Service struct {
	store        *Store
	reservations ReservationView
}

// NewService creates the stock read service.
func NewService(store *Store, reservations ReservationView) *Service {
	return &Service{store: store, reservations: reservations}
}

// ItemView sweeps, then returns the aggregates for one item.
func (s *Service) ItemView(ctx context.Context, name string) (*Aggregates, error) {
	if err := s.reservations.Sweep(ctx); err != nil {
		return nil, err
	}
	return s.reservations.ItemAggregates(ctx, name)
}

// ListView sweeps, then returns aggregates for all items in a category
// (or every item when category is empty).
func (s *Service) ListView(ctx context.Context, category string) ([]Aggregates, error) {
	if err := s.reservations.Sweep(ctx); err != nil {
		return nil, err
	}
	return s.reservations.ListAggregates(ctx, category)
}
