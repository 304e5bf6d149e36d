package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"inventory-manager/core/credentials"
	"inventory-manager/core/mailer"
	"inventory-manager/feature/reservation/models"
	"inventory-manager/feature/reservation/reconcile"
	"inventory-manager/feature/stock"
	stockmodels "inventory-manager/feature/stock/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultDays is the reservation window applied when the request omits one.
const DefaultDays = 3

// ReserveRequest is a single admission attempt.
type ReserveRequest struct {
	Item       string
	Qty        float64
	ReservedBy string
	Days       int
}

// ReserveResult carries the admitted reservation and the item aggregates as
// of the moment the admission committed.
type ReserveResult struct {
	Reservation *models.StockReservation
	Aggregates  *stock.Aggregates
}

// Service owns the reservation ledger: admission, the lifecycle sweeps, and
// the reservation-aware aggregates the stock endpoints serve.
type Service struct {
	db        *gorm.DB
	store     *stock.Store
	allocator reconcile.Allocator
	creds     credentials.Store
	notifier  mailer.Notifier
	logger    *zap.Logger
	lock      bool
}

// NewService creates the reservation service. creds and notifier may be nil;
// admission then skips the holder check and the notification respectively.
// lock reports whether the dialect honors FOR UPDATE.
func NewService(db *gorm.DB, logger *zap.Logger, creds credentials.Store, notifier mailer.Notifier, lock bool) *Service {
	return &Service{
		db:        db,
		store:     stock.NewStore(db),
		allocator: reconcile.New(db, logger, lock),
		creds:     creds,
		notifier:  notifier,
		logger:    logger,
		lock:      lock,
	}
}

// Allocator exposes the reconciliation strategies for the sync pipeline.
func (s *Service) Allocator() reconcile.Allocator {
	return s.allocator
}

// Reserve admits a reservation if, and only if, the requested quantity still
// fits under the item's current availability net of active reservations. The
// availability read, the check, and the insert happen in one transaction with
// the relevant rows locked, so two racing requests for the last units admit
// exactly one.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (*ReserveResult, error) {
	item := strings.TrimSpace(req.Item)
	holder := strings.TrimSpace(req.ReservedBy)
	if item == "" || holder == "" {
		return nil, ErrMissingFields
	}
	if req.Qty <= 0 || req.Days < 0 {
		return nil, ErrInvalidQuantity
	}
	days := req.Days
	if days == 0 {
		days = DefaultDays
	}

	if s.creds != nil {
		if _, err := s.creds.Lookup(ctx, holder); err != nil {
			if errors.Is(err, credentials.ErrUnknownUser) {
				return nil, ErrUnknownHolder
			}
			return nil, err
		}
	}

	// Run both maintenance passes first so stale or uncovered claims never
	// count against the request.
	if err := s.Sweep(ctx); err != nil {
		return nil, err
	}

	today := models.Today()
	reservation := &models.StockReservation{
		Item:       item,
		ReservedBy: holder,
		Qty:        req.Qty,
		StartDate:  today,
		EndDate:    today.AddDate(0, 0, days),
		Status:     models.StatusActive,
	}

	var aggregates *stock.Aggregates
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		avail, err := stock.AvailableForUpdate(tx, item, s.lock)
		if err != nil {
			return err
		}

		reserved, err := s.activeReservedTx(tx, item)
		if err != nil {
			return err
		}

		remaining := avail - reserved
		if remaining < 0 {
			remaining = 0
		}
		if req.Qty > remaining {
			return &InsufficientAvailabilityError{Remaining: remaining}
		}

		if err := tx.Create(reservation).Error; err != nil {
			return err
		}

		aggregates, err = s.itemAggregatesTx(tx, item)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		err := s.notifier.NotifyReservation(
			reservation.Item,
			reservation.Qty,
			reservation.ReservedBy,
			reservation.EndDate.Format("2006-01-02"),
		)
		if err != nil {
			s.logger.Warn("Reservation notification failed",
				zap.String("item", reservation.Item), zap.Error(err))
		}
	}

	return &ReserveResult{Reservation: reservation, Aggregates: aggregates}, nil
}

// ExpireSweep marks every active reservation whose end date has passed as
// EXPIRED in one statement. It returns the number of rows transitioned and is
// safe to run repeatedly.
func (s *Service) ExpireSweep(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.StockReservation{}).
		Where("status = ? AND end_date < ?", models.StatusActive, models.Today()).
		Update("status", models.StatusExpired)
	return res.RowsAffected, res.Error
}

// Sweep runs both lifecycle passes: expire stale reservations, then release
// the overflow the current stock no longer covers.
func (s *Service) Sweep(ctx context.Context) error {
	if _, err := s.ExpireSweep(ctx); err != nil {
		return err
	}
	_, err := s.allocator.ReleaseOverflow(ctx)
	return err
}

// ItemAggregates returns the reservation-aware view of one item.
func (s *Service) ItemAggregates(ctx context.Context, name string) (*stock.Aggregates, error) {
	return s.itemAggregatesTx(s.db.WithContext(ctx), name)
}

func (s *Service) activeReservedTx(tx *gorm.DB, item string) (float64, error) {
	q := tx.Model(&models.StockReservation{}).
		Where("item = ? AND status = ?", item, models.StatusActive)
	if s.lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var reserved float64
	err := q.Select("COALESCE(SUM(qty), 0)").Scan(&reserved).Error
	return reserved, err
}

func (s *Service) itemAggregatesTx(tx *gorm.DB, name string) (*stock.Aggregates, error) {
	var item stockmodels.StockItem
	err := tx.First(&item, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, stock.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}

	avail, err := stock.AvailableForUpdate(tx, name, false)
	if err != nil {
		return nil, err
	}

	type resAgg struct {
		Reserved   float64
		ReservedBy string
		Until      *time.Time
	}
	var agg resAgg
	err = tx.Model(&models.StockReservation{}).
		Select("COALESCE(SUM(qty), 0) AS reserved, MAX(reserved_by) AS reserved_by, MAX(end_date) AS until").
		Where("item = ? AND status = ?", name, models.StatusActive).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	return buildAggregates(&item, avail, agg.Reserved, agg.ReservedBy, agg.Until), nil
}

// ListAggregates returns the reservation-aware view of every item, optionally
// filtered by category.
func (s *Service) ListAggregates(ctx context.Context, category string) ([]stock.Aggregates, error) {
	items, err := s.store.List(ctx, category)
	if err != nil {
		return nil, err
	}

	type outAgg struct {
		Item   string
		OutQty float64
	}
	var outs []outAgg
	err = s.db.WithContext(ctx).
		Model(&stockmodels.StockMovement{}).
		Select("item, COALESCE(SUM(qty), 0) AS out_qty").
		Where("movement_type = ?", stockmodels.MovementOut).
		Group("item").
		Scan(&outs).Error
	if err != nil {
		return nil, err
	}
	outByItem := make(map[string]float64, len(outs))
	for _, o := range outs {
		outByItem[o.Item] = o.OutQty
	}

	type resAgg struct {
		Item       string
		Reserved   float64
		ReservedBy string
		Until      *time.Time
	}
	var ress []resAgg
	err = s.db.WithContext(ctx).
		Model(&models.StockReservation{}).
		Select("item, COALESCE(SUM(qty), 0) AS reserved, MAX(reserved_by) AS reserved_by, MAX(end_date) AS until").
		Where("status = ?", models.StatusActive).
		Group("item").
		Scan(&ress).Error
	if err != nil {
		return nil, err
	}
	resByItem := make(map[string]resAgg, len(ress))
	for _, r := range ress {
		resByItem[r.Item] = r
	}

	views := make([]stock.Aggregates, 0, len(items))
	for i := range items {
		it := &items[i]
		avail := it.OpeningQty - outByItem[it.Name]
		if avail < 0 {
			avail = 0
		}
		r := resByItem[it.Name]
		views = append(views, *buildAggregates(it, avail, r.Reserved, r.ReservedBy, r.Until))
	}
	return views, nil
}

func buildAggregates(item *stockmodels.StockItem, avail, reserved float64, reservedBy string, until *time.Time) *stock.Aggregates {
	remaining := avail - reserved
	if remaining < 0 {
		remaining = 0
	}
	a := &stock.Aggregates{
		Item:         item.Name,
		Category:     item.Category,
		BaseUnit:     item.BaseUnit,
		TotalQty:     item.OpeningQty,
		ReservedQty:  reserved,
		AvailableQty: remaining,
		ReservedBy:   reservedBy,
	}
	if until != nil && !until.IsZero() {
		a.ReserveUntil = until.Format("2006-01-02")
	}
	return a
}
