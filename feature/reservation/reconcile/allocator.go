package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-manager/feature/reservation/models"
	"inventory-manager/feature/stock"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConsumeOutcome reports how a movement was matched against the ledger.
type ConsumeOutcome string

const (
	// OutcomeExact deleted an active reservation whose quantity matched the
	// movement exactly.
	OutcomeExact ConsumeOutcome = "exact"
	// OutcomeConsumed deleted the oldest active reservation because the
	// movement covered it entirely.
	OutcomeConsumed ConsumeOutcome = "consumed"
	// OutcomeReduced shrank the oldest active reservation by the movement
	// quantity.
	OutcomeReduced ConsumeOutcome = "fallback_reduce"
	// OutcomeNoop found no active reservation to settle against.
	OutcomeNoop ConsumeOutcome = "noop"
)

// Allocator reconciles the reservation ledger with the inventory snapshot.
// ReleaseOverflow is the bulk strategy: it walks every item and cancels the
// reservations the current stock can no longer cover, oldest first keeping
// what fits. ConsumeMovement is the targeted strategy: it settles one observed
// outbound movement against the ledger, treating the movement as fulfilment
// of an existing claim.
type Allocator interface {
	ReleaseOverflow(ctx context.Context) (cancelled int, err error)
	ConsumeMovement(ctx context.Context, item string, qty float64) (ConsumeOutcome, error)
}

type gormAllocator struct {
	db     *gorm.DB
	logger *zap.Logger
	lock   bool
}

// New creates the database-backed allocator. lock reports whether the dialect
// honors FOR UPDATE; it must match what the admission path uses.
func New(db *gorm.DB, logger *zap.Logger, lock bool) Allocator {
	return &gormAllocator{db: db, logger: logger, lock: lock}
}

// ReleaseOverflow walks every item holding active reservations and cancels
// each reservation whose inclusion would push the reserved total past what
// the snapshot still provides. Reservations are visited oldest first (start
// date, then id), cancelled in full, and stamped with a remark naming the
// date of release. Each item reconciles in its own transaction; a failure on
// one item is logged and does not stop the walk.
func (a *gormAllocator) ReleaseOverflow(ctx context.Context) (int, error) {
	var items []string
	err := a.db.WithContext(ctx).
		Model(&models.StockReservation{}).
		Where("status = ?", models.StatusActive).
		Distinct().
		Pluck("item", &items).Error
	if err != nil {
		return 0, err
	}

	remark := fmt.Sprintf(
		"Automatically cancelled on %s: stock no longer covers this reservation",
		time.Now().UTC().Format("2006-01-02"),
	)

	total := 0
	for _, item := range items {
		cancelled, err := a.releaseItem(ctx, item, remark)
		if err != nil {
			a.logger.Error("Overflow release failed for item",
				zap.String("item", item), zap.Error(err))
			continue
		}
		total += cancelled
	}
	return total, nil
}

func (a *gormAllocator) releaseItem(ctx context.Context, item, remark string) (int, error) {
	cancelled := 0

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		avail, err := stock.AvailableForUpdate(tx, item, a.lock)
		if errors.Is(err, stock.ErrItemNotFound) {
			// Item vanished from the snapshot; nothing covers its claims.
			avail = 0
		} else if err != nil {
			return err
		}

		q := tx.Where("item = ? AND status = ?", item, models.StatusActive).
			Order("start_date ASC, id ASC")
		if a.lock {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var reservations []models.StockReservation
		if err := q.Find(&reservations).Error; err != nil {
			return err
		}

		running := 0.0
		for _, r := range reservations {
			if running+r.Qty > avail {
				err := tx.Model(&models.StockReservation{}).
					Where("id = ?", r.ID).
					Updates(map[string]interface{}{
						"status":  models.StatusCancelled,
						"remarks": remark,
					}).Error
				if err != nil {
					return err
				}
				cancelled++
				continue
			}
			running += r.Qty
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cancelled, nil
}

// ConsumeMovement settles one outbound movement against the item's active
// reservations. An exact quantity match is deleted outright; otherwise the
// oldest active reservation absorbs the movement, shrinking or disappearing.
// With no active reservation the movement is ignored.
func (a *gormAllocator) ConsumeMovement(ctx context.Context, item string, qty float64) (ConsumeOutcome, error) {
	if qty <= 0 {
		return OutcomeNoop, nil
	}

	outcome := OutcomeNoop
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		base := tx.Where("item = ? AND status = ?", item, models.StatusActive)
		if a.lock {
			base = base.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var exact models.StockReservation
		err := base.Session(&gorm.Session{}).
			Where("qty = ?", qty).
			Order("start_date ASC, id ASC").
			First(&exact).Error
		if err == nil {
			outcome = OutcomeExact
			return tx.Delete(&exact).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var oldest models.StockReservation
		err = base.Session(&gorm.Session{}).
			Order("start_date ASC, id ASC").
			First(&oldest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			outcome = OutcomeNoop
			return nil
		}
		if err != nil {
			return err
		}

		remaining := oldest.Qty - qty
		if remaining <= 0 {
			outcome = OutcomeConsumed
			return tx.Delete(&oldest).Error
		}

		outcome = OutcomeReduced
		return tx.Model(&models.StockReservation{}).
			Where("id = ?", oldest.ID).
			Update("qty", remaining).Error
	})
	if err != nil {
		return OutcomeNoop, err
	}
	return outcome, nil
}
