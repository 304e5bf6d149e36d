package stock

import (
	"context"
	"errors"

	"inventory-manager/feature/stock/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrItemNotFound is returned when the named item is absent from the store.
var ErrItemNotFound = errors.New("item not found")

// Store reads and replaces the authoritative inventory snapshot.
type Store struct {
	db *gorm.DB
}

// NewStore creates an inventory store over the given database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the item master row for a name.
func (s *Store) Get(ctx context.Context, name string) (*models.StockItem, error) {
	var item models.StockItem
	err := s.db.WithContext(ctx).First(&item, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns item master rows, optionally filtered by category (brand).
func (s *Store) List(ctx context.Context, category string) ([]models.StockItem, error) {
	q := s.db.WithContext(ctx).Model(&models.StockItem{}).Order("name")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var items []models.StockItem
	err := q.Find(&items).Error
	return items, err
}

// Available computes the reservable quantity for an item from the live
// snapshot: opening quantity minus the sum of OUT movements, clamped at zero.
// It reads the current store on every call; nothing is cached across calls.
func (s *Store) Available(ctx context.Context, name string) (float64, error) {
	return availableTx(s.db.WithContext(ctx), name, false)
}

// AvailableForUpdate is the locked variant used inside admission transactions.
// It must run inside tx with the item row and OUT-movement range locked until
// commit; lock reports whether the dialect honors FOR UPDATE.
func AvailableForUpdate(tx *gorm.DB, name string, lock bool) (float64, error) {
	return availableTx(tx, name, lock)
}

func availableTx(tx *gorm.DB, name string, lock bool) (float64, error) {
	itemQ := tx.Model(&models.StockItem{}).Where("name = ?", name)
	if lock {
		itemQ = itemQ.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var item models.StockItem
	err := itemQ.First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrItemNotFound
	}
	if err != nil {
		return 0, err
	}

	outQ := tx.Model(&models.StockMovement{}).
		Where("item = ? AND movement_type = ?", name, models.MovementOut)
	if lock {
		outQ = outQ.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var outTotal float64
	if err := outQ.Select("COALESCE(SUM(qty), 0)").Scan(&outTotal).Error; err != nil {
		return 0, err
	}

	avail := item.OpeningQty - outTotal
	if avail < 0 {
		avail = 0
	}
	return avail, nil
}

// Replace swaps both snapshots inside one transaction and returns the
// fingerprints of the previous movement snapshot, so the caller can detect
// newly observed movements. Items are deduplicated by name before insert.
func (s *Store) Replace(ctx context.Context, items []models.StockItem, movements []models.StockMovement) (map[string]struct{}, error) {
	prior := make(map[string]struct{})

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fingerprints []string
		if err := tx.Model(&models.StockMovement{}).Pluck("fingerprint", &fingerprints).Error; err != nil {
			return err
		}
		for _, fp := range fingerprints {
			prior[fp] = struct{}{}
		}

		if err := tx.Where("1 = 1").Delete(&models.StockItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.StockMovement{}).Error; err != nil {
			return err
		}

		seen := make(map[string]struct{}, len(items))
		deduped := make([]models.StockItem, 0, len(items))
		for _, it := range items {
			if _, dup := seen[it.Name]; dup {
				continue
			}
			seen[it.Name] = struct{}{}
			deduped = append(deduped, it)
		}

		if len(deduped) > 0 {
			if err := tx.CreateInBatches(deduped, 500).Error; err != nil {
				return err
			}
		}
		if len(movements) > 0 {
			if err := tx.CreateInBatches(movements, 500).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prior, nil
}

// Counts returns the current snapshot row counts.
func (s *Store) Counts(ctx context.Context) (items int64, movements int64, err error) {
	if err = s.db.WithContext(ctx).Model(&models.StockItem{}).Count(&items).Error; err != nil {
		return
	}
	err = s.db.WithContext(ctx).Model(&models.StockMovement{}).Count(&movements).Error
	return
}
