package reservation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"inventory-manager/core/credentials"
	"inventory-manager/core/database"
	"inventory-manager/feature/reservation/models"
	stockmodels "inventory-manager/feature/stock/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// setupTestDB opens an isolated in-memory database and migrates the schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&stockmodels.StockItem{},
		&stockmodels.StockMovement{},
		&models.StockReservation{},
		&credentials.Credential{},
	)
	require.NoError(t, err)
	return db
}

func newTestService(db *gorm.DB) *Service {
	return NewService(db, zap.NewNop(), nil, nil, database.SupportsRowLocks(db))
}

func seedItem(t *testing.T, db *gorm.DB, name string, opening float64, out float64) {
	t.Helper()
	require.NoError(t, db.Create(&stockmodels.StockItem{
		Name:       name,
		Category:   "TestBrand",
		BaseUnit:   "Nos",
		OpeningQty: opening,
	}).Error)
	if out > 0 {
		require.NoError(t, db.Create(&stockmodels.StockMovement{
			Date:         "2026-08-01",
			VoucherNo:    "V-1",
			Item:         name,
			Qty:          out,
			MovementType: stockmodels.MovementOut,
			Fingerprint:  "seed-" + name,
		}).Error)
	}
}

func TestReserve_AdmitsWithinAvailability(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	seedItem(t, db, "WidgetA", 100, 30)

	result, err := svc.Reserve(context.Background(), ReserveRequest{
		Item:       "WidgetA",
		Qty:        70,
		ReservedBy: "alice",
		Days:       5,
	})
	require.NoError(t, err)

	assert.Equal(t, "WidgetA", result.Reservation.Item)
	assert.Equal(t, 70.0, result.Reservation.Qty)
	assert.Equal(t, models.StatusActive, result.Reservation.Status)

	expectedEnd := models.Today().AddDate(0, 0, 5)
	assert.Equal(t, expectedEnd, result.Reservation.EndDate)

	// 100 opening minus 30 moved out leaves 70; the reservation takes it all.
	assert.Equal(t, 100.0, result.Aggregates.TotalQty)
	assert.Equal(t, 70.0, result.Aggregates.ReservedQty)
	assert.Equal(t, 0.0, result.Aggregates.AvailableQty)
	assert.Equal(t, "alice", result.Aggregates.ReservedBy)
	assert.Equal(t, expectedEnd.Format("2006-01-02"), result.Aggregates.ReserveUntil)
}

func TestReserve_RejectsOversubscription(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	seedItem(t, db, "WidgetA", 100, 30)

	_, err := svc.Reserve(context.Background(), ReserveRequest{
		Item: "WidgetA", Qty: 70, ReservedBy: "alice",
	})
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), ReserveRequest{
		Item: "WidgetA", Qty: 1, ReservedBy: "bob",
	})
	var insufficient *InsufficientAvailabilityError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 0.0, insufficient.Remaining)
	assert.Contains(t, err.Error(), "only 0 units available")

	var count int64
	require.NoError(t, db.Model(&models.StockReservation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReserve_Validation(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	seedItem(t, db, "WidgetA", 10, 0)

	_, err := svc.Reserve(context.Background(), ReserveRequest{Item: "WidgetA", Qty: 0, ReservedBy: "alice"})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Reserve(context.Background(), ReserveRequest{Item: "WidgetA", Qty: -3, ReservedBy: "alice"})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Reserve(context.Background(), ReserveRequest{Item: "WidgetA", Qty: 1, ReservedBy: "alice", Days: -1})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Reserve(context.Background(), ReserveRequest{Item: "", Qty: 1, ReservedBy: "alice"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Reserve(context.Background(), ReserveRequest{Item: "WidgetA", Qty: 1, ReservedBy: "  "})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestReserve_UnknownItem(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	_, err := svc.Reserve(context.Background(), ReserveRequest{
		Item: "Ghost", Qty: 1, ReservedBy: "alice",
	})
	assert.Error(t, err)
}

func TestReserve_DefaultWindow(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	seedItem(t, db, "WidgetA", 10, 0)

	result, err := svc.Reserve(context.Background(), ReserveRequest{
		Item: "WidgetA", Qty: 1, ReservedBy: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, models.Today().AddDate(0, 0, DefaultDays), result.Reservation.EndDate)
}

func TestReserve_ChecksHolderCredential(t *testing.T) {
	db := setupTestDB(t)
	repo := credentials.NewRepository(db, bcrypt.MinCost)
	require.NoError(t, repo.Upsert(context.Background(), "alice", "secret", "sales"))

	svc := NewService(db, zap.NewNop(), repo, nil, database.SupportsRowLocks(db))
	seedItem(t, db, "WidgetA", 10, 0)

	_, err := svc.Reserve(context.Background(), ReserveRequest{
		Item: "WidgetA", Qty: 1, ReservedBy: "mallory",
	})
	assert.ErrorIs(t, err, ErrUnknownHolder)

	_, err = svc.Reserve(context.Background(), ReserveRequest{
		Item: "WidgetA", Qty: 1, ReservedBy: "alice",
	})
	assert.NoError(t, err)
}

func TestReserve_ConcurrentAdmitsExactlyOne(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	seedItem(t, db, "WidgetA", 10, 0)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Reserve(context.Background(), ReserveRequest{
				Item: "WidgetA", Qty: 10, ReservedBy: fmt.Sprintf("racer-%d", i),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			var insufficient *InsufficientAvailabilityError
			require.ErrorAs(t, err, &insufficient)
		}
	}
	assert.Equal(t, 1, succeeded)

	var reserved float64
	require.NoError(t, db.Model(&models.StockReservation{}).
		Where("status = ?", models.StatusActive).
		Select("COALESCE(SUM(qty), 0)").Scan(&reserved).Error)
	assert.Equal(t, 10.0, reserved)
}

func TestExpireSweep(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	seedItem(t, db, "WidgetA", 100, 0)

	today := models.Today()
	stale := models.StockReservation{
		Item: "WidgetA", ReservedBy: "alice", Qty: 5,
		StartDate: today.AddDate(0, 0, -10),
		EndDate:   today.AddDate(0, 0, -1),
		Status:    models.StatusActive,
	}
	fresh := models.StockReservation{
		Item: "WidgetA", ReservedBy: "bob", Qty: 5,
		StartDate: today,
		EndDate:   today.AddDate(0, 0, 3),
		Status:    models.StatusActive,
	}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&fresh).Error)

	n, err := svc.ExpireSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// Running again changes nothing.
	n, err = svc.ExpireSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	var got models.StockReservation
	require.NoError(t, db.First(&got, stale.ID).Error)
	assert.Equal(t, models.StatusExpired, got.Status)
	require.NoError(t, db.First(&got, fresh.ID).Error)
	assert.Equal(t, models.StatusActive, got.Status)
}

func TestExpiredReservationFreesCapacity(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	seedItem(t, db, "WidgetA", 10, 0)

	today := models.Today()
	require.NoError(t, db.Create(&models.StockReservation{
		Item: "WidgetA", ReservedBy: "alice", Qty: 10,
		StartDate: today.AddDate(0, 0, -5),
		EndDate:   today.AddDate(0, 0, -1),
		Status:    models.StatusActive,
	}).Error)

	// The stale claim is aged out during admission, so the full quantity
	// admits.
	_, err := svc.Reserve(context.Background(), ReserveRequest{
		Item: "WidgetA", Qty: 10, ReservedBy: "bob",
	})
	assert.NoError(t, err)
}

func TestItemAggregates_NoReservations(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	seedItem(t, db, "WidgetA", 100, 30)

	agg, err := svc.ItemAggregates(context.Background(), "WidgetA")
	require.NoError(t, err)
	assert.Equal(t, 100.0, agg.TotalQty)
	assert.Equal(t, 0.0, agg.ReservedQty)
	assert.Equal(t, 70.0, agg.AvailableQty)
	assert.Empty(t, agg.ReservedBy)
	assert.Empty(t, agg.ReserveUntil)
}

func TestListAggregates_FiltersByCategory(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	require.NoError(t, db.Create(&stockmodels.StockItem{
		Name: "WidgetA", Category: "Alpha", OpeningQty: 10,
	}).Error)
	require.NoError(t, db.Create(&stockmodels.StockItem{
		Name: "WidgetB", Category: "Beta", OpeningQty: 20,
	}).Error)

	_, err := svc.Reserve(context.Background(), ReserveRequest{
		Item: "WidgetB", Qty: 5, ReservedBy: "alice",
	})
	require.NoError(t, err)

	all, err := svc.ListAggregates(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	beta, err := svc.ListAggregates(context.Background(), "Beta")
	require.NoError(t, err)
	require.Len(t, beta, 1)
	assert.Equal(t, "WidgetB", beta[0].Item)
	assert.Equal(t, 5.0, beta[0].ReservedQty)
	assert.Equal(t, 15.0, beta[0].AvailableQty)
}

func TestSweepIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	seedItem(t, db, "WidgetA", 10, 0)

	_, err := svc.Reserve(context.Background(), ReserveRequest{
		Item: "WidgetA", Qty: 10, ReservedBy: "alice",
	})
	require.NoError(t, err)

	// Stock shrinks underneath the ledger.
	require.NoError(t, db.Create(&stockmodels.StockMovement{
		Item: "WidgetA", Qty: 4, MovementType: stockmodels.MovementOut,
		Fingerprint: "late-out",
	}).Error)

	require.NoError(t, svc.Sweep(context.Background()))

	var first []models.StockReservation
	require.NoError(t, db.Order("id").Find(&first).Error)

	require.NoError(t, svc.Sweep(context.Background()))

	var second []models.StockReservation
	require.NoError(t, db.Order("id").Find(&second).Error)
	assert.Equal(t, first, second)

	require.Len(t, second, 1)
	assert.Equal(t, models.StatusCancelled, second[0].Status)
}

// Sanity check on the date helper used across the ledger.
func TestToday(t *testing.T) {
	today := models.Today()
	assert.Equal(t, time.UTC, today.Location())
	assert.Zero(t, today.Hour())
	assert.Zero(t, today.Minute())
}
