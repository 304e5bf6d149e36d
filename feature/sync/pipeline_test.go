package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"inventory-manager/core/database"
	reservationmodels "inventory-manager/feature/reservation/models"
	"inventory-manager/feature/reservation/reconcile"
	"inventory-manager/feature/stock"
	stockmodels "inventory-manager/feature/stock/models"
	"inventory-manager/feature/sync/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubExtractor serves canned snapshots, or fails on demand.
type stubExtractor struct {
	items     []gateway.ItemRecord
	movements []gateway.MovementRecord
	err       error
}

func (s *stubExtractor) FetchItems(_ context.Context) ([]gateway.ItemRecord, error) {
	return s.items, s.err
}

func (s *stubExtractor) FetchMovements(_ context.Context) ([]gateway.MovementRecord, error) {
	return s.movements, s.err
}

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
		&reservationmodels.StockReservation{},
	)
	require.NoError(t, err)
	return db
}

func newTestPipeline(db *gorm.DB, extractor Extractor) *Pipeline {
	logg := zap.NewNop()
	allocator := reconcile.New(db, logg, database.SupportsRowLocks(db))
	return NewPipeline(stock.NewStore(db), extractor, allocator, nil, logg)
}

func TestRunOnce_LoadsSnapshots(t *testing.T) {
	db := setupTestDB(t)
	extractor := &stubExtractor{
		items: []gateway.ItemRecord{
			{Name: "WidgetA", Category: "Alpha", BaseUnit: "Nos", OpeningQty: 100},
			{Name: "WidgetB", Category: "Beta", OpeningQty: 50},
			{Name: "", OpeningQty: 5},
		},
		movements: []gateway.MovementRecord{
			{Date: "2026-08-20", VoucherNo: "V-1", Item: "WidgetA", Qty: 30, MovementType: "OUT"},
			{Date: "2026-08-21", VoucherNo: "V-2", Item: "WidgetA", Qty: 10, MovementType: "IN"},
		},
	}
	p := newTestPipeline(db, extractor)

	report, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	assert.True(t, report.OK)
	assert.Equal(t, 2, report.Items)
	assert.Equal(t, 2, report.Movements)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.NewMovements)

	avail, err := stock.NewStore(db).Available(context.Background(), "WidgetA")
	require.NoError(t, err)
	assert.Equal(t, 70.0, avail)
}

func TestRunOnce_ExtractFailureLeavesStoreUntouched(t *testing.T) {
	db := setupTestDB(t)

	// Seed a snapshot through a successful cycle.
	good := &stubExtractor{
		items: []gateway.ItemRecord{{Name: "WidgetA", OpeningQty: 100}},
		movements: []gateway.MovementRecord{
			{Date: "2026-08-20", VoucherNo: "V-1", Item: "WidgetA", Qty: 30, MovementType: "OUT"},
		},
	}
	p := newTestPipeline(db, good)
	_, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	bad := &stubExtractor{err: errors.New("gateway down")}
	p = newTestPipeline(db, bad)
	_, err = p.RunOnce(context.Background())
	require.ErrorIs(t, err, ErrGatewayUnavailable)

	items, movements, err := stock.NewStore(db).Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), items)
	assert.Equal(t, int64(1), movements)
}

func TestRunOnce_EmptySnapshotsSkipLoad(t *testing.T) {
	db := setupTestDB(t)

	good := &stubExtractor{
		items: []gateway.ItemRecord{{Name: "WidgetA", OpeningQty: 100}},
	}
	p := newTestPipeline(db, good)
	_, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	empty := &stubExtractor{}
	p = newTestPipeline(db, empty)
	report, err := p.RunOnce(context.Background())
	require.ErrorIs(t, err, ErrNothingToLoad)
	assert.False(t, report.OK)

	items, _, err := stock.NewStore(db).Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), items)
}

func TestRunOnce_NewOutMovementSettlesReservation(t *testing.T) {
	db := setupTestDB(t)

	first := &stubExtractor{
		items: []gateway.ItemRecord{{Name: "WidgetA", OpeningQty: 100}},
	}
	p := newTestPipeline(db, first)
	_, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	// A claim for exactly the quantity that later ships.
	today := reservationmodels.Today()
	require.NoError(t, db.Create(&reservationmodels.StockReservation{
		Item: "WidgetA", ReservedBy: "alice", Qty: 8,
		StartDate: today, EndDate: today.AddDate(0, 0, 7),
		Status: reservationmodels.StatusActive,
	}).Error)

	second := &stubExtractor{
		items: []gateway.ItemRecord{{Name: "WidgetA", OpeningQty: 100}},
		movements: []gateway.MovementRecord{
			{Date: "2026-08-30", VoucherNo: "V-9", Item: "WidgetA", Qty: 8, MovementType: "OUT"},
		},
	}
	p = newTestPipeline(db, second)
	report, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.NewMovements)
	assert.Equal(t, 1, report.Released)

	var count int64
	require.NoError(t, db.Model(&reservationmodels.StockReservation{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRunOnce_RedeliveredMovementIsNotNew(t *testing.T) {
	db := setupTestDB(t)

	extractor := &stubExtractor{
		items: []gateway.ItemRecord{{Name: "WidgetA", OpeningQty: 100}},
		movements: []gateway.MovementRecord{
			{Date: "2026-08-20", VoucherNo: "V-1", Item: "WidgetA", Qty: 30, MovementType: "OUT"},
		},
	}
	p := newTestPipeline(db, extractor)

	report, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.NewMovements)

	// The identical row on the next cycle fingerprints the same.
	report, err = p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.NewMovements)
}

func TestRunOnce_ReleasesOverflowAfterLoad(t *testing.T) {
	db := setupTestDB(t)

	first := &stubExtractor{
		items: []gateway.ItemRecord{{Name: "WidgetA", OpeningQty: 100}},
	}
	p := newTestPipeline(db, first)
	_, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	today := reservationmodels.Today()
	require.NoError(t, db.Create(&reservationmodels.StockReservation{
		Item: "WidgetA", ReservedBy: "alice", Qty: 90,
		StartDate: today, EndDate: today.AddDate(0, 0, 7),
		Status: reservationmodels.StatusActive,
	}).Error)

	// The fresh snapshot carries far less stock than the claim.
	shrunk := &stubExtractor{
		items: []gateway.ItemRecord{{Name: "WidgetA", OpeningQty: 40}},
	}
	p = newTestPipeline(db, shrunk)
	report, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Cancelled)

	var r reservationmodels.StockReservation
	require.NoError(t, db.First(&r).Error)
	assert.Equal(t, reservationmodels.StatusCancelled, r.Status)
}

func TestFingerprint_Stable(t *testing.T) {
	m := stockmodels.StockMovement{
		Date: "2026-08-20", VoucherNo: "V-1", Company: "Acme",
		Item: "WidgetA", Qty: 30, Rate: 2.5, Amount: 75, MovementType: "OUT",
	}
	assert.Equal(t, fingerprint(m), fingerprint(m))

	changed := m
	changed.Qty = 31
	assert.NotEqual(t, fingerprint(m), fingerprint(changed))
}
