package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	gosync "sync"
	"time"

	"inventory-manager/feature/reservation/reconcile"
	"inventory-manager/feature/stock"
	stockmodels "inventory-manager/feature/stock/models"
	"inventory-manager/feature/sync/gateway"

	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned when a cycle is requested while another one
// holds the pipeline.
var ErrAlreadyRunning = errors.New("sync cycle already running")

// ErrGatewayUnavailable wraps any extraction failure; the store is guaranteed
// untouched when a cycle fails with it.
var ErrGatewayUnavailable = errors.New("gateway unavailable")

// ErrNothingToLoad is returned when the gateway delivers empty snapshots and
// the load is skipped.
var ErrNothingToLoad = errors.New("nothing to load")

// Extractor fetches both snapshots from the system of record.
type Extractor interface {
	FetchItems(ctx context.Context) ([]gateway.ItemRecord, error)
	FetchMovements(ctx context.Context) ([]gateway.MovementRecord, error)
}

// Report summarizes one sync cycle. OK reports whether a snapshot was loaded.
type Report struct {
	OK              bool          `json:"ok"`
	Items           int           `json:"items"`
	Movements       int           `json:"movements"`
	Skipped         int           `json:"skipped"`
	NewMovements    int           `json:"new_movements"`
	Released        int           `json:"released"`
	Cancelled       int           `json:"cancelled"`
	Errors          int           `json:"errors"`
	ExecutionTime   time.Duration `json:"-"`
	ExecutionTimeMS int64         `json:"execution_time_ms"`
}

// Pipeline runs the extract, replace-load, and reconcile steps of one sync
// cycle. Only one cycle runs at a time; overlapping requests are rejected
// rather than queued.
type Pipeline struct {
	store     *stock.Store
	extractor Extractor
	allocator reconcile.Allocator
	archiver  *Archiver
	logger    *zap.Logger

	mu gosync.Mutex
}

// NewPipeline creates the sync pipeline. archiver may be nil to skip the
// snapshot archive step.
func NewPipeline(store *stock.Store, extractor Extractor, allocator reconcile.Allocator, archiver *Archiver, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		store:     store,
		extractor: extractor,
		allocator: allocator,
		archiver:  archiver,
		logger:    logger,
	}
}

// RunOnce executes one full sync cycle: fetch both snapshots, replace the
// store in one transaction, settle newly observed outbound movements against
// the reservation ledger, then release the overflow. Any extraction failure
// aborts with ErrGatewayUnavailable before the store is touched; empty
// snapshots skip the load and return ErrNothingToLoad alongside the report.
// Returns ErrAlreadyRunning when a cycle is in flight.
func (p *Pipeline) RunOnce(ctx context.Context) (*Report, error) {
	if !p.mu.TryLock() {
		return nil, ErrAlreadyRunning
	}
	defer p.mu.Unlock()

	start := time.Now()
	report := &Report{}

	itemRecords, err := p.extractor.FetchItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: extract items: %w", ErrGatewayUnavailable, err)
	}
	movementRecords, err := p.extractor.FetchMovements(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: extract movements: %w", ErrGatewayUnavailable, err)
	}

	if len(itemRecords) == 0 && len(movementRecords) == 0 {
		p.logger.Warn("Sync cycle skipped: gateway returned empty snapshots")
		report.ExecutionTime = time.Since(start)
		report.ExecutionTimeMS = report.ExecutionTime.Milliseconds()
		return report, ErrNothingToLoad
	}

	items, movements, skipped := convertRecords(itemRecords, movementRecords)
	report.Skipped = skipped

	prior, err := p.store.Replace(ctx, items, movements)
	if err != nil {
		return nil, fmt.Errorf("replace snapshots: %w", err)
	}
	report.OK = true
	report.Items = len(items)
	report.Movements = len(movements)

	for _, m := range movements {
		if m.MovementType != stockmodels.MovementOut {
			continue
		}
		if _, known := prior[m.Fingerprint]; known {
			continue
		}
		report.NewMovements++

		outcome, err := p.allocator.ConsumeMovement(ctx, m.Item, m.Qty)
		if err != nil {
			report.Errors++
			p.logger.Error("Movement consumption failed",
				zap.String("item", m.Item), zap.Float64("qty", m.Qty), zap.Error(err))
			continue
		}
		if outcome != reconcile.OutcomeNoop {
			report.Released++
			p.logger.Info("Movement settled against ledger",
				zap.String("item", m.Item),
				zap.Float64("qty", m.Qty),
				zap.String("outcome", string(outcome)))
		}
	}

	cancelled, err := p.allocator.ReleaseOverflow(ctx)
	if err != nil {
		report.Errors++
		p.logger.Error("Overflow release failed", zap.Error(err))
	}
	report.Cancelled = cancelled

	if p.archiver != nil {
		if err := p.archiver.Archive(ctx, start, items, movements); err != nil {
			p.logger.Warn("Snapshot archive failed", zap.Error(err))
		}
	}

	report.ExecutionTime = time.Since(start)
	report.ExecutionTimeMS = report.ExecutionTime.Milliseconds()
	p.logger.Info("Sync cycle completed",
		zap.Int("items", report.Items),
		zap.Int("movements", report.Movements),
		zap.Int("new_movements", report.NewMovements),
		zap.Int("released", report.Released),
		zap.Int("cancelled", report.Cancelled),
		zap.Duration("duration", report.ExecutionTime))
	return report, nil
}

// convertRecords maps gateway rows onto store models, dropping rows without
// an item name and stamping each movement with its fingerprint.
func convertRecords(itemRecords []gateway.ItemRecord, movementRecords []gateway.MovementRecord) ([]stockmodels.StockItem, []stockmodels.StockMovement, int) {
	skipped := 0

	items := make([]stockmodels.StockItem, 0, len(itemRecords))
	for _, r := range itemRecords {
		if strings.TrimSpace(r.Name) == "" {
			skipped++
			continue
		}
		items = append(items, stockmodels.StockItem{
			Name:        r.Name,
			Category:    r.Category,
			BaseUnit:    r.BaseUnit,
			OpeningQty:  r.OpeningQty,
			OpeningRate: r.OpeningRate,
		})
	}

	movements := make([]stockmodels.StockMovement, 0, len(movementRecords))
	for _, r := range movementRecords {
		if strings.TrimSpace(r.Item) == "" {
			skipped++
			continue
		}
		m := stockmodels.StockMovement{
			Date:         r.Date,
			VoucherNo:    r.VoucherNo,
			Company:      r.Company,
			Item:         r.Item,
			Qty:          r.Qty,
			Rate:         r.Rate,
			Amount:       r.Amount,
			MovementType: strings.ToUpper(r.MovementType),
		}
		m.Fingerprint = fingerprint(m)
		movements = append(movements, m)
	}

	return items, movements, skipped
}

// fingerprint identifies a movement across snapshot replacements by hashing
// its payload fields. Identical rows hash identically on every cycle.
func fingerprint(m stockmodels.StockMovement) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%g|%g|%g|%s",
		m.Date, m.VoucherNo, m.Company, m.Item, m.Qty, m.Rate, m.Amount, m.MovementType)
	return hex.EncodeToString(h.Sum(nil))
}
