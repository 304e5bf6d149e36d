package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inventory-manager/core/storage"
	stockmodels "inventory-manager/feature/stock/models"

	"github.com/minio/minio-go/v7"
)

// Archiver writes each loaded snapshot to object storage, one JSON object per
// table, keyed by the cycle start time. The archive is an audit trail; sync
// never reads it back.
type Archiver struct {
	client storage.Client
	bucket string
}

// NewArchiver creates a snapshot archiver over the given storage client.
func NewArchiver(client storage.Client, bucket string) *Archiver {
	return &Archiver{client: client, bucket: bucket}
}

// Archive uploads both snapshots under snapshots/<timestamp>/.
func (a *Archiver) Archive(ctx context.Context, runStart time.Time, items []stockmodels.StockItem, movements []stockmodels.StockMovement) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("archive bucket check: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("archive bucket create: %w", err)
		}
	}

	prefix := "snapshots/" + runStart.UTC().Format("2006-01-02T15-04-05Z")
	if err := a.put(ctx, prefix+"/stock_items.json", items); err != nil {
		return err
	}
	return a.put(ctx, prefix+"/stock_movements.json", movements)
}

func (a *Archiver) put(ctx context.Context, name string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("archive encode %s: %w", name, err)
	}
	_, err = a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("archive upload %s: %w", name, err)
	}
	return nil
}
