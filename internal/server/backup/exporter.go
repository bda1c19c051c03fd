// Package backup exports the sealed vault to object storage. Only
// ciphertext leaves the process; the record key never does.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/vaultwatch/internal/logging"
	"github.com/dmitrijs2005/vaultwatch/internal/server/models"
	"github.com/google/uuid"
)

// Uploader is the part of *s3.Client the exporter uses.
type Uploader interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Source lists every stored record in sealed form.
type Source interface {
	ListAll(ctx context.Context) ([]*models.Secret, error)
}

type record struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"owner_id"`
	Label         string     `json:"label"`
	AccountName   string     `json:"account_name"`
	Nonce         string     `json:"nonce"`
	Ciphertext    string     `json:"ciphertext"`
	Tag           string     `json:"tag"`
	ExposureCount int64      `json:"exposure_count"`
	ExposureState string     `json:"exposure_state"`
	LastChecked   *time.Time `json:"last_checked,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type snapshot struct {
	TakenAt time.Time `json:"taken_at"`
	Records []record  `json:"records"`
}

type Exporter struct {
	source   Source
	uploader Uploader
	bucket   string
	interval time.Duration
	logger   logging.Logger
	now      func() time.Time
	newID    func() string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(source Source, uploader Uploader, bucket string, interval time.Duration, logger logging.Logger) (*Exporter, error) {
	if interval <= 0 {
		return nil, errors.New("backup interval must be positive")
	}
	if bucket == "" {
		return nil, errors.New("backup bucket is required")
	}
	return &Exporter{
		source:   source,
		uploader: uploader,
		bucket:   bucket,
		interval: interval,
		logger:   logger.With("module", "backup"),
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// ObjectKey is backups/YYYY/MM/DD/{id}.json in UTC.
func ObjectKey(t time.Time, id string) string {
	t = t.UTC()
	return fmt.Sprintf("backups/%04d/%02d/%02d/%s.json", t.Year(), t.Month(), t.Day(), id)
}

// Export uploads one snapshot and returns its object key.
func (e *Exporter) Export(ctx context.Context) (string, error) {
	items, err := e.source.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("list records: %w", err)
	}

	now := e.now()
	snap := snapshot{TakenAt: now.UTC(), Records: make([]record, 0, len(items))}
	for _, s := range items {
		snap.Records = append(snap.Records, record{
			ID:            s.ID,
			OwnerID:       s.OwnerID,
			Label:         s.Label,
			AccountName:   s.AccountName,
			Nonce:         s.Nonce,
			Ciphertext:    s.Ciphertext,
			Tag:           s.Tag,
			ExposureCount: s.ExposureCount,
			ExposureState: string(s.ExposureState),
			LastChecked:   s.LastChecked,
			CreatedAt:     s.CreatedAt,
			UpdatedAt:     s.UpdatedAt,
		})
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := ObjectKey(now, e.newID())
	_, err = e.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(e.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	e.logger.Info(ctx, "backup uploaded", "bucket", e.bucket, "key", key, "records", len(snap.Records))
	return key, nil
}

// Start runs Export on every tick until ctx is cancelled or Stop is called.
// Exports run on the loop goroutine, so they never overlap.
func (e *Exporter) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})

	go e.loop(ctx, e.done)
	e.logger.Info(ctx, "backup exporter started", "interval", e.interval.String(), "bucket", e.bucket)
}

func (e *Exporter) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (e *Exporter) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.Export(ctx); err != nil {
				e.logger.Error(ctx, "backup failed", "error", err)
			}
		}
	}
}
