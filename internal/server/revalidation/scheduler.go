// Package revalidation periodically re-checks every stored secret against the
// breach corpus and alerts owners whose secrets became more exposed.
package revalidation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/common"
	"github.com/dmitrijs2005/vaultwatch/internal/cryptox"
	"github.com/dmitrijs2005/vaultwatch/internal/logging"
	"github.com/dmitrijs2005/vaultwatch/internal/server/breach"
	"github.com/dmitrijs2005/vaultwatch/internal/server/models"
	"github.com/dmitrijs2005/vaultwatch/internal/server/notify"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds per-cycle concurrency when Options.Workers is unset.
const DefaultWorkers = 4

// Store is the system-level view of the vault the scheduler needs.
type Store interface {
	ListAll(ctx context.Context) ([]*models.Secret, error)
	// RevalidateAndUpdate reports common.ErrorNotFound when the record no
	// longer holds the sealed value with nonce.
	RevalidateAndUpdate(ctx context.Context, id, nonce string, count int64) error
}

// Decrypter opens sealed secrets.
type Decrypter interface {
	Decrypt(s *cryptox.Sealed) (string, error)
}

// Notifier pushes an event to an owner's live sessions.
type Notifier interface {
	Notify(ctx context.Context, owner string, ev notify.Event) int
}

type Options struct {
	Interval time.Duration
	Workers  int
}

// CycleStats summarizes one pass over the vault.
type CycleStats struct {
	Total   int
	Checked int
	Unknown int
	Corrupt int
	Alerts  int
	Stale   int
	Failed  int
}

// Scheduler runs revalidation cycles on its own ticker. At most one cycle
// runs at a time; ticks arriving while a cycle is in flight are skipped.
type Scheduler struct {
	store    Store
	cipher   Decrypter
	oracle   breach.Checker
	notifier Notifier
	logger   logging.Logger
	opts     Options

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(store Store, cipher Decrypter, oracle breach.Checker, notifier Notifier, logger logging.Logger, opts Options) (*Scheduler, error) {
	if opts.Interval <= 0 {
		return nil, errors.New("revalidation interval must be positive")
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Scheduler{
		store:    store,
		cipher:   cipher,
		oracle:   oracle,
		notifier: notifier,
		logger:   logger.With("module", "revalidation"),
		opts:     opts,
	}, nil
}

// Start launches the ticker loop. It returns immediately; the loop ends when
// ctx is cancelled or Stop is called. Starting twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
	s.logger.Info(ctx, "revalidation scheduler started", "interval", s.opts.Interval.String(), "workers", s.opts.Workers)
}

// Stop cancels the loop and waits for it, including any in-flight cycle.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Tick(ctx)
			}()
		}
	}
}

// Tick runs one cycle unless another is in flight. It reports whether a
// cycle ran.
func (s *Scheduler) Tick(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn(ctx, "previous revalidation cycle still running, tick skipped")
		return false
	}
	defer s.running.Store(false)

	s.RunCycle(ctx)
	return true
}

// RunCycle checks every stored record once. Failures on one record are
// logged and counted, never propagated to the others.
func (s *Scheduler) RunCycle(ctx context.Context) CycleStats {
	start := time.Now()
	var stats CycleStats

	records, err := s.store.ListAll(ctx)
	if err != nil {
		s.logger.Error(ctx, "revalidation cycle aborted, cannot list records", "error", err)
		return stats
	}
	stats.Total = len(records)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.opts.Workers)

	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		rec := rec
		g.Go(func() error {
			outcome := s.revalidate(ctx, rec)
			mu.Lock()
			outcome.add(&stats)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info(ctx, "revalidation cycle finished",
		"total", stats.Total,
		"checked", stats.Checked,
		"unknown", stats.Unknown,
		"corrupt", stats.Corrupt,
		"alerts", stats.Alerts,
		"stale", stats.Stale,
		"failed", stats.Failed,
		"elapsed", time.Since(start).String(),
	)
	return stats
}

type outcome int

const (
	outcomeChecked outcome = iota
	outcomeAlerted
	outcomeUnknown
	outcomeCorrupt
	outcomeStale
	outcomeFailed
)

func (o outcome) add(st *CycleStats) {
	switch o {
	case outcomeChecked:
		st.Checked++
	case outcomeAlerted:
		st.Checked++
		st.Alerts++
	case outcomeUnknown:
		st.Unknown++
	case outcomeCorrupt:
		st.Corrupt++
	case outcomeStale:
		st.Stale++
	case outcomeFailed:
		st.Failed++
	}
}

func (s *Scheduler) revalidate(ctx context.Context, rec *models.Secret) outcome {
	sealed, err := rec.Sealed()
	if err != nil {
		s.logger.Error(ctx, "skipping corrupt record", "id", rec.ID, "error", err)
		return outcomeCorrupt
	}
	plaintext, err := s.cipher.Decrypt(sealed)
	if err != nil {
		s.logger.Error(ctx, "skipping record that failed to decrypt", "id", rec.ID, "error", err)
		return outcomeCorrupt
	}

	res := s.oracle.Check(ctx, plaintext)
	if !res.Conclusive() {
		s.logger.Warn(ctx, "breach lookup inconclusive, state kept", "id", rec.ID, "error", res.Err)
		return outcomeUnknown
	}

	if err := s.store.RevalidateAndUpdate(ctx, rec.ID, rec.Nonce, res.Count); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "record changed during the cycle, result discarded", "id", rec.ID)
			return outcomeStale
		}
		s.logger.Error(ctx, "failed to record exposure", "id", rec.ID, "error", err)
		return outcomeFailed
	}

	if res.Count <= rec.ExposureCount {
		return outcomeChecked
	}

	delivered := s.notifier.Notify(ctx, rec.OwnerID, notify.BreachAlert(models.BreachAlert{
		Label:         rec.Label,
		AccountName:   rec.AccountName,
		ExposureCount: res.Count,
		RecordID:      rec.ID,
	}))
	s.logger.Info(ctx, "secret exposure increased", "id", rec.ID, "owner", rec.OwnerID,
		"previous", rec.ExposureCount, "current", res.Count, "sessions", delivered)
	return outcomeAlerted
}
