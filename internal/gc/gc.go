// Package gc implements background cleanup of unreferenced blobs: a
// ticker-driven loop with Start/Stop over a done channel, slog logging
// scoped with .With("domain", ...), sweeping BlobsUnreferenced and
// calling RemoveBlob on each.
package gc

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/io7m-com/sunburst/internal/identity"
	"github.com/io7m-com/sunburst/internal/inventory"
)

// Config holds tunables for the sweep.
type Config struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Sweeper periodically removes blobs no package references.
type Sweeper struct {
	inv *inventory.Inventory
	cfg Config

	ticker *time.Ticker
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// New constructs but does not start a Sweeper over inv.
func New(inv *inventory.Inventory, cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Sweeper{
		inv:    inv,
		cfg:    cfg,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the sweep loop in a new goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.cfg.Interval)
	go s.loop(ctx)
}

// Stop signals the loop to exit and waits for it to finish.
func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.stopCh) })
	<-s.doneCh
}

func (s *Sweeper) loop(ctx context.Context) {
	log := s.cfg.Logger.With("domain", "gc")
	defer func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.doneCh)
	}()
	for {
		select {
		case <-ctx.Done():
			log.Info("gc stop", "reason", "context_cancel")
			return
		case <-s.stopCh:
			log.Info("gc stop", "reason", "stop_signal")
			return
		case <-s.ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle removes every blob currently unreferenced by any package,
// one transaction per blob so a failure partway through still commits
// the blobs already removed.
func (s *Sweeper) runCycle(ctx context.Context) {
	_, _ = s.RunOnce(ctx)
}

// Result reports what a single sweep cycle did.
type Result struct {
	Scanned int
	Removed int
}

// RunOnce performs a single sweep cycle synchronously and returns how
// many unreferenced blobs it found and removed. This is what the CLI's
// "gc run" command calls directly, since a one-shot invocation has no
// need for the ticker loop Start/Stop manage.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()
	log := s.cfg.Logger.With("domain", "gc", "action", "cycle")

	tx, err := s.inv.BeginReadOnly(ctx)
	if err != nil {
		log.Error("begin scan transaction", "error", err)
		return Result{}, err
	}
	unreferenced, err := tx.BlobsUnreferenced(ctx)
	_ = tx.Close()
	if err != nil {
		log.Error("scan unreferenced blobs", "error", err)
		return Result{}, err
	}

	removed := 0
	for _, row := range unreferenced {
		if err := s.removeOne(ctx, row.Blob.Hash); err != nil {
			log.Error("remove blob", "hash", row.Blob.Hash.String(), "error", err)
			continue
		}
		removed++
	}
	log.Info("cycle complete", "scanned", len(unreferenced), "removed", removed, "ms", time.Since(start).Milliseconds())
	return Result{Scanned: len(unreferenced), Removed: removed}, nil
}

func (s *Sweeper) removeOne(ctx context.Context, hash identity.Hash) error {
	tx, err := s.inv.BeginReadWrite(ctx)
	if err != nil {
		return err
	}
	defer tx.Close()
	if err := tx.RemoveBlob(ctx, hash); err != nil {
		return err
	}
	return tx.Commit()
}
