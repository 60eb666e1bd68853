package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/earth-module/tem-dashboard/internal/state"
)

const (
	defaultSampleInterval = time.Minute
	defaultRetention      = 7 * 24 * time.Hour
	pruneInterval         = time.Hour
)

// Source is satisfied by *state.Store.
type Source interface {
	Subscribe() (<-chan state.Snapshot, func())
}

type RecorderOptions struct {
	SampleInterval time.Duration
	Retention      time.Duration
}

// Recorder writes store snapshots to the repository: readings at most once
// per sample interval and every connection change as an event.
type Recorder struct {
	repo   *Repository
	source Source
	opts   RecorderOptions
	logger *slog.Logger
	now    func() time.Time

	lastSample     time.Time
	lastConnection state.Connection
	lastPrune      time.Time
}

func NewRecorder(repo *Repository, source Source, opts RecorderOptions, logger *slog.Logger) *Recorder {
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = defaultSampleInterval
	}
	if opts.Retention <= 0 {
		opts.Retention = defaultRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		repo:   repo,
		source: source,
		opts:   opts,
		logger: logger.With("component", "recorder"),
		now:    time.Now,
	}
}

// Run consumes snapshots until ctx is done.
func (r *Recorder) Run(ctx context.Context) {
	updates, cancel := r.source.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := r.Observe(ctx, snap); err != nil {
				r.logger.Warn("history write failed", "err", err)
			}
		}
	}
}

// Observe records snap if it is due.
func (r *Recorder) Observe(ctx context.Context, snap state.Snapshot) error {
	now := r.now()
	if snap.Connection != r.lastConnection {
		if r.lastConnection != "" {
			detail := fmt.Sprintf("%s -> %s", r.lastConnection, snap.Connection)
			if err := r.repo.InsertEvent(ctx, Event{RecordedAt: now, Kind: "connection", Detail: detail}); err != nil {
				return err
			}
		}
		r.lastConnection = snap.Connection
	}

	if snap.LastUpdate.IsZero() || now.Sub(r.lastSample) < r.opts.SampleInterval {
		return nil
	}
	if err := r.repo.InsertSamples(ctx, snap.LastUpdate, snap.Env, snap.Outputs); err != nil {
		return err
	}
	r.lastSample = now

	if now.Sub(r.lastPrune) >= pruneInterval {
		removed, err := r.repo.Prune(ctx, now.Add(-r.opts.Retention))
		if err != nil {
			return err
		}
		r.lastPrune = now
		if removed > 0 {
			r.logger.Debug("history pruned", "rows", removed)
		}
	}
	return nil
}
