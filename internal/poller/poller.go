package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/earth-module/tem-dashboard/internal/model"
	"github.com/earth-module/tem-dashboard/internal/state"
)

const (
	defaultInterval         = 2 * time.Second
	defaultUpdateCheckDelay = 3 * time.Second
	defaultCycleTimeout     = 10 * time.Second
)

// Fetcher reads the module's endpoints. *temapi.Client implements it.
type Fetcher interface {
	FetchStatus(ctx context.Context) (*model.StatusPayload, error)
	FetchOutputs(ctx context.Context) (*model.OutputsPayload, error)
	FetchWeather(ctx context.Context) (*model.WeatherPayload, error)
	FetchKeys(ctx context.Context) (*model.KeysPayload, error)
	CheckUpdate(ctx context.Context) (model.UpdateInfo, error)
}

type Options struct {
	Interval time.Duration
	// UpdateCheckDelay postpones the quiet startup update check.
	UpdateCheckDelay time.Duration
	// SkipUpdateCheck disables the startup update check.
	SkipUpdateCheck bool
	// CycleTimeout bounds one cycle, including a cycle finishing after
	// cancellation.
	CycleTimeout time.Duration
}

type Stats struct {
	Cycles       uint64        `json:"cycles"`
	SkippedTicks uint64        `json:"skipped_ticks"`
	LastDuration time.Duration `json:"last_duration"`
	LastCycle    time.Time     `json:"last_cycle"`
}

// Poller refreshes the store from the module at a fixed interval.
type Poller struct {
	fetcher Fetcher
	store   *state.Store
	opts    Options
	logger  *slog.Logger

	refreshCh chan struct{}
	busy      atomic.Bool
	inflight  sync.WaitGroup

	statsMu sync.Mutex
	stats   Stats
}

func New(fetcher Fetcher, store *state.Store, opts Options, logger *slog.Logger) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.UpdateCheckDelay <= 0 {
		opts.UpdateCheckDelay = defaultUpdateCheckDelay
	}
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = defaultCycleTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		fetcher:   fetcher,
		store:     store,
		opts:      opts,
		logger:    logger.With("component", "poller"),
		refreshCh: make(chan struct{}, 1),
	}
}

// TriggerRefresh requests an immediate cycle.
func (p *Poller) TriggerRefresh() {
	select {
	case p.refreshCh <- struct{}{}:
	default:
	}
}

func (p *Poller) Stats() Stats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.stats
}

// Run polls until ctx is done. A cycle in flight at cancellation is allowed
// to finish and merge before Run returns.
func (p *Poller) Run(ctx context.Context) {
	p.LoadKeys(ctx)

	if !p.opts.SkipUpdateCheck {
		p.inflight.Add(1)
		go func() {
			defer p.inflight.Done()
			p.checkUpdateAfter(ctx, p.opts.UpdateCheckDelay)
		}()
	}

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	p.tryCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			p.inflight.Wait()
			return
		case <-p.refreshCh:
			p.tryCycle(ctx)
		case <-ticker.C:
			p.tryCycle(ctx)
		}
	}
}

// RunOnce performs a single synchronous cycle, loading keys first.
func (p *Poller) RunOnce(ctx context.Context) state.Snapshot {
	p.LoadKeys(ctx)
	return p.cycle(ctx)
}

// LoadKeys fetches key presence once. Failure leaves the flags unloaded.
func (p *Poller) LoadKeys(ctx context.Context) {
	keys, err := p.fetcher.FetchKeys(ctx)
	if err != nil {
		p.logger.Debug("keys fetch failed", "err", err)
		return
	}
	p.store.Merge(state.Partial{Keys: keys})
}

func (p *Poller) checkUpdateAfter(ctx context.Context, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	info, err := p.fetcher.CheckUpdate(ctx)
	if err != nil {
		p.logger.Debug("update check failed", "err", err)
		return
	}
	p.store.SetUpdate(info)
	if info.Available {
		p.logger.Info("firmware update available", "current", info.CurrentVersion, "latest", info.LatestVersion)
	}
}

func (p *Poller) tryCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !p.busy.CompareAndSwap(false, true) {
		p.statsMu.Lock()
		p.stats.SkippedTicks++
		p.statsMu.Unlock()
		p.logger.Debug("tick skipped; cycle in flight")
		return
	}
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		defer p.busy.Store(false)
		p.cycle(context.WithoutCancel(ctx))
	}()
}

func (p *Poller) cycle(parent context.Context) state.Snapshot {
	ctx, cancel := context.WithTimeout(parent, p.opts.CycleTimeout)
	defer cancel()

	start := time.Now()
	previous := p.store.Snapshot().Connection

	var (
		wg      sync.WaitGroup
		partial state.Partial
		outcome = state.Outcome{Attempted: 3}
		mu      sync.Mutex
	)
	succeed := func() {
		mu.Lock()
		outcome.Succeeded++
		mu.Unlock()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		status, err := p.fetcher.FetchStatus(ctx)
		if err != nil {
			p.logger.Debug("status fetch failed", "err", err)
			return
		}
		partial.Status = status
		succeed()
	}()
	go func() {
		defer wg.Done()
		outputs, err := p.fetcher.FetchOutputs(ctx)
		if err != nil {
			p.logger.Debug("outputs fetch failed", "err", err)
			return
		}
		partial.Outputs = outputs
		succeed()
	}()
	go func() {
		defer wg.Done()
		weather, err := p.fetcher.FetchWeather(ctx)
		if err != nil {
			p.logger.Debug("weather fetch failed", "err", err)
			return
		}
		partial.Weather = weather
		succeed()
	}()
	wg.Wait()

	snap := p.store.ApplyCycle(partial, outcome)
	elapsed := time.Since(start)

	p.statsMu.Lock()
	p.stats.Cycles++
	p.stats.LastDuration = elapsed
	p.stats.LastCycle = start
	p.statsMu.Unlock()

	if snap.Connection != previous {
		p.logger.Info("connection state changed", "from", previous, "to", snap.Connection, "failure_streak", snap.FailureStreak)
	}
	return snap
}
