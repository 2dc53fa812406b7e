package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"taxis/internal/log"
	"taxis/internal/observability/metrics"
	"taxis/internal/trips"
)

// ReloadProcessorConfig holds configuration for the reload processor
type ReloadProcessorConfig struct {
	// Path is the CSV file backing the snapshot.
	Path string

	// PollInterval is how often the file's modification time is checked.
	// Zero disables polling; Reload can still be called directly.
	PollInterval time.Duration
}

// ReloadProcessor owns loading of the trip snapshot: the initial load,
// explicit reloads and, when enabled, reloads triggered by file changes.
type ReloadProcessor struct {
	loader trips.Loader
	config ReloadProcessorConfig
	logger *log.Logger

	loadMu   sync.Mutex // serialises loads
	stateMu  sync.RWMutex
	modTime  time.Time
	loadedAt time.Time
	records  int
	hooks    []func()

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReloadProcessor(loader trips.Loader, config ReloadProcessorConfig) *ReloadProcessor {
	return &ReloadProcessor{
		loader: loader,
		config: config,
		logger: log.Wrap(slog.Default(), log.ComponentReload),
	}
}

// OnReload registers fn to run after every successful load.
func (p *ReloadProcessor) OnReload(fn func()) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	p.hooks = append(p.hooks, fn)
}

// Reload loads the configured file, replacing the snapshot on success.
// A failed load keeps the previous snapshot.
func (p *ReloadProcessor) Reload(ctx context.Context) error {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	var modTime time.Time
	if info, err := os.Stat(p.config.Path); err == nil {
		modTime = info.ModTime()
	}

	err := p.loader.Load(ctx, p.config.Path)
	records := 0
	if err == nil {
		records = p.countRecords(ctx)
	}
	metrics.ObserveLoad(records, err)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to load trip data",
			log.FieldOperation, log.OpLoad, log.FieldFile, p.config.Path, log.FieldError, err)
		return fmt.Errorf("load %s: %w", p.config.Path, err)
	}

	p.stateMu.Lock()
	p.modTime = modTime
	p.loadedAt = time.Now()
	p.records = records
	hooks := append([]func(){}, p.hooks...)
	p.stateMu.Unlock()

	for _, fn := range hooks {
		fn()
	}

	p.logger.InfoContext(ctx, "Trip data loaded", log.FieldFile, p.config.Path, log.FieldRecords, records)
	return nil
}

// MarkLoaded records a snapshot that is already in the store, loaded at
// and holding records, as the latest successful load. Reload hooks do
// not run. The file's current modification time, if any, is remembered
// so polling only reloads on a later change.
func (p *ReloadProcessor) MarkLoaded(at time.Time, records int) {
	var modTime time.Time
	if info, err := os.Stat(p.config.Path); err == nil {
		modTime = info.ModTime()
	}
	if at.IsZero() {
		at = time.Now()
	}

	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	p.modTime = modTime
	p.loadedAt = at
	p.records = records
}

func (p *ReloadProcessor) countRecords(ctx context.Context) int {
	r, ok := p.loader.(trips.Reader)
	if !ok {
		return 0
	}
	all, err := r.AllRecords(ctx)
	if err != nil {
		return 0
	}
	return len(all)
}

// Loaded reports whether at least one load succeeded.
func (p *ReloadProcessor) Loaded() bool {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return !p.loadedAt.IsZero()
}

// LastLoad returns the time and record count of the latest successful load.
func (p *ReloadProcessor) LastLoad() (time.Time, int) {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.loadedAt, p.records
}

// Start begins polling the file. Returns an error if already running or
// when polling is disabled.
func (p *ReloadProcessor) Start(ctx context.Context) error {
	if p.config.PollInterval <= 0 {
		return fmt.Errorf("reload polling is disabled")
	}
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("reload processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Reload processor started",
		log.FieldFile, p.config.Path,
		"poll_interval", p.config.PollInterval)
	return nil
}

// Stop stops polling and waits for the loop to exit.
func (p *ReloadProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		p.logger.InfoContext(ctx, "Reload processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Reload processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// IsRunning returns whether the processor is currently polling
func (p *ReloadProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ReloadProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.checkOnce(ctx)
		}
	}
}

// checkOnce reloads when the file's modification time differs from the
// one seen at the last successful load.
func (p *ReloadProcessor) checkOnce(ctx context.Context) bool {
	info, err := os.Stat(p.config.Path)
	if err != nil {
		p.logger.WarnContext(ctx, "Cannot stat data file", log.FieldFile, p.config.Path, log.FieldError, err)
		return false
	}

	p.stateMu.RLock()
	seen := p.modTime
	p.stateMu.RUnlock()
	if info.ModTime().Equal(seen) {
		return false
	}

	p.logger.InfoContext(ctx, "Data file changed, reloading", log.FieldFile, p.config.Path, "mod_time", info.ModTime())
	return p.Reload(ctx) == nil
}
