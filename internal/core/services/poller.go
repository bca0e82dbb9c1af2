package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driven"
	"github.com/custodia-labs/casetrack/internal/core/ports/driving"
	"github.com/custodia-labs/casetrack/internal/logger"
)

// Ensure Poller implements the interface.
var _ driving.Poller = (*Poller)(nil)

// Poller drives the engine on a fixed cadence: liveness check, then
// either first-time initialisation (scan + hydrate + token setup) or
// one incremental poll with change application. The stop signal is
// checked between discrete steps; in-flight remote calls complete
// rather than being aborted mid-mutation.
type Poller struct {
	remote     driven.RemoteStore
	scanner    driving.Scanner
	hydrator   *Hydrator
	syncer     *Synchronizer
	classifier *Classifier
	items      driven.ItemStore
	tokens     driven.TokenStore
	cache      driven.EvidenceCache
	settings   domain.Settings

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// stateMu guards the tracking state below.
	stateMu      sync.Mutex
	initialized  bool
	activeCycle  string
	cycleRootIDs map[string]string
	progress     driving.ProgressFunc
}

// NewPoller wires the polling loop over the engine's parts.
func NewPoller(
	remote driven.RemoteStore,
	scanner driving.Scanner,
	hydrator *Hydrator,
	syncer *Synchronizer,
	classifier *Classifier,
	items driven.ItemStore,
	tokens driven.TokenStore,
	cache driven.EvidenceCache,
	settings domain.Settings,
) *Poller {
	return &Poller{
		remote:       remote,
		scanner:      scanner,
		hydrator:     hydrator,
		syncer:       syncer,
		classifier:   classifier,
		items:        items,
		tokens:       tokens,
		cache:        cache,
		settings:     settings.Normalized(),
		cycleRootIDs: make(map[string]string),
	}
}

// SetProgress installs the progress callback used by scans the loop
// itself triggers (initial population and fatal resets).
func (p *Poller) SetProgress(progress driving.ProgressFunc) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	p.progress = progress
}

// Start runs the polling loop. Blocks until the context is cancelled
// or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil // Already running.
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.mu.Unlock()

	p.wg.Add(1)
	defer p.wg.Done()

	// First pass immediately, then on the tick.
	p.runCycle(ctx)

	ticker := time.NewTicker(p.settings.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

// Stop cooperatively stops the loop and waits for the in-flight step.
func (p *Poller) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// runCycle performs one scheduled pass.
func (p *Poller) runCycle(ctx context.Context) {
	if err := p.remote.Validate(ctx); err != nil {
		logger.Warn("Poll: liveness check failed, skipping pass: %v", err)
		return
	}

	p.stateMu.Lock()
	initialized := p.initialized
	progress := p.progress
	p.stateMu.Unlock()

	if !initialized {
		if _, err := p.Initialize(ctx, progress); err != nil {
			logger.Warn("Poll: initialisation failed: %v", err)
		}
		return
	}

	if err := p.pollOnce(ctx); err != nil {
		logger.Warn("Poll: pass failed: %v", err)
	}
}

// Initialize rebuilds the inventory from scratch: full scan, metric
// hydration, model replacement and per-root change token setup. It
// returns the fresh snapshot.
func (p *Poller) Initialize(ctx context.Context, progress driving.ProgressFunc) ([]domain.WorkItem, error) {
	items, err := p.scanner.Scan(ctx, progress)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	p.hydrator.Hydrate(ctx, items)

	if err := p.items.ReplaceAll(ctx, items); err != nil {
		return nil, fmt.Errorf("replace model: %w", err)
	}

	activeCycle := p.resolveActiveCycle(items)
	cycleRootIDs, err := p.initTokens(ctx, activeCycle)
	if err != nil {
		return nil, err
	}

	p.stateMu.Lock()
	p.initialized = true
	p.activeCycle = activeCycle
	p.cycleRootIDs = cycleRootIDs
	p.stateMu.Unlock()

	logger.Info("Initialised: %d items, tracking cycle %s across %d roots", len(items), activeCycle, len(cycleRootIDs))
	return items, nil
}

// resolveActiveCycle picks the tracked cycle: the explicitly selected
// one, or the most recent cycle observed during the scan.
func (p *Poller) resolveActiveCycle(items []domain.WorkItem) string {
	if p.settings.ActiveCycle != "" {
		return p.settings.ActiveCycle
	}
	latest := ""
	for i := range items {
		if items[i].Cycle > latest {
			latest = items[i].Cycle
		}
	}
	return latest
}

// initTokens establishes change tracking for every root containing
// the active cycle. A previously persisted token is reused so changes
// made while the engine was down are replayed onto the fresh model;
// replays are idempotent by design.
func (p *Poller) initTokens(ctx context.Context, activeCycle string) (map[string]string, error) {
	cycleRootIDs := make(map[string]string)
	if activeCycle == "" {
		return cycleRootIDs, nil
	}

	for _, root := range p.settings.Roots {
		folderID, token, err := p.syncer.InitToken(ctx, root, activeCycle)
		if err != nil {
			logger.Warn("Poll: token init failed for root %s: %v", root.Name, err)
			continue
		}
		if folderID == "" {
			continue // Root has no such cycle; untracked.
		}

		if stored, serr := p.tokens.Get(ctx, root.Name); serr == nil && stored != "" {
			token = stored
		} else if serr != nil && !errors.Is(serr, domain.ErrNotFound) {
			logger.Warn("Poll: reading stored token for root %s: %v", root.Name, serr)
		}

		if err := p.tokens.Save(ctx, root.Name, token); err != nil {
			logger.Warn("Poll: persisting token for root %s: %v", root.Name, err)
		}
		cycleRootIDs[root.Name] = folderID
	}
	return cycleRootIDs, nil
}

// pollOnce runs one synchroniser pass and applies the classified
// changes. A fatal reset discards tokens and the whole model, then
// restarts from the scan step.
func (p *Poller) pollOnce(ctx context.Context) error {
	tokens, err := p.tokens.All(ctx)
	if err != nil {
		return fmt.Errorf("load tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil // Nothing tracked.
	}

	result, err := p.syncer.Poll(ctx, tokens)
	if err != nil {
		return fmt.Errorf("poll: %w", err)
	}

	if result.FatalReset {
		return p.reset(ctx)
	}

	for root, token := range result.Tokens {
		if err := p.tokens.Save(ctx, root, token); err != nil {
			logger.Warn("Poll: persisting token for root %s: %v", root, err)
		}
	}

	if len(result.Events) == 0 {
		return nil
	}

	p.stateMu.Lock()
	cycleRootIDs := p.cycleRootIDs
	activeCycle := p.activeCycle
	p.stateMu.Unlock()

	return p.classifier.Apply(ctx, result.Events, cycleRootIDs, activeCycle)
}

// reset discards all per-root tokens and the local inventory, then
// rebuilds from a fresh scan.
func (p *Poller) reset(ctx context.Context) error {
	logger.Warn("Poll: change token expired, rebuilding inventory from scratch")

	if err := p.tokens.Clear(ctx); err != nil {
		logger.Warn("Poll: clearing tokens: %v", err)
	}
	p.cache.Clear()

	p.stateMu.Lock()
	p.initialized = false
	progress := p.progress
	p.stateMu.Unlock()

	_, err := p.Initialize(ctx, progress)
	return err
}
