package services

import (
	"context"
	"time"

	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driven"
	"github.com/custodia-labs/casetrack/internal/core/ports/driving"
	"github.com/custodia-labs/casetrack/internal/logger"
)

// Ensure InventoryScanner implements the interface.
var _ driving.Scanner = (*InventoryScanner)(nil)

// InventoryScanner enumerates every configured collection root into a
// flat list of work items. One progress step is one cycle folder.
type InventoryScanner struct {
	remote   driven.RemoteStore
	settings domain.Settings

	// now is injected for ETA tests.
	now func() time.Time
}

// NewInventoryScanner creates a scanner over the given remote store.
func NewInventoryScanner(remote driven.RemoteStore, settings domain.Settings) *InventoryScanner {
	return &InventoryScanner{
		remote:   remote,
		settings: settings.Normalized(),
		now:      time.Now,
	}
}

// scanStep is one cycle folder under one root.
type scanStep struct {
	root  domain.CollectionRoot
	cycle domain.Node
}

// Scan lists cycle folders under each root, selects those covered by
// the configured cycle selector, and walks cycle -> partition -> item.
// A failure listing one root, cycle or partition is logged and
// skipped; the scan always returns whatever it could enumerate.
func (s *InventoryScanner) Scan(ctx context.Context, progress driving.ProgressFunc) ([]domain.WorkItem, error) {
	steps, err := s.collectSteps(ctx)
	if err != nil {
		return nil, err
	}

	total := len(steps)
	s.report(progress, 0, total, 0)

	start := s.now()
	var items []domain.WorkItem
	for done, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		found, err := s.scanCycle(ctx, step)
		if err != nil {
			logger.Warn("Scan: skipping cycle %s under root %s: %v", step.cycle.Name, step.root.Name, err)
		} else {
			items = append(items, found...)
		}

		s.report(progress, done+1, total, s.eta(start, done+1, total))
	}

	logger.Info("Scan complete: %d items across %d cycle folders", len(items), total)
	return items, nil
}

// collectSteps lists each root's cycle folders and applies the cycle
// selector. A root that cannot be listed degrades to zero steps.
func (s *InventoryScanner) collectSteps(ctx context.Context) ([]scanStep, error) {
	var steps []scanStep
	for _, root := range s.settings.Roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		children, err := s.remote.ListChildren(ctx, root.FolderID)
		if err != nil {
			logger.Warn("Scan: cannot list root %s: %v", root.Name, err)
			continue
		}

		byName := make(map[string]domain.Node, len(children))
		var names []string
		for i := range children {
			if !children[i].Folder {
				continue
			}
			byName[children[i].Name] = children[i]
			names = append(names, children[i].Name)
		}

		for _, name := range s.settings.Cycles.Select(names) {
			steps = append(steps, scanStep{root: root, cycle: byName[name]})
		}
	}
	return steps, nil
}

// scanCycle walks one cycle folder: its sub-folders are partitions,
// and each partition's sub-folders are work items. Non-folder entries
// at the partition level are skipped.
func (s *InventoryScanner) scanCycle(ctx context.Context, step scanStep) ([]domain.WorkItem, error) {
	partitions, err := s.remote.ListChildren(ctx, step.cycle.ID)
	if err != nil {
		return nil, err
	}

	var items []domain.WorkItem
	for i := range partitions {
		part := &partitions[i]
		if !part.Folder {
			continue
		}

		children, err := s.remote.ListChildren(ctx, part.ID)
		if err != nil {
			logger.Warn("Scan: skipping partition %s/%s: %v", step.cycle.Name, part.Name, err)
			continue
		}

		for j := range children {
			if !children[j].Folder {
				continue
			}
			items = append(items, domain.ItemFromNode(&children[j], step.root.Name, step.cycle.Name, part.Name))
		}
	}
	return items, nil
}

// eta estimates the seconds remaining from average step duration.
func (s *InventoryScanner) eta(start time.Time, done, total int) float64 {
	if done <= 0 {
		return 0
	}
	perStep := s.now().Sub(start).Seconds() / float64(done)
	return perStep * float64(total-done)
}

func (s *InventoryScanner) report(progress driving.ProgressFunc, done, total int, eta float64) {
	if progress != nil {
		progress(done, total, eta)
	}
}
