package domain

import "time"

// Default and floor values for engine settings. The floors guard
// against configurations that would thrash the remote store.
const (
	DefaultCacheTTL = 180 * time.Second
	MinCacheTTL     = 10 * time.Second

	DefaultPollInterval = 5 * time.Second
	MinPollInterval     = 1 * time.Second

	DefaultHydrateConcurrency = 4
	MaxHydrateConcurrency     = 16

	DefaultCycleLimit = 2
)

// CollectionRoot is one of several independently configured remote
// base paths unioned into a single logical inventory. Each root owns
// its own change token lifecycle; tokens from different roots are
// never compared or merged.
type CollectionRoot struct {
	// Name identifies the root in config, logs and change events.
	Name string

	// FolderID is the remote identifier of the root folder.
	FolderID string
}

// Settings carries the tunable parameters of the sync engine.
type Settings struct {
	// Roots are the configured collection roots.
	Roots []CollectionRoot

	// Cycles selects which cycle folders a full scan covers.
	Cycles CycleSelector

	// ActiveCycle pins change tracking to a specific cycle folder
	// name. Empty means the most recent cycle seen during the scan.
	ActiveCycle string

	// Editor is the acting user recorded on mutations.
	Editor string

	// CacheTTL bounds the age of cached evidence listings.
	CacheTTL time.Duration

	// PollInterval is the change-feed polling cadence.
	PollInterval time.Duration

	// HydrateConcurrency bounds the metric worker pool.
	HydrateConcurrency int
}

// Normalized returns a copy with defaults applied and floors enforced.
func (s Settings) Normalized() Settings {
	if s.CacheTTL <= 0 {
		s.CacheTTL = DefaultCacheTTL
	}
	if s.CacheTTL < MinCacheTTL {
		s.CacheTTL = MinCacheTTL
	}
	if s.PollInterval <= 0 {
		s.PollInterval = DefaultPollInterval
	}
	if s.PollInterval < MinPollInterval {
		s.PollInterval = MinPollInterval
	}
	if s.HydrateConcurrency <= 0 {
		s.HydrateConcurrency = DefaultHydrateConcurrency
	}
	if s.HydrateConcurrency > MaxHydrateConcurrency {
		s.HydrateConcurrency = MaxHydrateConcurrency
	}
	if s.Cycles.Latest <= 0 && s.Cycles.From == "" && s.Cycles.To == "" {
		s.Cycles.Latest = DefaultCycleLimit
	}
	return s
}
