// Package file loads and persists the Casetrack configuration as a
// TOML file in the user's config directory.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/casetrack/internal/core/domain"
)

// RootConfig configures one collection root.
type RootConfig struct {
	// Name identifies the root in logs and change events.
	Name string `toml:"name"`

	// FolderID is the remote identifier of the root folder.
	FolderID string `toml:"folder_id"`
}

// Config is the on-disk configuration shape.
type Config struct {
	// Roots are the collection roots unioned into one inventory.
	Roots []RootConfig `toml:"roots"`

	// Cycle pins tracking to a specific 8-digit cycle folder.
	// Empty means the most recent cycle found during the scan.
	Cycle string `toml:"cycle,omitempty"`

	// CycleLimit scans the N most recent cycles.
	CycleLimit int `toml:"cycle_limit,omitempty"`

	// CycleFrom/CycleTo scan an inclusive date-code range instead.
	CycleFrom string `toml:"cycle_from,omitempty"`
	CycleTo   string `toml:"cycle_to,omitempty"`

	// Editor is the acting user recorded on mutations.
	Editor string `toml:"editor,omitempty"`

	// CacheTTLSeconds bounds the evidence cache age.
	CacheTTLSeconds int `toml:"cache_ttl_seconds,omitempty"`

	// PollIntervalSeconds is the change-feed polling cadence.
	PollIntervalSeconds int `toml:"poll_interval_seconds,omitempty"`

	// HydrateConcurrency bounds the metric worker pool.
	HydrateConcurrency int `toml:"hydrate_concurrency,omitempty"`

	// DataDir overrides the token database location.
	DataDir string `toml:"data_dir,omitempty"`
}

// DefaultPath returns the default config file location,
// ~/.casetrack/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".casetrack", "config.toml"), nil
}

// Load reads the configuration from the given path. A missing file
// yields an empty config rather than an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration, creating the directory as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// Settings converts the on-disk shape to normalised engine settings.
func (c *Config) Settings() domain.Settings {
	roots := make([]domain.CollectionRoot, 0, len(c.Roots))
	for _, r := range c.Roots {
		roots = append(roots, domain.CollectionRoot{Name: r.Name, FolderID: r.FolderID})
	}

	return domain.Settings{
		Roots: roots,
		Cycles: domain.CycleSelector{
			Latest: c.CycleLimit,
			From:   c.CycleFrom,
			To:     c.CycleTo,
		},
		ActiveCycle:        c.Cycle,
		Editor:             c.Editor,
		CacheTTL:           time.Duration(c.CacheTTLSeconds) * time.Second,
		PollInterval:       time.Duration(c.PollIntervalSeconds) * time.Second,
		HydrateConcurrency: c.HydrateConcurrency,
	}.Normalized()
}
