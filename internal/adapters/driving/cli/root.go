// Package cli implements the casetrack command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/casetrack/internal/adapters/driven/cache"
	configfile "github.com/custodia-labs/casetrack/internal/adapters/driven/config/file"
	"github.com/custodia-labs/casetrack/internal/adapters/driven/remote/drive"
	"github.com/custodia-labs/casetrack/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/casetrack/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driven"
	"github.com/custodia-labs/casetrack/internal/core/ports/driving"
	"github.com/custodia-labs/casetrack/internal/core/services"
	"github.com/custodia-labs/casetrack/internal/logger"
)

// accessTokenEnv names the environment variable carrying the remote
// store access token. Token acquisition itself is out of scope; any
// OAuth helper that exports a bearer token works.
const accessTokenEnv = "CASETRACK_ACCESS_TOKEN"

var (
	flagVerbose bool
	flagConfig  string

	// Assembled services, shared by the commands.
	cfg        *configfile.Config
	cfgPath    string
	settings   domain.Settings
	remote     driven.RemoteStore
	tracker    driving.Tracker
	tokenStore *sqlite.Store
)

var rootCmd = &cobra.Command{
	Use:   "casetrack",
	Short: "Track work items in a remote document store",
	Long: `Casetrack keeps a local model of work item folders in a remote
hierarchical document store, synchronised through change feeds, and
pushes property edits back with optimistic concurrency.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		return loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default ~/.casetrack/config.toml)")
}

// Execute runs the CLI.
func Execute() {
	defer closeServices()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves and reads the config file.
func loadConfig() error {
	path := flagConfig
	if path == "" {
		var err error
		path, err = configfile.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
	}

	loaded, err := configfile.Load(path)
	if err != nil {
		return err
	}

	cfg = loaded
	cfgPath = path
	settings = cfg.Settings()
	return nil
}

// ensureTracker lazily assembles the engine for commands that talk to
// the remote store. The client is constructed once here and shared by
// reference; no component reaches for hidden globals.
func ensureTracker(ctx context.Context) error {
	if tracker != nil {
		return nil
	}

	if len(settings.Roots) == 0 {
		return errors.New("no collection roots configured; add [[roots]] entries to the config file")
	}

	token := os.Getenv(accessTokenEnv)
	if token == "" {
		return fmt.Errorf("%s is not set", accessTokenEnv)
	}

	client, err := drive.New(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	if err != nil {
		return fmt.Errorf("create remote client: %w", err)
	}
	remote = client

	tokenStore, err = sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open token store: %w", err)
	}

	items := memory.NewItemStore()
	evidence := cache.New(remote, settings.CacheTTL)

	tracker = services.NewTracker(remote, items, evidence, tokenStore, settings)
	return nil
}

func closeServices() {
	if tracker != nil {
		if err := tracker.Shutdown(); err != nil {
			logger.Warn("Shutdown: %v", err)
		}
	}
	if tokenStore != nil {
		tokenStore.Close()
	}
}
