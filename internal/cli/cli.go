// Package cli implements the composer command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/prodkit/composer/pkg/buildinfo"
	"github.com/prodkit/composer/pkg/cache"
	"github.com/prodkit/composer/pkg/config"
)

// appName is the application name used for directories and display.
const appName = "composer"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Composer batch-renders product catalog images from templates",
		Long:         `Composer takes an image template with typed layer slots, combines it with pools of product, presentation and decoration assets, and renders every valid composition into a catalog directory tree.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.templateCommand())
	root.AddCommand(c.syncCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadSettings reads the persisted configuration, creating it with
// defaults on first use.
func (c *CLI) loadSettings() (*config.Settings, error) {
	s, err := config.Load()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// newAssetCache returns the cache backing per-asset encodings. Cache
// failures degrade to no caching, never to a hard error.
func newAssetCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewMemoryCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewMemoryCache()
	}
	return fc
}

// cacheDir returns the cache directory using the XDG convention
// (~/.cache/composer/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
