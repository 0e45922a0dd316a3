// Package cli implements the crateview command-line interface.
//
// Commands load research-object packages through a [navigator.Navigator]
// and print their structure, search results and link hints. The same
// navigator is served over HTTP by "serve" and driven interactively by
// "browse".
//
// # Commands
//
//   - open: load a package (and optionally nested packages) and summarize it
//   - tree: print the package hierarchy
//   - search: fuzzy search across loaded packages
//   - hints: show the link hints of an entity
//   - export: write the hierarchy as DOT, SVG, PDF, PNG, JSON or YAML
//   - browse: interactive terminal browser
//   - serve: HTTP JSON API with per-client sessions
//   - watch: reload a local package whenever its metadata changes
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context and retrieved with loggerFromContext.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/crateview/pkg/buildinfo"
	"github.com/matzehuels/crateview/pkg/cache"
	"github.com/matzehuels/crateview/pkg/fetch"
	"github.com/matzehuels/crateview/pkg/jsonld"
	"github.com/matzehuels/crateview/pkg/navigator"
	"github.com/matzehuels/crateview/pkg/search"
)

const appName = "crateview"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *Config
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
		Short:        "crateview browses research-object packages",
		Long:         `crateview loads RO-Crate style metadata packages from URLs, directories, archives or pasted text, and lets you walk their hierarchy, follow nested packages and search across everything you have opened.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/crateview/config.toml)")

	root.AddCommand(c.openCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.hintsCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config returns the loaded configuration, or defaults when a command runs
// without the root pre-run (as in tests).
func (c *CLI) config() *Config {
	if c.cfg == nil {
		cfg := &Config{}
		cfg.SetDefaults()
		c.cfg = cfg
	}
	return c.cfg
}

// newFetcher builds the fetch client from the configuration.
func (c *CLI) newFetcher(logger *log.Logger) *fetch.Client {
	cfg := c.config()
	return fetch.New(fetch.Options{
		Timeout:      cfg.Fetch.Timeout.Duration,
		Retries:      cfg.Fetch.Retries,
		MetadataFile: cfg.Fetch.MetadataFile,
		UserAgent:    cfg.Fetch.UserAgent,
		RateLimit:    cfg.Fetch.RateLimit,
		Logger:       logger,
	})
}

// newExpander builds the JSON-LD expander used for link hints. It returns
// nil, disabling hints, when expansion is turned off or cannot be set up.
func (c *CLI) newExpander(logger *log.Logger) jsonld.Expander {
	cfg := c.config()
	if cfg.JSONLD.Disabled {
		return nil
	}
	e, err := jsonld.NewGoldExpander(jsonld.Options{Contexts: cfg.JSONLD.Contexts})
	if err != nil {
		logger.Warn("link hints disabled", "err", err)
		return nil
	}
	return e
}

// newNavigator builds a navigator with its own cache and search index.
func (c *CLI) newNavigator(logger *log.Logger, fetcher navigator.Fetcher, expander jsonld.Expander) *navigator.Navigator {
	cfg := c.config()
	return navigator.New(navigator.Options{
		Fetcher:  fetcher,
		Expander: expander,
		Cache:    cache.NewMemory[*navigator.Entry](cfg.Cache.MaxEntries),
		Search: search.Options{
			Threshold:      cfg.Search.Threshold,
			MinTokenLength: cfg.Search.MinTokenLength,
		},
		Logger: logger,
	})
}

// openPackage loads ref into a fresh navigator, following each nested
// reference in turn.
func (c *CLI) openPackage(ctx context.Context, ref string, nested ...string) (*navigator.Navigator, error) {
	logger := loggerFromContext(ctx)
	nav := c.newNavigator(logger, c.newFetcher(logger), c.newExpander(logger))

	prog := newProgress(logger)
	spin := newSpinnerWithContext(ctx, "Loading "+ref)
	spin.Start()
	_, err := nav.OpenPackage(ctx, ref, "", true)
	for i := 0; err == nil && i < len(nested); i++ {
		_, err = nav.OpenNestedPackage(ctx, nested[i])
	}
	spin.Stop()
	if err != nil {
		return nil, err
	}
	prog.done("Loaded " + nav.Nav().Current.String())
	return nav, nil
}
