package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/crateview/pkg/locator"
)

func (c *CLI) watchCommand() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <locator>",
		Short: "Reload a local package whenever its metadata file changes",
		Long: `Open a local package and watch its metadata file. Every change is
followed by a reload that bypasses the cache, and a fresh summary is
printed. Invalid edits are reported and the last good version stays
loaded. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config()
			if cmd.Flags().Changed("debounce") {
				cfg.Watch.Debounce.Duration = debounce
			}
			if loc := locator.Split(args[0]); loc.IsURL() || loc.IsText() {
				return fmt.Errorf("watch needs a local package, got %s", loc)
			}
			ctx := cmd.Context()

			nav, err := c.openPackage(ctx, args[0])
			if err != nil {
				return err
			}
			loc := nav.Nav().Current
			path := filepath.FromSlash(loc.Document(cfg.Fetch.MetadataFile))

			printSuccess("Watching %s", StyleValue.Render(path))
			printNav(nav)

			logger := loggerFromContext(ctx)
			return watchFile(ctx, logger, path, cfg.Watch.Debounce.Duration, func() {
				prog := newProgress(logger)
				if _, err := nav.Reload(ctx); err != nil {
					printError("Reload failed: %v", err)
					return
				}
				prog.done("Reloaded", "entities", len(nav.Entities()))
				printNewline()
				printSuccess("Reloaded %s", StyleTitle.Render(nav.Nav().Name))
				printNav(nav)
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", DefaultDebounce, "quiet period before a change triggers a reload")
	return cmd
}

// watchFile calls onChange once per burst of writes to path, after debounce
// has passed without further events. It watches the parent directory so
// editors that replace the file on save are seen. It returns when ctx ends.
func watchFile(ctx context.Context, logger *log.Logger, path string, debounce time.Duration, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Debug("watching", "path", abs, "debounce", debounce)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "err", err)

		case <-timer.C:
			onChange()
		}
	}
}
