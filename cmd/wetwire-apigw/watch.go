package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newWatchCmd creates the "watch" subcommand for recompiling on config changes.
func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch <config>",
		Short: "Auto-rebuild on config file changes",
		Long: `Watch monitors a proxy config and recompiles it whenever it changes.

The watch command:
- Monitors the config file (and the base template, if given)
- Recompiles and writes the template on each change
- Debounces rapid changes to avoid excessive rebuilds

Examples:
    wetwire-apigw watch proxies.yaml -o template.json
    wetwire-apigw watch proxies.yaml --debounce 1s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := commandLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			opts.config = args[0]
			return runWatch(cmd.OutOrStdout(), opts, logger)
		},
	}

	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", "json", "Output format for build: json or yaml")
	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "Output file for build (default: stdout)")
	cmd.Flags().StringVarP(&opts.base, "base", "b", "", "Existing template to merge the methods into")

	return cmd
}

type watchOptions struct {
	config       string
	base         string
	debounce     time.Duration
	outputFormat string
	outputFile   string
}

// watchedFiles returns the absolute paths whose changes trigger a rebuild.
func (o watchOptions) watchedFiles() ([]string, error) {
	var files []string
	for _, path := range []string{o.config, o.base} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		files = append(files, abs)
	}
	return files, nil
}

// runWatch monitors the config and rebuilds on changes.
func runWatch(w io.Writer, opts watchOptions, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	files, err := opts.watchedFiles()
	if err != nil {
		return fmt.Errorf("failed to resolve paths: %w", err)
	}

	// Editors often replace a file on save, so watch the directory.
	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, file := range files {
		watched[file] = true
		dir := filepath.Dir(file)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		fmt.Fprintf(w, "Watching: %s\n", file)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	fmt.Fprintln(w, "Running initial build...")
	rebuild(w, opts, logger)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	fmt.Fprintln(w, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isRelevant(ev, watched) {
				continue
			}

			// Debounce: reset timer on each change
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			fmt.Fprintf(w, "\n[%s] Change detected, rebuilding...\n", time.Now().Format("15:04:05"))
			rebuild(w, opts, logger)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))

		case <-sigChan:
			fmt.Fprintln(w, "\nStopping watch...")
			return nil
		}
	}
}

// isRelevant reports whether ev writes or replaces one of the watched files.
func isRelevant(ev fsnotify.Event, watched map[string]bool) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return watched[abs]
}

// rebuild compiles the config and writes the template. Failures are
// reported and the watch continues.
func rebuild(w io.Writer, opts watchOptions, logger *zap.Logger) bool {
	result, err := compileFile(opts.config, opts.base, logger)
	if err != nil {
		fmt.Fprintf(w, "Build error: %v\n", err)
		return false
	}

	data, err := renderTemplate(result.template(), opts.outputFormat)
	if err != nil {
		fmt.Fprintf(w, "Output error: %v\n", err)
		return false
	}

	if opts.outputFile == "" {
		fmt.Fprintln(w, string(data))
		fmt.Fprintf(w, "Build successful, generated %d resources\n", len(result.registry))
		return true
	}

	if err := os.WriteFile(opts.outputFile, data, 0644); err != nil {
		fmt.Fprintf(w, "Failed to write output: %v\n", err)
		return false
	}
	fmt.Fprintf(w, "Build successful, wrote %s\n", opts.outputFile)
	return true
}
