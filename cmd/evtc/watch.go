package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evtlang/evtc/internal/cli/config"
	"github.com/evtlang/evtc/internal/cli/ui"
	"github.com/evtlang/evtc/internal/watch"
)

var watchVerbose bool

func init() {
	watchCmd.Flags().BoolVar(&watchVerbose, "verbose", false, "Show verbose output")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompile .evt files on change",
	Long: `Watch the project for .evt file changes and recompile automatically.

The patterns and ignore globs come from the watch section of evtc.yml;
by default every *.evt file under the project root is watched.

Examples:
  # Watch the current project
  evtc watch

  # Enable verbose logging
  evtc watch --verbose
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := config.GetProjectRoot()
		if err != nil {
			return err
		}
		if err := os.Chdir(root); err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		recompile := func(changed []string) error {
			files, err := filepath.Glob("*.evt")
			if err != nil {
				return err
			}
			sort.Strings(files)
			if len(files) == 0 {
				return nil
			}

			written, err := compileFiles(cfg, files, watchVerbose)
			if err != nil {
				ui.WriteDiagnostics(os.Stderr, err, false)
				return nil // keep watching after a failed compile
			}
			ui.WriteSuccess(os.Stdout, fmt.Sprintf("Recompiled %d file(s)", len(files)), false)
			if watchVerbose {
				for _, path := range written {
					fmt.Printf("  %s\n", path)
				}
			}
			return nil
		}

		watcher, err := watch.NewFileWatcher(cfg.Watch.Patterns, cfg.Watch.Ignored, recompile, nil)
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		if err := watcher.Start([]string{root}); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}

		// Compile once up front so the output directory reflects the
		// current sources before the first change.
		if err := recompile(nil); err != nil {
			return err
		}

		fmt.Printf("Watching %s for changes. Press Ctrl+C to stop.\n", root)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		fmt.Println("\nShutting down...")
		return watcher.Stop()
	},
}
