package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/evtlang/evtc/internal/cli/config"
	"github.com/evtlang/evtc/internal/cli/ui"
	"github.com/evtlang/evtc/internal/compiler/glue"
	"github.com/evtlang/evtc/internal/grammar"
)

var compileVerbose bool

func init() {
	compileCmd.Flags().BoolVar(&compileVerbose, "verbose", false, "Show detailed compilation output")
}

var compileCmd = &cobra.Command{
	Use:   "compile [files...]",
	Short: "Compile .evt files into generated glue units",
	Long:  "Compile the given .evt files (default: all .evt files in the current directory) and write the generated units to the build output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		files := args
		if len(files) == 0 {
			files, err = filepath.Glob("*.evt")
			if err != nil {
				return fmt.Errorf("failed to find .evt files: %w", err)
			}
			sort.Strings(files)
		}
		if len(files) == 0 {
			return fmt.Errorf("no .evt files found - pass them explicitly or run in a directory containing some")
		}

		written, err := compileFiles(cfg, files, compileVerbose)
		if err != nil {
			ui.WriteDiagnostics(os.Stderr, err, false)
			return fmt.Errorf("compilation failed")
		}

		elapsed := time.Since(start)
		ui.WriteSuccess(os.Stdout, fmt.Sprintf("Compiled %d file(s) in %.2fs", len(files), elapsed.Seconds()), false)
		for _, path := range written {
			fmt.Printf("  %s\n", path)
		}
		return nil
	},
}

// compileFiles runs the glue compiler over the given .evt files using the
// module manifest from cfg and writes the generated units into the build
// output directory. It returns the written paths.
func compileFiles(cfg *config.Config, files []string, verbose bool) ([]string, error) {
	log := zap.NewNop()
	if verbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		defer log.Sync()
	}

	driver := newManifestDriver(cfg.Modules)
	compiler := glue.New(driver, glue.Options{
		HostVersion: cfg.HostVersion,
		Debug:       cfg.Debug,
		Logger:      log,
	})

	for _, m := range cfg.Modules {
		compiler.AddModule(grammar.NewID(m.ID), m.File)
	}

	for _, file := range files {
		if verbose {
			fmt.Printf("Loading %s...\n", file)
		}
		if err := compiler.LoadFile(file); err != nil {
			return nil, err
		}
	}

	if err := compiler.Compile(); err != nil {
		return nil, err
	}

	return driver.writeUnits(cfg.Build.OutputDir)
}
