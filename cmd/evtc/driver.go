package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/evtlang/evtc/internal/cli/config"
	"github.com/evtlang/evtc/internal/compiler/codegen"
	"github.com/evtlang/evtc/internal/compiler/glue"
	"github.com/evtlang/evtc/internal/grammar"
)

// manifestDriver backs the glue compiler with the module manifest from
// evtc.yml. Units declared there resolve as opaque unit types; the real
// grammar toolchain later compiles the generated units against the full
// grammar definitions.
type manifestDriver struct {
	types  map[grammar.ID]*glue.TypeInfo
	inputs []*codegen.Unit
}

func newManifestDriver(modules []config.ModuleConfig) *manifestDriver {
	d := &manifestDriver{types: make(map[grammar.ID]*glue.TypeInfo)}
	for _, m := range modules {
		for _, unit := range m.Units {
			id := grammar.NewID(unit)
			d.types[id] = &glue.TypeInfo{
				ID:         id,
				Type:       &grammar.Type{Kind: grammar.KindUnit, ID: id},
				ModuleID:   grammar.NewID(m.ID),
				ModulePath: m.File,
			}
		}
	}
	return d
}

func (d *manifestDriver) LookupType(id grammar.ID) (*glue.TypeInfo, error) {
	if ti, ok := d.types[id]; ok {
		return ti, nil
	}
	return nil, fmt.Errorf("no type named '%s' in module manifest", id)
}

// ExportedTypes returns nothing: the manifest names units but does not
// carry full type definitions, so export projection stays with the
// grammar toolchain.
func (d *manifestDriver) ExportedTypes() []glue.TypeInfo { return nil }

func (d *manifestDriver) AddInput(unit *codegen.Unit) {
	d.inputs = append(d.inputs, unit)
}

// writeUnits writes all generated units into the output directory, one
// .spct file per unit, and returns their paths.
func (d *manifestDriver) writeUnits(outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var paths []string
	for _, u := range d.inputs {
		path := filepath.Join(outputDir, u.Name+".spct")
		if err := os.WriteFile(path, []byte(u.Source()), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
