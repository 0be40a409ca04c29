package glue

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/evtlang/evtc/internal/compiler/codegen"
	"github.com/evtlang/evtc/internal/grammar"
)

// ModuleRecord tracks one grammar module: the .evt files contributing
// declarations to it and the hooks unit generated for it.
type ModuleRecord struct {
	ID   grammar.ID
	File string // grammar source file defining the module

	// EvtFiles is the set of .evt files whose events attach to this
	// module's units.
	EvtFiles map[string]bool

	Hooks *codegen.Unit
}

// SearchDirs returns the unique parent directories of the contributing
// .evt files, sorted for deterministic output. Imports generated into the
// hooks unit search these directories.
func (m *ModuleRecord) SearchDirs() []string {
	seen := map[string]bool{}
	var dirs []string
	for f := range m.EvtFiles {
		dir := filepath.Dir(f)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}

// moduleRegistry maps grammar module IDs to their records. Records are
// created on first reference.
type moduleRegistry struct {
	records map[grammar.ID]*ModuleRecord
}

func newModuleRegistry() *moduleRegistry {
	return &moduleRegistry{records: map[grammar.ID]*ModuleRecord{}}
}

// add creates the record for id on first use and returns it.
func (r *moduleRegistry) add(id grammar.ID, file string) *ModuleRecord {
	if m, ok := r.records[id]; ok {
		return m
	}
	m := &ModuleRecord{
		ID:       id,
		File:     file,
		EvtFiles: map[string]bool{},
		Hooks:    codegen.NewUnit(fmt.Sprintf("glue_hooks_%s", id), codegen.UnitHooks),
	}
	r.records[id] = m
	return m
}

// get returns the record for id, or nil if the module is unknown.
func (r *moduleRegistry) get(id grammar.ID) *ModuleRecord {
	return r.records[id]
}

// all returns the records sorted by module ID for deterministic output.
func (r *moduleRegistry) all() []*ModuleRecord {
	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	records := make([]*ModuleRecord, len(ids))
	for i, id := range ids {
		records[i] = r.records[grammar.ID(id)]
	}
	return records
}
