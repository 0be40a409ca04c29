// Package glue implements the glue compiler: it loads .evt files, resolves
// event declarations against grammar modules, and lowers everything into
// generated source units for the downstream compiler.
package glue

import (
	"github.com/evtlang/evtc/internal/compiler/codegen"
	"github.com/evtlang/evtc/internal/grammar"
)

// TypeInfo describes a grammar type known to the downstream compiler,
// together with the module that defines it.
type TypeInfo struct {
	ID         grammar.ID
	Type       *grammar.Type
	ModuleID   grammar.ID
	ModulePath string
}

// Driver is the glue compiler's view of the downstream compiler toolchain.
// The toolchain owns parsing and compiling the grammar modules themselves;
// the glue compiler only looks up types by name and hands over generated
// units.
type Driver interface {
	// LookupType resolves a fully qualified type name.
	LookupType(id grammar.ID) (*TypeInfo, error)

	// ExportedTypes returns the types marked for export to the host, in a
	// stable order.
	ExportedTypes() []TypeInfo

	// AddInput queues a generated unit for downstream compilation.
	AddInput(unit *codegen.Unit)
}
