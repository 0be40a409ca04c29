package codegen

import (
	"fmt"
	"strings"
)

// UnitKind distinguishes the init unit, which carries module-initialization
// registrations, from the per-module hook units.
type UnitKind int

const (
	// UnitInit is the single unit holding pre-init registration calls.
	UnitInit UnitKind = iota
	// UnitHooks is a per-grammar-module unit holding generated hooks.
	UnitHooks
)

// Unit is one generated source unit handed to the downstream compiler.
type Unit struct {
	Name string
	Kind UnitKind

	imports []string
	decls   []string
	preinit []string
}

// NewUnit creates an empty unit that imports the runtime API module.
func NewUnit(name string, kind UnitKind) *Unit {
	u := &Unit{Name: name, Kind: kind}
	u.AddImport(RuntimeModule, "", nil)
	return u
}

// AddImport records an import of another module, optionally scoped and
// with additional search directories.
func (u *Unit) AddImport(module, scope string, searchDirs []string) {
	var line string
	switch {
	case scope != "":
		line = fmt.Sprintf("import %s from %s;", module, scope)
	default:
		line = fmt.Sprintf("import %s;", module)
	}
	if len(searchDirs) > 0 {
		line += fmt.Sprintf(" # search: %s", strings.Join(searchDirs, ":"))
	}

	for _, have := range u.imports {
		if have == line {
			return
		}
	}
	u.imports = append(u.imports, line)
}

// AddDecl appends a top-level declaration (a global, a function, a hook).
func (u *Unit) AddDecl(text string) {
	u.decls = append(u.decls, text)
}

// AddPreInit appends a statement to the unit's pre-init body, executed at
// module-initialization time before any traffic is processed.
func (u *Unit) AddPreInit(stmt string) {
	u.preinit = append(u.preinit, stmt)
}

// PreInitEmpty reports whether no pre-init statements have been added.
func (u *Unit) PreInitEmpty() bool { return len(u.preinit) == 0 }

// Source renders the unit to generated source text.
func (u *Unit) Source() string {
	var b strings.Builder

	fmt.Fprintf(&b, "module %s;\n\n", u.Name)

	for _, imp := range u.imports {
		b.WriteString(imp)
		b.WriteByte('\n')
	}

	for _, d := range u.decls {
		b.WriteByte('\n')
		b.WriteString(d)
		b.WriteByte('\n')
	}

	if len(u.preinit) > 0 {
		b.WriteString("\npreinit {\n")
		for _, stmt := range u.preinit {
			fmt.Fprintf(&b, "    %s\n", stmt)
		}
		b.WriteString("}\n")
	}

	return b.String()
}
