// Package ast defines the descriptor types the declaration parsers produce
// from .evt source: analyzer definitions, event mappings, imports, and
// exports, together with their source locations.
package ast

import (
	"fmt"

	"github.com/evtlang/evtc/internal/grammar"
)

// Location identifies a position in an .evt source file.
type Location struct {
	File string
	Line int
}

// String renders the location as "file:line" for diagnostics and for the
// location strings embedded in generated code.
func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("line %d", l.Line)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Protocol is a transport-layer protocol selector.
type Protocol int

const (
	ProtocolUndef Protocol = iota
	ProtocolTCP
	ProtocolUDP
	ProtocolICMP
)

func (p Protocol) String() string {
	switch p {
	case ProtocolTCP:
		return "tcp"
	case ProtocolUDP:
		return "udp"
	case ProtocolICMP:
		return "icmp"
	}
	return "undef"
}

// Port is a port number tagged with its transport protocol.
type Port struct {
	Number   uint16
	Protocol Protocol
}

func (p Port) String() string { return fmt.Sprintf("%d/%s", p.Number, p.Protocol) }

// ProtocolAnalyzer describes a "protocol analyzer" declaration.
type ProtocolAnalyzer struct {
	Name         string
	Protocol     Protocol
	Ports        []Port
	UnitNameOrig grammar.ID
	UnitNameResp grammar.ID
	Replaces     grammar.ID
	Location     Location

	// Resolved during the compile pass.
	UnitOrig *grammar.Type
	UnitResp *grammar.Type
}

// FileAnalyzer describes a "file analyzer" declaration.
type FileAnalyzer struct {
	Name      string
	MimeTypes []string
	UnitName  grammar.ID
	Replaces  grammar.ID
	Location  Location

	Unit *grammar.Type
}

// PacketAnalyzer describes a "packet analyzer" declaration.
type PacketAnalyzer struct {
	Name     string
	UnitName grammar.ID
	Replaces grammar.ID
	Location Location

	Unit *grammar.Type
}

// DefaultEventPriority is the priority assigned to events declared without
// an explicit &priority. It is well below anything a grammar defines itself
// so that generated hooks always run last on their attachment point.
const DefaultEventPriority = -1000

// Event describes an "on ... -> event ..." declaration mapping a hook
// attachment point to a host-side event.
type Event struct {
	Path      grammar.ID // as declared: a unit type, or unit::hook
	Condition string     // raw expression, empty if absent
	Name      grammar.ID // host-side event name
	Exprs     []string   // raw argument expressions, in declared order
	Priority  int
	File      string // .evt file the event came from
	Location  Location

	// Filled in by the event resolver.
	Unit       grammar.ID
	Hook       grammar.ID
	UnitType   *grammar.Type
	ModuleID   grammar.ID
	ModulePath string
}

// Resolved reports whether the event resolver has processed this event.
func (e *Event) Resolved() bool { return e.UnitType != nil }

// Import describes an "import ID [from PATH]" declaration.
type Import struct {
	Module grammar.ID
	Scope  string // optional source-scope override; "" if absent
}

// Export describes an "export ID" declaration. Exports are verified only
// after all declarations have been compiled, since a type may be exported
// before its defining unit has been parsed.
type Export struct {
	ID       grammar.ID
	Location Location
}
