package codegen

import (
	"fmt"
	"hash/fnv"
	"strings"

	"go.uber.org/zap"

	"github.com/evtlang/evtc/internal/compiler/ast"
	compilererrors "github.com/evtlang/evtc/internal/compiler/errors"
	"github.com/evtlang/evtc/internal/grammar"
)

// reservedAccessors maps the reserved $-argument names to their runtime
// accessor functions. Any other identifier starting with '$' is rejected.
var reservedAccessors = map[string]string{
	"$conn":    "current_conn",
	"$file":    "current_file",
	"$packet":  "current_packet",
	"$is_orig": "current_is_orig",
}

// Generator lowers resolved descriptors into generated code.
type Generator struct {
	// Debug adds a diagnostic line to every generated hook that names the
	// event and its arguments.
	Debug bool

	log *zap.Logger
}

// NewGenerator creates a generator. A nil logger disables logging.
func NewGenerator(debug bool, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{Debug: debug, log: log}
}

// RegisterProtocolAnalyzer emits the pre-init registration call for a
// protocol analyzer into the init unit.
func (g *Generator) RegisterProtocolAnalyzer(u *Unit, a *ast.ProtocolAnalyzer) error {
	g.log.Debug("adding protocol analyzer", zap.String("name", a.Name))

	var proto Expr
	switch a.Protocol {
	case ast.ProtocolTCP:
		proto = Identifier(RuntimeModule + "::Protocol::TCP")
	case ast.ProtocolUDP:
		proto = Identifier(RuntimeModule + "::Protocol::UDP")
	default:
		return compilererrors.NewCodeGen(compilererrors.CodeBadExpression,
			"unexpected transport protocol '%s' for analyzer %s", a.Protocol, a.Name).WithLocation(a.Location)
	}

	ports := make([]Expr, len(a.Ports))
	for i, p := range a.Ports {
		ports[i] = PortLit(p)
	}

	call := RuntimeCall("register_protocol_analyzer",
		Str(a.Name),
		proto,
		Vector(ports...),
		Str(a.UnitNameOrig.String()),
		Str(a.UnitNameResp.String()),
		Str(a.Replaces.String()),
		RuntimeCall("linker_scope"))
	u.AddPreInit(call.Render() + ";")
	return nil
}

// RegisterFileAnalyzer emits the pre-init registration call for a file
// analyzer into the init unit.
func (g *Generator) RegisterFileAnalyzer(u *Unit, a *ast.FileAnalyzer) {
	g.log.Debug("adding file analyzer", zap.String("name", a.Name))

	mimes := make([]Expr, len(a.MimeTypes))
	for i, m := range a.MimeTypes {
		mimes[i] = Str(m)
	}

	call := RuntimeCall("register_file_analyzer",
		Str(a.Name),
		Vector(mimes...),
		Str(a.UnitName.String()),
		Str(a.Replaces.String()),
		RuntimeCall("linker_scope"))
	u.AddPreInit(call.Render() + ";")
}

// RegisterPacketAnalyzer emits the pre-init registration call for a packet
// analyzer into the init unit.
func (g *Generator) RegisterPacketAnalyzer(u *Unit, a *ast.PacketAnalyzer) {
	g.log.Debug("adding packet analyzer", zap.String("name", a.Name))

	call := RuntimeCall("register_packet_analyzer",
		Str(a.Name),
		Str(a.UnitName.String()),
		Str(a.Replaces.String()),
		RuntimeCall("linker_scope"))
	u.AddPreInit(call.Render() + ";")
}

// InstallHandler emits the pre-init call registering an event name with
// the host.
func (g *Generator) InstallHandler(u *Unit, ev *ast.Event) {
	u.AddPreInit(RuntimeCall("install_handler", Str(ev.Name.String())).Render() + ";")
}

// RegisterType emits the pre-init call exporting a projected type to the
// host under its namespaced identifier. Types without a namespace land in
// the host's GLOBAL scope.
func (g *Generator) RegisterType(u *Unit, id grammar.ID, projected Expr) {
	ns := id.Namespace().String()
	if ns == "" {
		ns = "GLOBAL"
	}
	call := RuntimeCall("register_type",
		Str(ns),
		Str(id.Local().String()),
		projected)
	u.AddPreInit(call.Render() + ";")
}

// handlerID returns the name of the private handler global generated for
// an event. The name folds in a hash of the descriptor so that multiple
// declarations raising the same event stay distinct.
func handlerID(ev *ast.Event) string {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%s|%s|%s|%d", ev.Path, ev.Condition, ev.Name, strings.Join(ev.Exprs, ","), ev.Priority)

	mangled := strings.ReplaceAll(ev.Name.String(), "::", "_")
	return fmt.Sprintf("__handler_%s_%08x", mangled, h.Sum32())
}

// EventHook generates the handler global and the hook declaration for one
// resolved event, adding both to the owning module's hooks unit.
func (g *Generator) EventHook(u *Unit, ev *ast.Event) error {
	if !ev.Resolved() {
		return compilererrors.NewCodeGen(compilererrors.CodeBadExpression,
			"event %s has not been resolved", ev.Name).WithLocation(ev.Location)
	}

	g.log.Debug("adding hook for event",
		zap.String("hook", ev.Hook.String()),
		zap.String("event", ev.Name.String()))

	handler := handlerID(ev)
	u.AddDecl(fmt.Sprintf("global %s = %s;", handler,
		RuntimeCall("internal_handler", Str(ev.Name.String())).Render()))

	var body []string

	// Evaluate the condition, if any, before doing anything else.
	if ev.Condition != "" {
		if err := grammar.ValidateExpression(ev.Condition); err != nil {
			return compilererrors.NewCodeGen(compilererrors.CodeBadExpression,
				"error parsing conditional expression '%s': %v", ev.Condition, err).WithLocation(ev.Location)
		}
		body = append(body, fmt.Sprintf("if ( ! (%s) ) return;", ev.Condition))
	}

	// The debug line shows reserved accessors as their literal marker so
	// that logging alone never triggers accessor side effects.
	if g.Debug {
		fmtArgs := []Expr{Str(ev.Name.String())}
		ctrls := make([]string, len(ev.Exprs))
		for i, raw := range ev.Exprs {
			ctrls[i] = "%s"
			if strings.HasPrefix(raw, "$") {
				fmtArgs = append(fmtArgs, Str(raw))
				continue
			}
			fmtArgs = append(fmtArgs, g.argumentExpr(raw, true))
		}
		format := fmt.Sprintf("-> event %%s(%s)", strings.Join(ctrls, ", "))
		debug := RuntimeCall("debug", Call(RuntimeModule+"::fmt", append([]Expr{Str(format)}, fmtArgs...)...))
		body = append(body, debug.Render()+";")
	}

	// Raising is zero-cost when no script subscribes to the event.
	body = append(body, fmt.Sprintf("if ( ! %s ) return;",
		RuntimeCall("have_handler", Identifier(handler)).Render()))

	body = append(body, fmt.Sprintf("local args: vector<%s::Val>;", RuntimeModule))

	loc := Str(ev.Location.String())
	for i, raw := range ev.Exprs {
		var val Expr

		if accessor, ok := reservedAccessors[raw]; ok {
			val = RuntimeCall(accessor, loc)
		} else if strings.HasPrefix(raw, "$") {
			return compilererrors.NewCodeGen(compilererrors.CodeBadReservedParam,
				"unknown reserved parameter '%s'", raw).WithLocation(ev.Location)
		} else {
			if err := grammar.ValidateExpression(raw); err != nil {
				return compilererrors.NewCodeGen(compilererrors.CodeBadExpression,
					"error parsing event argument expression '%s': %v", raw, err).WithLocation(ev.Location)
			}
			ztype := RuntimeCall("event_arg_type", Identifier(handler), Int(int64(i)), loc)
			val = RuntimeCall("to_val", g.argumentExpr(raw, false), ztype, loc)
		}

		body = append(body, fmt.Sprintf("args.push_back(%s);", val.Render()))
	}

	body = append(body, RuntimeCall("raise_event", Identifier(handler), Identifier("args"), loc).Render()+";")

	var b strings.Builder
	fmt.Fprintf(&b, "on %s &priority=%d {\n", ev.Hook, ev.Priority)
	for _, stmt := range body {
		fmt.Fprintf(&b, "    %s\n", stmt)
	}
	b.WriteString("}")
	u.AddDecl(b.String())

	return nil
}

// argumentExpr wraps an argument expression for deferred evaluation when it
// uses the try-member operator, so a missing member skips the event instead
// of failing the callback. With catch set, evaluation errors additionally
// render as a placeholder; that form is used for debug output only.
func (g *Generator) argumentExpr(raw string, catch bool) Expr {
	if !grammar.UsesTryMember(raw) {
		return Raw(raw)
	}
	if catch {
		return RuntimeCall("deferred_catch", Raw(raw))
	}
	return RuntimeCall("deferred", Raw(raw))
}
