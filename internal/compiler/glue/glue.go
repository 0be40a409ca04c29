package glue

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/evtlang/evtc/internal/compiler/ast"
	"github.com/evtlang/evtc/internal/compiler/codegen"
	compilererrors "github.com/evtlang/evtc/internal/compiler/errors"
	"github.com/evtlang/evtc/internal/compiler/parser"
	"github.com/evtlang/evtc/internal/compiler/reader"
	"github.com/evtlang/evtc/internal/grammar"
)

// hostVersionVariable is the preprocessor variable carrying the host
// framework's numeric version.
const hostVersionVariable = "HOST_VERSION"

// initUnitName is the name of the generated unit holding all pre-init
// registration calls.
const initUnitName = "glue_init"

// Options configures a Compiler.
type Options struct {
	// HostVersion is the host framework's numeric version, e.g. 50200 for
	// 5.2. It feeds the preprocessor and version-gated grammar features.
	HostVersion int

	// Debug adds diagnostic lines to generated hooks.
	Debug bool

	Logger *zap.Logger
}

// Compiler is the glue compiler. It accumulates declarations across all
// loaded .evt files and lowers them into generated units in one pass.
type Compiler struct {
	driver  Driver
	opts    Options
	log     *zap.Logger
	modules *moduleRegistry

	protocolAnalyzers []*ast.ProtocolAnalyzer
	fileAnalyzers     []*ast.FileAnalyzer
	packetAnalyzers   []*ast.PacketAnalyzer
	events            []*ast.Event
	imports           []ast.Import
	exports           []ast.Export
}

// New creates a glue compiler bound to the given downstream driver.
func New(driver Driver, opts Options) *Compiler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Compiler{
		driver:  driver,
		opts:    opts,
		log:     opts.Logger,
		modules: newModuleRegistry(),
	}
}

// AddModule registers a grammar module so that events resolving into it
// have a hooks unit to land in. The downstream driver calls this for every
// grammar source file it loads.
func (c *Compiler) AddModule(id grammar.ID, file string) {
	c.modules.add(id, file)
}

// Events returns the event descriptors loaded so far.
func (c *Compiler) Events() []*ast.Event { return c.events }

// LoadFile loads all declarations from an .evt file. The file is processed
// fail-fast: the first syntax error aborts it and none of its events are
// committed.
func (c *Compiler) LoadFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.LoadSource(path, string(src))
}

// LoadSource is LoadFile for in-memory source, used by tests and the watch
// loop.
func (c *Compiler) LoadSource(path, src string) error {
	c.log.Debug("loading events", zap.String("path", path))

	preprocessed, err := reader.Preprocess(src, map[string]int{
		hostVersionVariable: c.opts.HostVersion,
	})
	if err != nil {
		return locate(err, path)
	}

	br := reader.NewBlockReader(strings.NewReader(preprocessed))

	// Events are staged and committed only if the whole file parses.
	var newEvents []*ast.Event

	for {
		chunk, err := br.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ce, ok := err.(*compilererrors.CompilerError); ok && ce.Location.Line == 0 {
				ce.Location.Line = br.Line()
			}
			return locate(err, path)
		}

		loc := ast.Location{File: path, Line: br.Line()}
		if err := c.dispatchChunk(chunk, loc, &newEvents); err != nil {
			return locate(err, path)
		}
	}

	c.events = append(c.events, newEvents...)
	return nil
}

// dispatchChunk routes one chunk to the declaration parser matching its
// leading keyword.
func (c *Compiler) dispatchChunk(chunk string, loc ast.Location, newEvents *[]*ast.Event) error {
	switch {
	case parser.HasKeyword(chunk, "protocol"):
		a, err := parser.ParseProtocolAnalyzer(chunk, loc)
		if err != nil {
			return err
		}
		c.log.Debug("got protocol analyzer definition", zap.String("name", a.Name))
		c.protocolAnalyzers = append(c.protocolAnalyzers, a)

	case parser.HasKeyword(chunk, "file"):
		a, err := parser.ParseFileAnalyzer(chunk, loc)
		if err != nil {
			return err
		}
		c.log.Debug("got file analyzer definition", zap.String("name", a.Name))
		c.fileAnalyzers = append(c.fileAnalyzers, a)

	case parser.HasKeyword(chunk, "packet"):
		a, err := parser.ParsePacketAnalyzer(chunk, loc, c.opts.HostVersion)
		if err != nil {
			return err
		}
		c.log.Debug("got packet analyzer definition", zap.String("name", a.Name))
		c.packetAnalyzers = append(c.packetAnalyzers, a)

	case parser.HasKeyword(chunk, "on"):
		ev, err := parser.ParseEvent(chunk, loc)
		if err != nil {
			return err
		}
		ev.File = loc.File
		c.log.Debug("got event definition", zap.String("name", ev.Name.String()))
		*newEvents = append(*newEvents, ev)

	case parser.HasKeyword(chunk, "import"):
		imp, err := parser.ParseImport(chunk, loc)
		if err != nil {
			return err
		}
		c.log.Debug("got module to import",
			zap.String("module", imp.Module.String()), zap.String("scope", imp.Scope))
		c.imports = append(c.imports, *imp)

	case parser.HasKeyword(chunk, "export"):
		exp, err := parser.ParseExport(chunk, loc)
		if err != nil {
			return err
		}
		c.exports = append(c.exports, *exp)

	default:
		return compilererrors.NewSyntax(compilererrors.CodeUnexpectedToken,
			"expected 'import', 'export', '{file,packet,protocol} analyzer', or 'on'").WithLocation(loc)
	}

	return nil
}

// Compile resolves all loaded declarations and hands the generated units
// to the downstream driver: one init unit with the pre-init registration
// body, plus one hooks unit per grammar module.
func (c *Compiler) Compile() error {
	gen := codegen.NewGenerator(c.opts.Debug, c.log)
	init := codegen.NewUnit(initUnitName, codegen.UnitInit)

	// The generated program exposes its glue version and checks it first
	// thing at pre-init, so that a mismatched host refuses to load it.
	init.AddDecl("public function glue_version() : string &external;")
	init.AddPreInit("glue_version();")

	if err := c.resolveEvents(); err != nil {
		return err
	}

	for _, a := range c.protocolAnalyzers {
		if err := c.resolveAnalyzerUnit(&a.UnitOrig, a.UnitNameOrig, "protocol analyzer", a.Name); err != nil {
			return err
		}
		if err := c.resolveAnalyzerUnit(&a.UnitResp, a.UnitNameResp, "protocol analyzer", a.Name); err != nil {
			return err
		}
		if err := gen.RegisterProtocolAnalyzer(init, a); err != nil {
			return err
		}
	}

	for _, a := range c.fileAnalyzers {
		if err := c.resolveAnalyzerUnit(&a.Unit, a.UnitName, "file analyzer", a.Name); err != nil {
			return err
		}
		gen.RegisterFileAnalyzer(init, a)
	}

	for _, a := range c.packetAnalyzers {
		if err := c.resolveAnalyzerUnit(&a.Unit, a.UnitName, "packet analyzer", a.Name); err != nil {
			return err
		}
		gen.RegisterPacketAnalyzer(init, a)
	}

	// Generate the hooks that raise events.
	for _, ev := range c.events {
		module := c.modules.get(ev.ModuleID)
		module.Hooks.AddImport(ev.ModuleID.String(), "", nil)
		if err := gen.EventHook(module.Hooks, ev); err != nil {
			return err
		}
	}

	// Register the events at pre-init time.
	for _, ev := range c.events {
		gen.InstallHandler(init, ev)
	}

	// Export grammar types to the host. Failures here are independent of
	// each other, so they accumulate instead of aborting the pass.
	var errs compilererrors.List
	seen := map[grammar.ID]bool{}
	for _, ti := range c.driver.ExportedTypes() {
		seen[ti.ID] = true

		if ti.ID.Namespace().Empty() {
			errs.Append(compilererrors.NewResolution(compilererrors.CodeUnqualifiedExport,
				"exported ID must be fully qualified: %s", ti.ID))
			continue
		}

		projected, err := codegen.ProjectType(ti.Type, ti.ID)
		if err != nil {
			errs.Append(compilererrors.NewResolution(compilererrors.CodeUnsupportedType,
				"cannot export grammar type '%s': %v", ti.ID, err))
			continue
		}
		gen.RegisterType(init, ti.ID, projected)
	}

	// Verify that every export declaration is accounted for.
	for _, exp := range c.exports {
		if seen[exp.ID] {
			continue
		}
		if exp.ID.Namespace().Empty() {
			errs.Append(compilererrors.NewResolution(compilererrors.CodeUnqualifiedExport,
				"exported type must provide namespace: %s", exp.ID).WithLocation(exp.Location))
		} else {
			errs.Append(compilererrors.NewResolution(compilererrors.CodeUnknownExport,
				"unknown type exported: %s", exp.ID).WithLocation(exp.Location))
		}
	}

	// Assemble the hooks units: import the runtime module plus all
	// declared dependencies, searching the .evt files' directories.
	for _, m := range c.modules.all() {
		searchDirs := m.SearchDirs()
		for _, imp := range c.imports {
			m.Hooks.AddImport(imp.Module.String(), imp.Scope, searchDirs)
		}
		c.driver.AddInput(m.Hooks)
	}

	if !init.PreInitEmpty() {
		c.driver.AddInput(init)
	}

	return errs.ErrOrNil()
}

// resolveAnalyzerUnit looks up a parse unit named by an analyzer clause
// and stores the resolved type.
func (c *Compiler) resolveAnalyzerUnit(dst **grammar.Type, name grammar.ID, what, analyzer string) error {
	if name.Empty() {
		return nil
	}

	info, err := c.driver.LookupType(name)
	if err != nil {
		return compilererrors.NewResolution(compilererrors.CodeUnknownUnit,
			"error with %s %s: %v", what, analyzer, err)
	}
	if !info.Type.IsUnit() {
		return compilererrors.NewResolution(compilererrors.CodeUnknownUnit,
			"error with %s %s: '%s' is not a unit type", what, analyzer, name)
	}

	*dst = info.Type
	return nil
}

// locate fills in the source file on a compiler error that only carries a
// line number.
func locate(err error, file string) error {
	if ce, ok := err.(*compilererrors.CompilerError); ok && ce.Location.File == "" {
		ce.Location.File = file
	}
	return err
}
