package glue

import (
	"fmt"
	"strings"
	"testing"

	"github.com/evtlang/evtc/internal/compiler/codegen"
	compilererrors "github.com/evtlang/evtc/internal/compiler/errors"
	"github.com/evtlang/evtc/internal/grammar"
)

type fakeDriver struct {
	types    map[grammar.ID]*TypeInfo
	exported []TypeInfo
	inputs   []*codegen.Unit
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{types: map[grammar.ID]*TypeInfo{}}
}

func (d *fakeDriver) addUnit(id grammar.ID, moduleID grammar.ID, modulePath string) {
	d.types[id] = &TypeInfo{
		ID:         id,
		Type:       &grammar.Type{Kind: grammar.KindUnit, ID: id},
		ModuleID:   moduleID,
		ModulePath: modulePath,
	}
}

func (d *fakeDriver) LookupType(id grammar.ID) (*TypeInfo, error) {
	if ti, ok := d.types[id]; ok {
		return ti, nil
	}
	return nil, fmt.Errorf("unknown ID %s", id)
}

func (d *fakeDriver) ExportedTypes() []TypeInfo { return d.exported }

func (d *fakeDriver) AddInput(unit *codegen.Unit) {
	d.inputs = append(d.inputs, unit)
}

func (d *fakeDriver) unit(name string) *codegen.Unit {
	for _, u := range d.inputs {
		if u.Name == name {
			return u
		}
	}
	return nil
}

func newTestCompiler(d Driver) *Compiler {
	return New(d, Options{HostVersion: 50200})
}

func TestLoadSourceDispatch(t *testing.T) {
	d := newFakeDriver()
	c := newTestCompiler(d)

	src := `
import HTTP;
export HTTP::Message;
protocol analyzer HTTP over TCP: parse with HTTP::Request, port 80/tcp;
file analyzer PE: parse with PE::ImageFile;
packet analyzer Gre: parse with GRE::Packet;
on HTTP::Request -> event http::request();
`
	if err := c.LoadSource("test.evt", src); err != nil {
		t.Fatal(err)
	}

	if len(c.imports) != 1 || len(c.exports) != 1 {
		t.Errorf("imports/exports = %d/%d", len(c.imports), len(c.exports))
	}
	if len(c.protocolAnalyzers) != 1 || len(c.fileAnalyzers) != 1 || len(c.packetAnalyzers) != 1 {
		t.Errorf("analyzers = %d/%d/%d",
			len(c.protocolAnalyzers), len(c.fileAnalyzers), len(c.packetAnalyzers))
	}
	if len(c.Events()) != 1 {
		t.Errorf("events = %d", len(c.Events()))
	}
}

func TestLoadSourceFailFastCommitsNoEvents(t *testing.T) {
	c := newTestCompiler(newFakeDriver())

	src := "on HTTP::Request -> event ok();\nnot a declaration;\n"
	err := c.LoadSource("broken.evt", src)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(c.Events()) != 0 {
		t.Errorf("events from a failed file were committed: %d", len(c.Events()))
	}
}

func TestLoadSourceErrorCarriesLocation(t *testing.T) {
	c := newTestCompiler(newFakeDriver())

	err := c.LoadSource("bad.evt", "import ok;\n\nbogus here;\n")
	ce, ok := err.(*compilererrors.CompilerError)
	if !ok {
		t.Fatalf("expected CompilerError, got %T: %v", err, err)
	}
	if ce.Location.File != "bad.evt" {
		t.Errorf("File = %q", ce.Location.File)
	}
	if ce.Location.Line != 3 {
		t.Errorf("Line = %d, want 3", ce.Location.Line)
	}
	if !strings.Contains(ce.Message, "expected 'import', 'export'") {
		t.Errorf("Message = %q", ce.Message)
	}
}

func TestLoadSourceRunsPreprocessor(t *testing.T) {
	c := newTestCompiler(newFakeDriver())

	src := "@if HOST_VERSION >= 60000\nthis would not parse;\n@endif\nimport ok;\n"
	if err := c.LoadSource("gated.evt", src); err != nil {
		t.Fatal(err)
	}
	if len(c.imports) != 1 {
		t.Errorf("imports = %d", len(c.imports))
	}
}

func TestCompileResolvesUnitCompletionHook(t *testing.T) {
	d := newFakeDriver()
	d.addUnit("HTTP::Request", "HTTP", "/grammar/http.spct")
	c := newTestCompiler(d)
	c.AddModule("HTTP", "/grammar/http.spct")

	if err := c.LoadSource("http.evt", "on HTTP::Request -> event http::request();\n"); err != nil {
		t.Fatal(err)
	}
	if err := c.Compile(); err != nil {
		t.Fatal(err)
	}

	ev := c.Events()[0]
	if !ev.Resolved() {
		t.Fatal("event not resolved")
	}
	if ev.Unit.String() != "HTTP::Request" {
		t.Errorf("Unit = %q", ev.Unit)
	}
	if ev.Hook.String() != "HTTP::Request::0x25_done" {
		t.Errorf("Hook = %q", ev.Hook)
	}

	hooks := d.unit("glue_hooks_HTTP")
	if hooks == nil {
		t.Fatalf("hooks unit missing; inputs: %v", d.inputs)
	}
	if !strings.Contains(hooks.Source(), "on HTTP::Request::0x25_done") {
		t.Errorf("hook missing:\n%s", hooks.Source())
	}

	init := d.unit("glue_init")
	if init == nil {
		t.Fatal("init unit missing")
	}
	src := init.Source()
	if !strings.Contains(src, "glue_version();") {
		t.Errorf("version check missing:\n%s", src)
	}
	if !strings.Contains(src, `hostrt::install_handler("http::request");`) {
		t.Errorf("handler installation missing:\n%s", src)
	}
}

func TestCompileResolvesExplicitHook(t *testing.T) {
	d := newFakeDriver()
	d.addUnit("HTTP::Request", "HTTP", "/grammar/http.spct")
	c := newTestCompiler(d)
	c.AddModule("HTTP", "/grammar/http.spct")

	if err := c.LoadSource("http.evt", "on HTTP::Request::uri -> event http::uri();\n"); err != nil {
		t.Fatal(err)
	}
	if err := c.Compile(); err != nil {
		t.Fatal(err)
	}

	ev := c.Events()[0]
	if ev.Unit.String() != "HTTP::Request" {
		t.Errorf("Unit = %q", ev.Unit)
	}
	if ev.Hook.String() != "HTTP::Request::uri" {
		t.Errorf("Hook = %q", ev.Hook)
	}
}

func TestCompileUnknownUnit(t *testing.T) {
	c := newTestCompiler(newFakeDriver())
	if err := c.LoadSource("x.evt", "on NoSuch::thing -> event e();\n"); err != nil {
		t.Fatal(err)
	}

	err := c.Compile()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unknown unit type 'NoSuch'") {
		t.Errorf("error = %q", err)
	}
}

func TestCompileHookWithoutUnit(t *testing.T) {
	c := newTestCompiler(newFakeDriver())
	if err := c.LoadSource("x.evt", "on justname -> event e();\n"); err != nil {
		t.Fatal(err)
	}

	err := c.Compile()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unit type missing in hook 'justname'") {
		t.Errorf("error = %q", err)
	}
}

func TestCompileUnknownModule(t *testing.T) {
	d := newFakeDriver()
	d.addUnit("HTTP::Request", "HTTP", "/grammar/http.spct")
	c := newTestCompiler(d)
	// AddModule intentionally not called.

	if err := c.LoadSource("x.evt", "on HTTP::Request -> event e();\n"); err != nil {
		t.Fatal(err)
	}

	err := c.Compile()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "module HTTP not known in grammar module list") {
		t.Errorf("error = %q", err)
	}
}

func TestCompileRegistersProtocolAnalyzer(t *testing.T) {
	d := newFakeDriver()
	d.addUnit("HTTP::Request", "HTTP", "/grammar/http.spct")
	c := newTestCompiler(d)
	c.AddModule("HTTP", "/grammar/http.spct")

	src := "protocol analyzer HTTP over TCP: parse with HTTP::Request, port 80/tcp;\n"
	if err := c.LoadSource("http.evt", src); err != nil {
		t.Fatal(err)
	}
	if err := c.Compile(); err != nil {
		t.Fatal(err)
	}

	init := d.unit("glue_init")
	if init == nil {
		t.Fatal("init unit missing")
	}
	if !strings.Contains(init.Source(), `hostrt::register_protocol_analyzer("HTTP", hostrt::Protocol::TCP, [80/tcp]`) {
		t.Errorf("registration missing:\n%s", init.Source())
	}

	a := c.protocolAnalyzers[0]
	if a.UnitOrig == nil || !a.UnitOrig.IsUnit() {
		t.Error("originator unit not resolved")
	}
}

func TestCompileAnalyzerUnitMustBeUnitType(t *testing.T) {
	d := newFakeDriver()
	d.types["HTTP::Oops"] = &TypeInfo{
		ID:   "HTTP::Oops",
		Type: grammar.Base(grammar.KindString),
	}
	c := newTestCompiler(d)

	if err := c.LoadSource("x.evt", "file analyzer F: parse with HTTP::Oops;\n"); err != nil {
		t.Fatal(err)
	}

	err := c.Compile()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "is not a unit type") {
		t.Errorf("error = %q", err)
	}
}

func TestCompileExportsTypes(t *testing.T) {
	d := newFakeDriver()
	d.exported = []TypeInfo{{
		ID: "HTTP::Method",
		Type: &grammar.Type{
			Kind:   grammar.KindEnum,
			ID:     "HTTP::Method",
			Labels: []grammar.EnumLabel{{ID: "GET", Value: 0}},
		},
	}}
	c := newTestCompiler(d)

	if err := c.LoadSource("x.evt", "export HTTP::Method;\n"); err != nil {
		t.Fatal(err)
	}
	if err := c.Compile(); err != nil {
		t.Fatal(err)
	}

	init := d.unit("glue_init")
	if init == nil {
		t.Fatal("init unit missing")
	}
	if !strings.Contains(init.Source(), `hostrt::register_type("HTTP", "Method", hostrt::create_enum_type(`) {
		t.Errorf("type registration missing:\n%s", init.Source())
	}
}

func TestCompileUnknownExport(t *testing.T) {
	c := newTestCompiler(newFakeDriver())
	if err := c.LoadSource("x.evt", "export Unknown::T;\n"); err != nil {
		t.Fatal(err)
	}

	err := c.Compile()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unknown type exported: Unknown::T") {
		t.Errorf("error = %q", err)
	}
}

func TestCompileUnqualifiedExport(t *testing.T) {
	c := newTestCompiler(newFakeDriver())
	if err := c.LoadSource("x.evt", "export lonely;\n"); err != nil {
		t.Fatal(err)
	}

	err := c.Compile()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "exported type must provide namespace: lonely") {
		t.Errorf("error = %q", err)
	}
}

func TestCompileHooksUnitImportsWithSearchDirs(t *testing.T) {
	d := newFakeDriver()
	d.addUnit("HTTP::Request", "HTTP", "/grammar/http.spct")
	c := newTestCompiler(d)
	c.AddModule("HTTP", "/grammar/http.spct")

	src := "import Filter from filters;\non HTTP::Request -> event http::request();\n"
	if err := c.LoadSource("/events/http.evt", src); err != nil {
		t.Fatal(err)
	}
	if err := c.Compile(); err != nil {
		t.Fatal(err)
	}

	hooks := d.unit("glue_hooks_HTTP")
	if hooks == nil {
		t.Fatal("hooks unit missing")
	}
	if !strings.Contains(hooks.Source(), "import Filter from filters; # search: /events") {
		t.Errorf("scoped import missing:\n%s", hooks.Source())
	}
	if !strings.Contains(hooks.Source(), "import HTTP;") {
		t.Errorf("module import missing:\n%s", hooks.Source())
	}
}

func TestCompileWithoutDeclarationsAddsNoInit(t *testing.T) {
	d := newFakeDriver()
	c := newTestCompiler(d)

	if err := c.Compile(); err != nil {
		t.Fatal(err)
	}
	// glue_version() alone still counts as pre-init work.
	if d.unit("glue_init") == nil {
		t.Error("init unit with version check expected")
	}
}

func TestModuleRecordSearchDirs(t *testing.T) {
	m := &ModuleRecord{EvtFiles: map[string]bool{
		"/b/two.evt": true,
		"/a/one.evt": true,
		"/a/dup.evt": true,
	}}
	dirs := m.SearchDirs()
	if len(dirs) != 2 || dirs[0] != "/a" || dirs[1] != "/b" {
		t.Errorf("SearchDirs() = %v", dirs)
	}
}
