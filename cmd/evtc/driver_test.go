package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evtlang/evtc/internal/cli/config"
	"github.com/evtlang/evtc/internal/compiler/codegen"
	"github.com/evtlang/evtc/internal/grammar"
)

func TestManifestDriverLookup(t *testing.T) {
	d := newManifestDriver([]config.ModuleConfig{
		{ID: "HTTP", File: "http.spct", Units: []string{"HTTP::Request", "HTTP::Reply"}},
	})

	ti, err := d.LookupType(grammar.NewID("HTTP::Request"))
	if err != nil {
		t.Fatalf("LookupType failed: %v", err)
	}
	if !ti.Type.IsUnit() {
		t.Errorf("manifest unit resolved to kind %v", ti.Type.Kind)
	}
	if ti.ModuleID != grammar.NewID("HTTP") {
		t.Errorf("ModuleID = %s", ti.ModuleID)
	}
	if ti.ModulePath != "http.spct" {
		t.Errorf("ModulePath = %s", ti.ModulePath)
	}

	if _, err := d.LookupType(grammar.NewID("HTTP::Bogus")); err == nil {
		t.Error("expected error for unknown type")
	} else if !strings.Contains(err.Error(), "no type named 'HTTP::Bogus'") {
		t.Errorf("unexpected error: %v", err)
	}

	if got := d.ExportedTypes(); got != nil {
		t.Errorf("ExportedTypes = %v, want nil", got)
	}
}

func TestManifestDriverWriteUnits(t *testing.T) {
	d := newManifestDriver(nil)

	u := codegen.NewUnit("glue_init", codegen.UnitInit)
	u.AddPreInit("glue_version();")
	d.AddInput(u)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := d.writeUnits(dir)
	if err != nil {
		t.Fatalf("writeUnits failed: %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "glue_init.spct" {
		t.Fatalf("written paths = %v", paths)
	}

	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("reading unit: %v", err)
	}
	if !strings.Contains(string(data), "module glue_init;") {
		t.Errorf("unit file missing module header:\n%s", data)
	}
}

func TestCompileFiles(t *testing.T) {
	tmp := t.TempDir()

	src := `protocol analyzer HTTP over TCP:
    parse originator with HTTP::Request,
    parse responder with HTTP::Reply,
    ports {80/tcp, 8080/tcp};

import HTTP;

on HTTP::Request::%done -> event http::request($conn, $is_orig);
`
	evt := filepath.Join(tmp, "http.evt")
	if err := os.WriteFile(evt, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		HostVersion: 50200,
		Build:       config.BuildConfig{OutputDir: filepath.Join(tmp, "out")},
		Modules: []config.ModuleConfig{
			{ID: "HTTP", File: "http.spct", Units: []string{"HTTP::Request", "HTTP::Reply"}},
		},
	}

	written, err := compileFiles(cfg, []string{evt}, false)
	if err != nil {
		t.Fatalf("compileFiles failed: %v", err)
	}

	byName := map[string]string{}
	for _, path := range written {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}
		byName[filepath.Base(path)] = string(data)
	}

	hooks, ok := byName["glue_hooks_HTTP.spct"]
	if !ok {
		t.Fatalf("no hooks unit written, got %v", written)
	}
	if !strings.Contains(hooks, "hostrt::raise_event") {
		t.Errorf("hooks unit does not raise the event:\n%s", hooks)
	}

	init, ok := byName["glue_init.spct"]
	if !ok {
		t.Fatalf("no init unit written, got %v", written)
	}
	for _, want := range []string{
		`hostrt::register_protocol_analyzer("HTTP"`,
		"hostrt::install_handler",
	} {
		if !strings.Contains(init, want) {
			t.Errorf("init unit missing %q:\n%s", want, init)
		}
	}
}

func TestCompileFilesReportsErrors(t *testing.T) {
	tmp := t.TempDir()

	evt := filepath.Join(tmp, "bad.evt")
	if err := os.WriteFile(evt, []byte("on NoSuch::%done -> event x::y();\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		HostVersion: 50200,
		Build:       config.BuildConfig{OutputDir: filepath.Join(tmp, "out")},
	}

	if _, err := compileFiles(cfg, []string{evt}, false); err == nil {
		t.Fatal("expected compile error for unknown unit")
	} else if !strings.Contains(err.Error(), "NoSuch") {
		t.Errorf("unexpected error: %v", err)
	}
}
