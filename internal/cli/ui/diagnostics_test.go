package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/evtlang/evtc/internal/compiler/ast"
	compilererrors "github.com/evtlang/evtc/internal/compiler/errors"
)

func TestFormatDiagnosticsList(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var errs compilererrors.List
	errs.Append(compilererrors.NewSyntax(compilererrors.CodeUnexpectedEOF, "unexpected end of file").
		WithLocation(ast.Location{File: "http.evt", Line: 4}))
	errs.Append(compilererrors.NewResolution(compilererrors.CodeUnknownUnit, "unknown unit type 'HTTP::Reqest'").
		WithLocation(ast.Location{File: "http.evt", Line: 9}))

	out := FormatDiagnostics(errs, true)

	for _, want := range []string{
		"✗ COMPILATION FAILED: 2 error(s)",
		"[syntax]",
		"[resolution]",
		"http.evt:4: unexpected end of file [SYN002]",
		"http.evt:9: unknown unit type 'HTTP::Reqest' [RES100]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Category tags align on the widest category.
	if !strings.Contains(out, "[syntax]     http.evt:4") {
		t.Errorf("syntax tag not padded to resolution width:\n%s", out)
	}
}

func TestFormatDiagnosticsSingleError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	err := compilererrors.NewCodeGen(compilererrors.CodeBadExpression, "unbalanced expression")
	out := FormatDiagnostics(err, true)

	if !strings.Contains(out, "✗ COMPILATION FAILED: 1 error(s)") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "[codegen] unbalanced expression [GEN200]") {
		t.Errorf("missing error line:\n%s", out)
	}
}

func TestFormatDiagnosticsPlainError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	out := FormatDiagnostics(errors.New("open http.evt: no such file"), true)

	if !strings.Contains(out, "✗ COMPILATION FAILED\n") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "   open http.evt: no such file") {
		t.Errorf("missing message:\n%s", out)
	}
}

func TestWriteDiagnostics(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	WriteDiagnostics(&buf, errors.New("boom"), true)
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("writer output missing message: %q", buf.String())
	}
}

func TestFormatSuccess(t *testing.T) {
	got := FormatSuccess("Compiled 3 file(s)", true)
	if got != "✓ Compiled 3 file(s)" {
		t.Errorf("FormatSuccess = %q", got)
	}

	var buf bytes.Buffer
	WriteSuccess(&buf, "done", true)
	if buf.String() != "✓ done\n" {
		t.Errorf("WriteSuccess wrote %q", buf.String())
	}
}
