// Package ui renders compiler diagnostics and status messages for the
// terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	compilererrors "github.com/evtlang/evtc/internal/compiler/errors"
)

// FormatDiagnostics renders a compilation failure for the terminal. Error
// lists expand to one line per error with the category tag; plain errors
// render as a single line.
//
// Example output:
//
//	✗ COMPILATION FAILED: 2 error(s)
//	   [syntax]     http.evt:4: unexpected end of file [SYN002]
//	   [resolution] http.evt:9: unknown unit type 'HTTP::Reqest' [RES100]
func FormatDiagnostics(err error, noColor bool) string {
	headerColor := color.New(color.FgRed, color.Bold)
	tagColor := color.New(color.FgYellow)
	if noColor {
		headerColor.DisableColor()
		tagColor.DisableColor()
	}

	var errs compilererrors.List
	switch e := err.(type) {
	case compilererrors.List:
		errs = e
	case *compilererrors.CompilerError:
		errs = compilererrors.List{e}
	default:
		var b strings.Builder
		headerColor.Fprintf(&b, "✗ COMPILATION FAILED\n")
		fmt.Fprintf(&b, "   %s\n", err.Error())
		return b.String()
	}

	var b strings.Builder
	headerColor.Fprintf(&b, "✗ COMPILATION FAILED: %d error(s)\n", len(errs))

	width := 0
	for _, ce := range errs {
		if n := len(ce.Category); n > width {
			width = n
		}
	}
	for _, ce := range errs {
		tagColor.Fprintf(&b, "   [%s]%s", ce.Category, strings.Repeat(" ", width-len(ce.Category)))
		fmt.Fprintf(&b, " %s\n", ce.Error())
	}
	return b.String()
}

// WriteDiagnostics writes a formatted compilation failure to the writer.
func WriteDiagnostics(w io.Writer, err error, noColor bool) {
	fmt.Fprint(w, FormatDiagnostics(err, noColor))
}

// FormatSuccess creates a success message.
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer.
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}
