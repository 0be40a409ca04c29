package reader

import (
	"strconv"
	"strings"

	compilererrors "github.com/evtlang/evtc/internal/compiler/errors"
)

// Preprocessor evaluates @if/@else/@endif directives against a set of named
// numeric variables before the block reader ever sees the text. Every
// directive line and every skipped line is replaced with a blank line so
// that downstream line numbers stay aligned with the source file.
type Preprocessor struct {
	defines map[string]int
	stack   []ppFrame
}

type ppFrame struct {
	parentIncluding bool
	taken           bool // some branch of this conditional has matched
	including       bool // current branch is emitted
	elseSeen        bool
}

// NewPreprocessor creates a preprocessor with the given variables, e.g.
// {"HOST_VERSION": 50200}.
func NewPreprocessor(defines map[string]int) *Preprocessor {
	if defines == nil {
		defines = map[string]int{}
	}
	return &Preprocessor{defines: defines}
}

// Including reports whether the preprocessor is currently emitting lines.
func (pp *Preprocessor) Including() bool {
	for _, f := range pp.stack {
		if !f.including {
			return false
		}
	}
	return true
}

// ExpectingDirective reports whether a conditional is still open.
func (pp *Preprocessor) ExpectingDirective() bool { return len(pp.stack) > 0 }

// ProcessLine handles one directive line (starting with '@'). Non-directive
// lines must not be passed in.
func (pp *Preprocessor) ProcessLine(directive, arg string) error {
	switch directive {
	case "@if":
		parentIncluding := pp.Including()
		cond := false
		if parentIncluding {
			v, err := pp.evaluate(arg)
			if err != nil {
				return err
			}
			cond = v
		}
		pp.stack = append(pp.stack, ppFrame{
			parentIncluding: parentIncluding,
			taken:           cond,
			including:       parentIncluding && cond,
		})
		return nil

	case "@else":
		if len(pp.stack) == 0 {
			return compilererrors.NewSyntax(compilererrors.CodeBadDirective, "@else without @if")
		}
		f := &pp.stack[len(pp.stack)-1]
		if f.elseSeen {
			return compilererrors.NewSyntax(compilererrors.CodeBadDirective, "duplicate @else")
		}
		f.elseSeen = true
		f.including = f.parentIncluding && !f.taken
		f.taken = true
		return nil

	case "@endif":
		if len(pp.stack) == 0 {
			return compilererrors.NewSyntax(compilererrors.CodeBadDirective, "@endif without @if")
		}
		pp.stack = pp.stack[:len(pp.stack)-1]
		return nil
	}

	return compilererrors.NewSyntax(compilererrors.CodeBadDirective, "unknown preprocessor directive '%s'", directive)
}

// evaluate computes a condition of the form "IDENT" (nonzero test) or
// "IDENT OP INT" with OP one of == != < <= > >=.
func (pp *Preprocessor) evaluate(cond string) (bool, error) {
	fields := strings.Fields(cond)

	switch len(fields) {
	case 1:
		v, ok := pp.defines[fields[0]]
		if !ok {
			return false, compilererrors.NewSyntax(compilererrors.CodeBadDirective, "unknown preprocessor variable '%s'", fields[0])
		}
		return v != 0, nil

	case 3:
		v, ok := pp.defines[fields[0]]
		if !ok {
			return false, compilererrors.NewSyntax(compilererrors.CodeBadDirective, "unknown preprocessor variable '%s'", fields[0])
		}
		rhs, err := strconv.Atoi(fields[2])
		if err != nil {
			return false, compilererrors.NewSyntax(compilererrors.CodeBadDirective, "cannot parse '%s' as integer", fields[2])
		}
		switch fields[1] {
		case "==":
			return v == rhs, nil
		case "!=":
			return v != rhs, nil
		case "<":
			return v < rhs, nil
		case "<=":
			return v <= rhs, nil
		case ">":
			return v > rhs, nil
		case ">=":
			return v >= rhs, nil
		}
		return false, compilererrors.NewSyntax(compilererrors.CodeBadDirective, "unknown comparison operator '%s'", fields[1])
	}

	return false, compilererrors.NewSyntax(compilererrors.CodeBadDirective, "cannot parse preprocessor condition '%s'", cond)
}

// Preprocess runs the full preprocessing pass over src, returning the text
// with the same number of lines. A conditional left open at end of input is
// an error.
func Preprocess(src string, defines map[string]int) (string, error) {
	pp := NewPreprocessor(defines)
	var out strings.Builder

	lines := strings.Split(src, "\n")
	for i, line := range lines {
		// Split preserves a trailing empty element for input ending in a
		// newline; emit separators between elements only.
		if i > 0 {
			out.WriteByte('\n')
		}

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "@") {
			directive, arg := trimmed, ""
			if j := strings.IndexAny(trimmed, " \t"); j >= 0 {
				directive, arg = trimmed[:j], strings.TrimSpace(trimmed[j:])
			}
			if err := pp.ProcessLine(directive, arg); err != nil {
				if ce, ok := err.(*compilererrors.CompilerError); ok {
					ce.Location.Line = i + 1
				}
				return "", err
			}
			continue // blank line in place of the directive
		}

		if pp.Including() {
			out.WriteString(line)
		}
		// A skipped line also stays blank.
	}

	if pp.ExpectingDirective() {
		err := compilererrors.NewSyntax(compilererrors.CodeOpenDirective, "unterminated preprocessor directive")
		err.Location.Line = len(lines)
		return "", err
	}

	return out.String(), nil
}
