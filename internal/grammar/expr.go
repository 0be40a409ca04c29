package grammar

import (
	"fmt"
	"strings"
)

// ValidateExpression performs the light-weight checks the glue compiler
// applies to a raw argument or condition expression before handing it to
// the downstream compiler: it must be non-empty, string literals must be
// terminated, and brackets must balance. Full expression parsing stays
// with the downstream compiler.
func ValidateExpression(expr string) error {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return fmt.Errorf("empty expression")
	}

	var depth int
	inString := false
	prev := byte(0)

	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]

		if inString {
			if c == '"' && prev != '\\' {
				inString = false
			}
			prev = c
			continue
		}

		switch c {
		case '"':
			inString = true
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return fmt.Errorf("unbalanced '%c' in expression '%s'", c, trimmed)
			}
		}
		prev = c
	}

	if inString {
		return fmt.Errorf("unterminated string in expression '%s'", trimmed)
	}
	if depth != 0 {
		return fmt.Errorf("unbalanced brackets in expression '%s'", trimmed)
	}
	return nil
}

// UsesTryMember reports whether the expression applies the try-member
// operator (".?") anywhere outside of a string literal. Such expressions
// need deferred evaluation so that a missing member can skip the event
// instead of failing hard.
func UsesTryMember(expr string) bool {
	inString := false
	prev := byte(0)

	for i := 0; i < len(expr); i++ {
		c := expr[i]

		if inString {
			if c == '"' && prev != '\\' {
				inString = false
			}
			prev = c
			continue
		}

		if c == '"' {
			inString = true
		} else if c == '?' && prev == '.' {
			return true
		}
		prev = c
	}
	return false
}
