// Package grammar models the type system of the embedded parsing language
// as seen by the glue compiler: qualified identifiers, a closed enumeration
// of type shapes, and light-weight scanning of argument expressions.
package grammar

import "strings"

// percentEscape replaces '%' in identifiers, which the downstream
// compiler's identifier syntax cannot represent directly.
const percentEscape = "0x25_"

// ID is a qualified identifier such as "HTTP::Request". An empty ID is the
// zero value.
type ID string

// NewID builds an ID from raw source text, rewriting characters that the
// downstream compiler cannot accept inside identifiers.
func NewID(s string) ID {
	return ID(strings.ReplaceAll(s, "%", percentEscape))
}

// String returns the identifier as written.
func (id ID) String() string { return string(id) }

// Empty reports whether the identifier is unset.
func (id ID) Empty() bool { return id == "" }

// Namespace returns everything up to the last "::" separator, or "" if the
// identifier has no namespace component.
func (id ID) Namespace() ID {
	if i := strings.LastIndex(string(id), "::"); i >= 0 {
		return ID(id[:i])
	}
	return ""
}

// Local returns the last component of the identifier.
func (id ID) Local() ID {
	if i := strings.LastIndex(string(id), "::"); i >= 0 {
		return ID(id[i+2:])
	}
	return id
}

// Append joins id and local with the namespace separator.
func (id ID) Append(local ID) ID {
	if id.Empty() {
		return local
	}
	return ID(string(id) + "::" + string(local))
}
