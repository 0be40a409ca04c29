// Package codegen lowers resolved .evt descriptors into generated source
// units for the downstream compiler. Generated code consists of calls into
// the fixed "hostrt" runtime API; it is built through a small closed
// expression IR and rendered to text.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/evtlang/evtc/internal/compiler/ast"
)

// RuntimeModule is the namespace of the runtime API that generated code
// calls into.
const RuntimeModule = "hostrt"

// ExprKind enumerates the shapes of generated expressions. The enumeration
// is closed; Render handles every kind.
type ExprKind int

const (
	ExprString ExprKind = iota
	ExprInt
	ExprBool
	ExprNull
	ExprID
	ExprPort
	ExprCall
	ExprVector
	ExprTuple
	ExprRaw
)

// Expr is one node of generated code. Which members are meaningful depends
// on Kind.
type Expr struct {
	Kind   ExprKind
	Str    string // ExprString, ExprID, ExprRaw; callee for ExprCall
	Int    int64
	Bool   bool
	Port   ast.Port
	Args   []Expr // ExprCall arguments, ExprVector/ExprTuple elements
}

// Str returns a string literal expression.
func Str(s string) Expr { return Expr{Kind: ExprString, Str: s} }

// Int returns an integer literal expression.
func Int(v int64) Expr { return Expr{Kind: ExprInt, Int: v} }

// Bool returns a boolean literal expression.
func Bool(v bool) Expr { return Expr{Kind: ExprBool, Bool: v} }

// Null returns the null literal.
func Null() Expr { return Expr{Kind: ExprNull} }

// Identifier returns a bare identifier expression.
func Identifier(id string) Expr { return Expr{Kind: ExprID, Str: id} }

// PortLit returns a port literal such as 80/tcp.
func PortLit(p ast.Port) Expr { return Expr{Kind: ExprPort, Port: p} }

// Call returns a function call expression.
func Call(callee string, args ...Expr) Expr {
	return Expr{Kind: ExprCall, Str: callee, Args: args}
}

// RuntimeCall returns a call into the runtime API module.
func RuntimeCall(name string, args ...Expr) Expr {
	return Call(RuntimeModule+"::"+name, args...)
}

// Vector returns a vector literal.
func Vector(elems ...Expr) Expr { return Expr{Kind: ExprVector, Args: elems} }

// Tuple returns a tuple literal.
func Tuple(elems ...Expr) Expr { return Expr{Kind: ExprTuple, Args: elems} }

// Raw returns an expression emitted verbatim, used for argument and
// condition expressions written in the grammar language.
func Raw(src string) Expr { return Expr{Kind: ExprRaw, Str: src} }

// Render produces the textual form of the expression.
func (e Expr) Render() string {
	switch e.Kind {
	case ExprString:
		return strconv.Quote(e.Str)
	case ExprInt:
		return strconv.FormatInt(e.Int, 10)
	case ExprBool:
		if e.Bool {
			return "True"
		}
		return "False"
	case ExprNull:
		return "Null"
	case ExprID, ExprRaw:
		return e.Str
	case ExprPort:
		return e.Port.String()
	case ExprCall:
		return fmt.Sprintf("%s(%s)", e.Str, renderList(e.Args))
	case ExprVector:
		return fmt.Sprintf("[%s]", renderList(e.Args))
	case ExprTuple:
		return fmt.Sprintf("(%s)", renderList(e.Args))
	}
	return "<invalid>"
}

func renderList(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.Render()
	}
	return strings.Join(parts, ", ")
}
