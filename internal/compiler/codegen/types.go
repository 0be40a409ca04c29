package codegen

import (
	"math"

	compilererrors "github.com/evtlang/evtc/internal/compiler/errors"
	"github.com/evtlang/evtc/internal/grammar"
)

// ProjectType converts a grammar type into the host schema-creation call
// that materializes it at pre-init time. id names the type when it carries
// one (enums, structs, units); anonymous inner types pass an empty ID.
//
// Projection recurses through container and record types with an explicit
// in-progress set keyed by type ID: re-entering an identifier that is
// still under construction fails instead of recursing forever.
func ProjectType(t *grammar.Type, id grammar.ID) (Expr, error) {
	return projectType(t, id, map[grammar.ID]bool{})
}

func projectType(t *grammar.Type, id grammar.ID, inProgress map[grammar.ID]bool) (Expr, error) {
	if id.Empty() {
		id = t.ID
	}

	if !id.Empty() {
		if inProgress[id] {
			return Expr{}, compilererrors.NewResolution(compilererrors.CodeSelfRecursiveType, "type is self-recursive")
		}
		inProgress[id] = true
		defer delete(inProgress, id)
	}

	switch t.Kind {
	case grammar.KindAddress:
		return baseType("Addr"), nil
	case grammar.KindBool:
		return baseType("Bool"), nil
	case grammar.KindBytes, grammar.KindString:
		return baseType("String"), nil
	case grammar.KindInterval:
		return baseType("Interval"), nil
	case grammar.KindPort:
		return baseType("Port"), nil
	case grammar.KindReal:
		return baseType("Double"), nil
	case grammar.KindSignedInteger:
		return baseType("Int"), nil
	case grammar.KindTime:
		return baseType("Time"), nil
	case grammar.KindUnsignedInteger:
		return baseType("Count"), nil

	case grammar.KindEnum:
		labels := make([]Expr, len(t.Labels))
		for i, l := range t.Labels {
			value := l.Value
			if value == -1 {
				// Host enums cannot be negative; the grammar's -1 marker
				// maps to the host's max-int sentinel.
				value = math.MaxInt64
			}
			labels[i] = Tuple(Str(l.ID.String()), Int(value))
		}
		return RuntimeCall("create_enum_type",
			Str(id.Namespace().String()), Str(id.Local().String()), Vector(labels...)), nil

	case grammar.KindMap:
		key, err := projectType(t.Key, "", inProgress)
		if err != nil {
			return Expr{}, err
		}
		value, err := projectType(t.Elem, "", inProgress)
		if err != nil {
			return Expr{}, err
		}
		return RuntimeCall("create_table_type", key, value), nil

	case grammar.KindSet:
		elem, err := projectType(t.Elem, "", inProgress)
		if err != nil {
			return Expr{}, err
		}
		// Sets are tables without a yield type.
		return RuntimeCall("create_table_type", elem, Null()), nil

	case grammar.KindVector:
		elem, err := projectType(t.Elem, "", inProgress)
		if err != nil {
			return Expr{}, err
		}
		return RuntimeCall("create_vector_type", elem), nil

	case grammar.KindOptional:
		// Optionality surfaces on the enclosing record field, not here.
		return projectType(t.Elem, "", inProgress)

	case grammar.KindStruct:
		return projectRecord(id, t.Fields, inProgress)

	case grammar.KindTuple:
		for _, f := range t.Fields {
			if f.ID.Empty() {
				return Expr{}, compilererrors.NewResolution(compilererrors.CodeUnsupportedType,
					"can only convert tuple types with all-named fields")
			}
		}
		return projectRecord(id, t.Fields, inProgress)

	case grammar.KindUnit:
		return projectRecord(id, t.RecordFields(), inProgress)
	}

	return Expr{}, compilererrors.NewResolution(compilererrors.CodeUnsupportedType,
		"no support for automatic conversion into a host type (%s)", t.Kind)
}

func projectRecord(id grammar.ID, fields []grammar.Field, inProgress map[grammar.ID]bool) (Expr, error) {
	decls := make([]Expr, len(fields))
	for i, f := range fields {
		optional := f.Optional
		ftype := f.Type
		if ftype != nil && ftype.Kind == grammar.KindOptional {
			optional = true
		}

		projected, err := projectType(ftype, "", inProgress)
		if err != nil {
			return Expr{}, err
		}
		decls[i] = Tuple(Str(f.ID.String()), projected, Bool(optional))
	}

	return RuntimeCall("create_record_type",
		Str(id.Namespace().String()), Str(id.Local().String()), Vector(decls...)), nil
}

func baseType(tag string) Expr {
	return RuntimeCall("create_base_type", Identifier(RuntimeModule+"::TypeTag::"+tag))
}
