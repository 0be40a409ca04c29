package grammar

// Kind enumerates the type shapes the glue compiler knows how to handle.
// The enumeration is closed: code that dispatches on it (most notably the
// type projector) handles every kind explicitly and fails on anything it
// does not support.
type Kind int

const (
	KindInvalid Kind = iota
	KindAddress
	KindBool
	KindBytes
	KindEnum
	KindInterval
	KindMap
	KindOptional
	KindPort
	KindReal
	KindSet
	KindSignedInteger
	KindString
	KindStruct
	KindTime
	KindTuple
	KindUnit
	KindUnsignedInteger
	KindVector
	KindVoid
)

var kindNames = map[Kind]string{
	KindInvalid:         "invalid",
	KindAddress:         "address",
	KindBool:            "bool",
	KindBytes:           "bytes",
	KindEnum:            "enum",
	KindInterval:        "interval",
	KindMap:             "map",
	KindOptional:        "optional",
	KindPort:            "port",
	KindReal:            "real",
	KindSet:             "set",
	KindSignedInteger:   "int",
	KindString:          "string",
	KindStruct:          "struct",
	KindTime:            "time",
	KindTuple:           "tuple",
	KindUnit:            "unit",
	KindUnsignedInteger: "uint",
	KindVector:          "vector",
	KindVoid:            "void",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// EnumLabel is one label of an enum type.
type EnumLabel struct {
	ID    ID
	Value int64
}

// Field is a named member of a struct, tuple, or unit type.
type Field struct {
	ID       ID
	Type     *Type
	Optional bool

	// Transient unit items carry no value after parsing and are skipped
	// when the unit is projected into a host record.
	Transient bool
}

// Type is a grammar-level type. Which members are meaningful depends on
// Kind: Elem for optional/set/vector, Key+Elem for map, Labels for enum,
// Fields for struct/tuple/unit.
type Type struct {
	Kind   Kind
	ID     ID // set for named types (enum, struct, unit)
	Elem   *Type
	Key    *Type
	Labels []EnumLabel
	Fields []Field
}

// Base returns a new scalar type of the given kind.
func Base(k Kind) *Type { return &Type{Kind: k} }

// Optional wraps t in an optional.
func Optional(t *Type) *Type { return &Type{Kind: KindOptional, Elem: t} }

// Vector returns a vector of elem.
func Vector(elem *Type) *Type { return &Type{Kind: KindVector, Elem: elem} }

// Set returns a set of elem.
func Set(elem *Type) *Type { return &Type{Kind: KindSet, Elem: elem} }

// Map returns a map from key to value.
func Map(key, value *Type) *Type { return &Type{Kind: KindMap, Key: key, Elem: value} }

// IsUnit reports whether t is a unit type.
func (t *Type) IsUnit() bool { return t != nil && t.Kind == KindUnit }

// RecordFields returns the unit items that materialize as record fields on
// the host side. Transient items and void-typed items are skipped; plain
// parse fields are always optional on the host side since parsing may not
// have reached them.
func (t *Type) RecordFields() []Field {
	var fields []Field
	for _, f := range t.Fields {
		if f.Transient || f.Type == nil || f.Type.Kind == KindVoid {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}
