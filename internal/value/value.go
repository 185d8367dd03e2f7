// Package value implements the recursive tagged value/type trees the
// replay engine moves around: variable writes, tracepoint results, and
// evaluator operands all share this shape. It mirrors the original Rust
// engine's value.rs field for field.
package value

import "fmt"

// Kind enumerates every value/type tag the engine understands.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindCString
	KindChar
	KindSeq
	KindSet
	KindHashSet
	KindOrderedSet
	KindArray
	KindVarargs
	KindInstance
	KindRef
	KindPointer
	KindTuple
	KindStruct
	KindUnion
	KindVariant
	KindEnum8
	KindEnum16
	KindEnum32
	KindTableKind
	KindFunctionKind
	KindTypeValue
	KindHtml
	KindRaw
	KindError
	KindNone
	KindNonExpanded
	KindAny
	KindSlice
	KindLiteral
	KindRecursion
)

func (k Kind) String() string {
	names := [...]string{
		"Int", "Float", "Bool", "String", "CString", "Char", "Seq", "Set",
		"HashSet", "OrderedSet", "Array", "Varargs", "Instance", "Ref",
		"Pointer", "Tuple", "Struct", "Union", "Variant", "Enum8", "Enum16",
		"Enum32", "TableKind", "FunctionKind", "TypeValue", "Html", "Raw",
		"Error", "None", "NonExpanded", "Any", "Slice", "Literal", "Recursion",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "Unknown"
	}
	return names[k]
}

// Type is a recursive type descriptor.
type Type struct {
	Kind     Kind     `json:"kind"`
	LangType string   `json:"langType"`
	CType    string   `json:"cType"`
	Labels   []string `json:"labels,omitempty"`
}

// NewType builds a Type with both LangType and CType set to langType,
// matching the original Type::new convenience constructor.
func NewType(kind Kind, langType string) Type {
	return Type{Kind: kind, LangType: langType, CType: langType}
}

// Value mirrors Type plus payload fields for each kind it can carry.
// Only the field(s) relevant to Kind are meaningful; the rest are zero.
type Value struct {
	Kind     Kind    `json:"kind"`
	I        string  `json:"i,omitempty"`
	F        string  `json:"f,omitempty"`
	B        bool    `json:"b,omitempty"`
	C        string  `json:"c,omitempty"`
	Text     string  `json:"text,omitempty"`
	CText    string  `json:"cText,omitempty"`
	Elements []Value `json:"elements,omitempty"`
	Msg      string  `json:"msg,omitempty"`
	R        string  `json:"r,omitempty"`
	// RecursionBackID carries the id of the ancestor value this value
	// recurses into, for Kind == KindRecursion: cycles are represented by
	// id, never by a traversal-visible pointer cycle (see spec §9).
	RecursionBackID int64 `json:"recursionBackId,omitempty"`
	Typ             Type  `json:"typ"`
}

// New builds a Value carrying the given kind/type and no payload — callers
// set the relevant payload field afterward.
func New(kind Kind, typ Type) Value {
	return Value{Kind: kind, Typ: typ}
}

// Error builds a Kind=Error value carrying msg, the shape the tracepoint
// interpreter and evaluator propagate on failure.
func Error(msg string) Value {
	return Value{Kind: KindError, Msg: msg, Typ: NewType(KindError, "error")}
}

// Int builds a Kind=Int value.
func Int(i int64) Value {
	return Value{Kind: KindInt, I: fmt.Sprintf("%d", i), Typ: NewType(KindInt, "int")}
}

// Bool builds a Kind=Bool value.
func Bool(b bool) Value {
	return Value{Kind: KindBool, B: b, Typ: NewType(KindBool, "bool")}
}

// Float builds a Kind=Float value.
func Float(f float64) Value {
	return Value{Kind: KindFloat, F: fmt.Sprintf("%g", f), Typ: NewType(KindFloat, "float")}
}

// Str builds a Kind=String value.
func Str(s string) Value {
	return Value{Kind: KindString, Text: s, Typ: NewType(KindString, "string")}
}

// IsError reports whether v is an error-kind value.
func (v Value) IsError() bool { return v.Kind == KindError }

// listRepr renders Elements comma-joined, used by TextRepr for Seq/Struct.
func (v Value) listRepr() string {
	out := ""
	for i, el := range v.Elements {
		out += el.TextRepr()
		if i < len(v.Elements)-1 {
			out += ", "
		}
	}
	return out
}

// TextRepr renders a human-readable form of v, mirroring the original
// engine's Value::text_repr used for tracepoint log output and REPL display.
func (v Value) TextRepr() string {
	switch v.Kind {
	case KindInt:
		return v.I
	case KindFloat:
		return v.F
	case KindString:
		return fmt.Sprintf("%q", v.Text)
	case KindCString:
		return fmt.Sprintf("%q", v.CText)
	case KindChar:
		return fmt.Sprintf("'%s'", v.C)
	case KindBool:
		if v.B {
			return "true"
		}
		return "false"
	case KindSeq, KindArray, KindSlice:
		return "[" + v.listRepr() + "]"
	case KindStruct, KindTuple:
		return "(" + v.listRepr() + ")"
	case KindRaw:
		return v.R
	case KindError:
		return fmt.Sprintf("<error: %s>", v.Msg)
	case KindNone:
		return "nil"
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}
