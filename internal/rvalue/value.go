// Package rvalue implements the tagged value tree that carries parameter
// data between the merger and the interpolator: scalars, ordered
// mappings, sequences, deferred merge lists (ValueList), and parsed
// ${...} references, each annotated with its source origin and the
// overwrite/constant key-prefix flags.
//
// Grounded on original_source/src/types/value.rs's Value enum, adapted
// from a Rust sum type to a Go tagged struct (Kind discriminant plus the
// field valid for that kind) since Go has no algebraic data types.
package rvalue

import (
	"fmt"

	"github.com/opmodel/reclass/internal/refparse"
)

// Kind discriminates the variant a Value currently holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTimestamp
	KindMapping
	KindSequence
	KindValueList
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTimestamp:
		return "timestamp"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindValueList:
		return "valuelist"
	case KindReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Origin records where a Value came from, for diagnostics only.
type Origin struct {
	File string
	Line int
}

func (o Origin) String() string {
	if o.File == "" {
		return ""
	}
	if o.Line > 0 {
		return fmt.Sprintf("%s:%d", o.File, o.Line)
	}
	return o.File
}

// Value is the tagged variant described in spec section 3. Exactly the
// fields relevant to Kind are meaningful; the rest are zero.
type Value struct {
	Kind Kind

	Bool    bool
	Int     int64
	Float   float64
	Str     string
	RawTime string // timestamp, kept as its canonical string form

	Map *Mapping
	Seq []*Value

	// ValueListItems holds the pending contributions for KindValueList,
	// in the order they were merged (left = earlier, right = later).
	ValueListItems []*Value

	// Ref holds the parsed reference expression for KindReference.
	Ref *refparse.Reference

	Origin Origin

	// Overwrite records that this value's key had a "~" prefix at the
	// point it was contributed: the merger replaces rather than merges.
	Overwrite bool

	// Constant records that this value's key had a "=" prefix: once set,
	// later contributions may not replace it with a different value.
	Constant bool
}

// Null returns the null scalar value.
func Null() *Value { return &Value{Kind: KindNull} }

// Bool returns a boolean scalar value.
func Bool(b bool) *Value { return &Value{Kind: KindBool, Bool: b} }

// Int returns an integer scalar value.
func Int(i int64) *Value { return &Value{Kind: KindInt, Int: i} }

// Float returns a floating-point scalar value.
func Float(f float64) *Value { return &Value{Kind: KindFloat, Float: f} }

// String returns a string scalar value.
func String(s string) *Value { return &Value{Kind: KindString, Str: s} }

// Timestamp returns a timestamp scalar value, stored in its canonical
// string form (the resolver never performs date arithmetic on it).
func Timestamp(s string) *Value { return &Value{Kind: KindTimestamp, RawTime: s} }

// Sequence returns a sequence value.
func Sequence(items []*Value) *Value { return &Value{Kind: KindSequence, Seq: items} }

// Reference returns a reference value wrapping a parsed expression.
func Reference(ref *refparse.Reference) *Value { return &Value{Kind: KindReference, Ref: ref} }

// ValueList returns a ValueList value pending post-interpolation reduction.
func ValueList(items []*Value) *Value { return &Value{Kind: KindValueList, ValueListItems: items} }

// IsScalar reports whether v holds one of the plain scalar kinds.
func (v *Value) IsScalar() bool {
	switch v.Kind {
	case KindNull, KindBool, KindInt, KindFloat, KindString, KindTimestamp:
		return true
	default:
		return false
	}
}

// IsContainer reports whether v is a Mapping or Sequence.
func (v *Value) IsContainer() bool {
	return v.Kind == KindMapping || v.Kind == KindSequence
}

// ScalarString renders a scalar Value to its canonical string form, used
// when a resolved reference is substituted into surrounding literal text.
func (v *Value) ScalarString() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindString:
		return v.Str
	case KindTimestamp:
		return v.RawTime
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Clone returns a deep copy of v.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	c := *v
	if v.Map != nil {
		c.Map = v.Map.Clone()
	}
	if v.Seq != nil {
		c.Seq = make([]*Value, len(v.Seq))
		for i, e := range v.Seq {
			c.Seq[i] = e.Clone()
		}
	}
	if v.ValueListItems != nil {
		c.ValueListItems = make([]*Value, len(v.ValueListItems))
		for i, e := range v.ValueListItems {
			c.ValueListItems[i] = e.Clone()
		}
	}
	return &c
}

// Equal reports structural equality, ignoring Origin and the
// Overwrite/Constant flags (which describe provenance, not content).
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	case KindString:
		return a.Str == b.Str
	case KindTimestamp:
		return a.RawTime == b.RawTime
	case KindSequence, KindValueList:
		ai, bi := a.Seq, b.Seq
		if a.Kind == KindValueList {
			ai, bi = a.ValueListItems, b.ValueListItems
		}
		if len(ai) != len(bi) {
			return false
		}
		for i := range ai {
			if !Equal(ai[i], bi[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		return a.Map.Equal(b.Map)
	case KindReference:
		return a.Ref != nil && b.Ref != nil && a.Ref.Source == b.Ref.Source
	default:
		return false
	}
}
