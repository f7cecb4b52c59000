// Package dissect counts packet field values in both time and depth.
//
// A dissection walks every decoded protocol layer of every packet and
// accumulates, per time bucket, how often each value was seen at each
// dot-delimited field path (e.g. "Ethernet.IP.TCP.flags"). Two dissections
// can then be compared to surface structural differences between captures.
package dissect

import (
	"encoding/hex"
	"strconv"
	"unicode/utf8"
)

// Kind discriminates the closed set of field value shapes a layer may emit.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindStr
	KindBytes
	KindNested // a substructure with its own field list
	KindList   // repeated values, walked element by element
	KindNamed  // a named sub-item, e.g. one TCP option; counted by name
)

// Value is a tagged variant holding one decoded field value. Exactly the
// fields relevant to Kind are set; the visitor switches exhaustively on Kind
// so unknown shapes cannot slip through undetected.
type Value struct {
	Kind   Kind
	Int    int64
	Float  float64
	Str    string
	Bytes  []byte
	Name   string  // KindNamed
	Fields []Field // KindNested
	Items  []Value // KindList
}

// Field pairs a field name with its decoded value.
type Field struct {
	Name  string
	Value Value
}

// Int returns an integer Value.
func Int(v int64) Value { return Value{Kind: KindInt, Int: v} }

// Float returns a floating point Value.
func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// Str returns a string Value.
func Str(v string) Value { return Value{Kind: KindStr, Str: v} }

// Bytes returns a raw byte sequence Value.
func Bytes(v []byte) Value { return Value{Kind: KindBytes, Bytes: v} }

// Named returns a named sub-item Value such as a single TCP option.
func Named(name string, v Value) Value {
	v2 := v
	v2.Kind = KindNamed
	v2.Name = name
	return v2
}

// Nested returns a substructure Value carrying its own field list.
func Nested(fields []Field) Value { return Value{Kind: KindNested, Fields: fields} }

// List returns a repeated Value.
func List(items []Value) Value { return Value{Kind: KindList, Items: items} }

// Normalize renders a scalar Value into the comparable string form stored in
// a Dissection. Byte sequences that are not valid UTF-8 become hex strings
// rather than being dropped.
func (v Value) Normalize() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindStr:
		return v.Str
	case KindBytes:
		return NormalizeBytes(v.Bytes)
	case KindNamed:
		return v.Name
	default:
		return ""
	}
}

// Scalar reports whether the value is directly countable without recursion.
func (v Value) Scalar() bool {
	switch v.Kind {
	case KindInt, KindFloat, KindStr, KindBytes:
		return true
	}
	return false
}

// NormalizeBytes converts a raw byte sequence to its stored string form:
// the UTF-8 text itself when valid, otherwise "0x" plus the hex encoding.
func NormalizeBytes(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return "0x" + hex.EncodeToString(b)
}
