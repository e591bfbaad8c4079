package query

// Kind identifies the runtime type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindStr
	KindList
	KindDict
	KindHost
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "integer"
	case KindStr:
		return "string"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindHost:
		return "host value"
	}
	return "unknown"
}

// Value is a runtime value flowing through evaluation. The set of
// implementations is closed: Null, Int, Str, List, Dict and Host.
// There is no implicit coercion between kinds.
type Value interface {
	Kind() Kind
	// Native unwraps the value recursively into plain Go types,
	// suitable for JSON encoding.
	Native() any
}

// Null is the undefined sentinel, produced by referencing an unbound
// variable.
type Null struct{}

func (Null) Kind() Kind  { return KindNull }
func (Null) Native() any { return nil }

// Int is an integer value.
type Int int64

func (Int) Kind() Kind    { return KindInt }
func (v Int) Native() any { return int64(v) }

// Str is a string value.
type Str string

func (Str) Kind() Kind    { return KindStr }
func (v Str) Native() any { return string(v) }

// List is an ordered sequence of values.
type List []Value

func (List) Kind() Kind { return KindList }

func (v List) Native() any {
	out := make([]any, len(v))
	for i, e := range v {
		out[i] = e.Native()
	}
	return out
}

// Dict maps string keys to values.
type Dict map[string]Value

func (Dict) Kind() Kind { return KindDict }

func (v Dict) Native() any {
	out := make(map[string]any, len(v))
	for k, e := range v {
		out[k] = e.Native()
	}
	return out
}

// Host wraps an opaque host value returned by a query function, such as a
// slice of events. The interpreter passes it through untouched.
type Host struct {
	V any
}

func (Host) Kind() Kind    { return KindHost }
func (v Host) Native() any { return v.V }
