package query

import "time"

// Namespace holds the name-to-value bindings of one query run. A run owns
// its namespace exclusively for its duration; create a fresh one per run
// and discard it once the result is extracted.
type Namespace map[string]Value

// NewNamespace returns a namespace seeded with the run constants and
// execution metadata. Timestamps are bound as RFC 3339 text.
func NewNamespace(name string, start, end time.Time) Namespace {
	return Namespace{
		"TRUE":      Int(1),
		"FALSE":     Int(0),
		"NAME":      Str(name),
		"STARTTIME": Str(start.Format(time.RFC3339Nano)),
		"ENDTIME":   Str(end.Format(time.RFC3339Nano)),
	}
}

// Lookup returns the value bound to name, or Null if the name is unbound.
// Lookup never mutates the namespace.
func (ns Namespace) Lookup(name string) Value {
	if v, ok := ns[name]; ok {
		return v
	}
	return Null{}
}

// Bind sets name to v, replacing any prior binding.
func (ns Namespace) Bind(name string, v Value) {
	ns[name] = v
}

// Return extracts the run result from the RETURN binding.
func (ns Namespace) Return() (Value, error) {
	v, ok := ns["RETURN"]
	if !ok {
		return nil, errorf("query doesn't assign the RETURN variable, nothing to return")
	}
	return v, nil
}
