package query

import (
	"context"
	"sort"

	"github.com/eventlight-labs/eventql/pkg/datastore"
)

// Func is a callable query function. It receives the datastore handle, the
// run's namespace and the already-evaluated argument values, in script
// order. A Func signals a wrong argument count or shape by returning an
// *ArityError; any other error propagates to the caller unchanged.
type Func func(ctx context.Context, ds datastore.Datastore, ns Namespace, args []Value) (Value, error)

// Registry maps function names to callables. Build it once, then treat it
// as immutable: the interpreter only reads it, so a single registry can be
// shared by concurrent runs.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register adds fn under name, replacing any existing entry.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns all registered function names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
