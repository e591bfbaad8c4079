package query

import (
	"context"
	"errors"

	"github.com/eventlight-labs/eventql/pkg/datastore"
)

// Eval reduces an AST node to a runtime value against the given namespace
// and datastore handle. Function calls may mutate the namespace through the
// invoked callable; argument expressions are evaluated left to right, so a
// later argument observes mutations made while evaluating an earlier one.
func Eval(ctx context.Context, n Node, ds datastore.Datastore, ns Namespace, reg *Registry) (Value, error) {
	switch n := n.(type) {
	case *IntegerLiteral:
		return Int(n.Value), nil

	case *StringLiteral:
		return Str(n.Value), nil

	case *VariableRef:
		// Names are late bound: an unbound reference yields Null
		// rather than an error.
		return ns.Lookup(n.Name), nil

	case *FunctionCall:
		fn, ok := reg.Lookup(n.Name)
		if !ok {
			return nil, errorf("tried to call function %q which doesn't exist", n.Name)
		}
		args := make([]Value, 0, len(n.Args))
		for _, a := range n.Args {
			v, err := Eval(ctx, a, ds, ns, reg)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		v, err := fn(ctx, ds, ns, args)
		if err != nil {
			var arity *ArityError
			if errors.As(err, &arity) {
				return nil, errorf("tried to call function %s with invalid number of arguments", n.Name)
			}
			return nil, err
		}
		return v, nil

	case *DictLiteral:
		out := make(Dict, len(n.Entries))
		for _, e := range n.Entries {
			v, err := Eval(ctx, e.Value, ds, ns, reg)
			if err != nil {
				return nil, err
			}
			// Duplicate keys: last write wins.
			out[e.Key] = v
		}
		return out, nil

	case *ListLiteral:
		out := make(List, 0, len(n.Elements))
		for _, e := range n.Elements {
			v, err := Eval(ctx, e, ds, ns, reg)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	return nil, errorf("cannot evaluate node of type %T", n)
}

// ExecStatement evaluates a statement's expression and binds the result
// into the namespace under the statement's target name.
func ExecStatement(ctx context.Context, st *Statement, ds datastore.Datastore, ns Namespace, reg *Registry) error {
	v, err := Eval(ctx, st.Expr, ds, ns, reg)
	if err != nil {
		return err
	}
	ns.Bind(st.Target, v)
	return nil
}
