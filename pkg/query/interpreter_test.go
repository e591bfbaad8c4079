package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlight-labs/eventql/pkg/datastore"
)

func testNamespace() Namespace {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return NewNamespace("test", start, start.Add(24*time.Hour))
}

func TestEvalLiterals(t *testing.T) {
	ctx := context.Background()
	ns := testNamespace()
	reg := NewRegistry()

	v, err := Eval(ctx, &IntegerLiteral{Value: 42}, nil, ns, reg)
	require.NoError(t, err)
	assert.Equal(t, Int(42), v)

	v, err = Eval(ctx, &StringLiteral{Value: "hi"}, nil, ns, reg)
	require.NoError(t, err)
	assert.Equal(t, Str("hi"), v)
}

func TestEvalVariableRef(t *testing.T) {
	ctx := context.Background()
	ns := testNamespace()
	reg := NewRegistry()

	ns.Bind("x", Int(7))
	v, err := Eval(ctx, &VariableRef{Name: "x"}, nil, ns, reg)
	require.NoError(t, err)
	assert.Equal(t, Int(7), v)

	v, err = Eval(ctx, &VariableRef{Name: "missing"}, nil, ns, reg)
	require.NoError(t, err)
	assert.Equal(t, Null{}, v)
}

// Reading an unbound variable yields Null without creating a binding.
func TestVariableReadDoesNotBind(t *testing.T) {
	ctx := context.Background()
	ns := testNamespace()
	reg := NewRegistry()

	before := len(ns)
	_, err := Eval(ctx, &VariableRef{Name: "ghost"}, nil, ns, reg)
	require.NoError(t, err)
	assert.Len(t, ns, before)
	_, bound := ns["ghost"]
	assert.False(t, bound)
}

func TestEvalFunctionCall(t *testing.T) {
	ctx := context.Background()
	ns := testNamespace()

	reg := NewRegistry()
	reg.Register("add", func(_ context.Context, _ datastore.Datastore, _ Namespace, args []Value) (Value, error) {
		if len(args) != 2 {
			return nil, &ArityError{Func: "add", Want: "exactly 2", Got: len(args)}
		}
		a, aok := args[0].(Int)
		b, bok := args[1].(Int)
		if !aok || !bok {
			return nil, &ArityError{Func: "add", Want: "integers", Got: len(args)}
		}
		return a + b, nil
	})
	reg.Register("boom", func(_ context.Context, _ datastore.Datastore, _ Namespace, _ []Value) (Value, error) {
		return nil, errors.New("datastore exploded")
	})

	t.Run("arguments evaluate before the call", func(t *testing.T) {
		ns.Bind("x", Int(3))
		call := &FunctionCall{Name: "add", Args: []Node{
			&VariableRef{Name: "x"},
			&IntegerLiteral{Value: 4},
		}}
		v, err := Eval(ctx, call, nil, ns, reg)
		require.NoError(t, err)
		assert.Equal(t, Int(7), v)
	})

	t.Run("unknown function", func(t *testing.T) {
		_, err := Eval(ctx, &FunctionCall{Name: "nope"}, nil, ns, reg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `tried to call function "nope" which doesn't exist`)
	})

	t.Run("arity error is translated", func(t *testing.T) {
		_, err := Eval(ctx, &FunctionCall{Name: "add", Args: []Node{&IntegerLiteral{Value: 1}}}, nil, ns, reg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tried to call function add with invalid number of arguments")
	})

	t.Run("wrong argument kind is translated too", func(t *testing.T) {
		call := &FunctionCall{Name: "add", Args: []Node{
			&StringLiteral{Value: "a"},
			&IntegerLiteral{Value: 1},
		}}
		_, err := Eval(ctx, call, nil, ns, reg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid number of arguments")
	})

	t.Run("other function errors propagate unchanged", func(t *testing.T) {
		_, err := Eval(ctx, &FunctionCall{Name: "boom"}, nil, ns, reg)
		require.Error(t, err)
		assert.EqualError(t, err, "datastore exploded")
	})
}

func TestEvalCompoundLiterals(t *testing.T) {
	ctx := context.Background()
	ns := testNamespace()
	reg := NewRegistry()

	t.Run("list preserves order", func(t *testing.T) {
		node := &ListLiteral{Elements: []Node{
			&IntegerLiteral{Value: 1},
			&StringLiteral{Value: "two"},
			&IntegerLiteral{Value: 3},
		}}
		v, err := Eval(ctx, node, nil, ns, reg)
		require.NoError(t, err)
		assert.Equal(t, List{Int(1), Str("two"), Int(3)}, v)
	})

	t.Run("dict duplicate keys last write wins", func(t *testing.T) {
		node := &DictLiteral{Entries: []DictEntry{
			{Key: "k", Value: &IntegerLiteral{Value: 1}},
			{Key: "k", Value: &IntegerLiteral{Value: 2}},
		}}
		v, err := Eval(ctx, node, nil, ns, reg)
		require.NoError(t, err)
		assert.Equal(t, Dict{"k": Int(2)}, v)
	})

	t.Run("nested evaluation", func(t *testing.T) {
		ns.Bind("x", Int(9))
		node := &DictLiteral{Entries: []DictEntry{
			{Key: "vals", Value: &ListLiteral{Elements: []Node{&VariableRef{Name: "x"}}}},
		}}
		v, err := Eval(ctx, node, nil, ns, reg)
		require.NoError(t, err)
		assert.Equal(t, Dict{"vals": List{Int(9)}}, v)
	})
}

func TestExecStatementBinds(t *testing.T) {
	ctx := context.Background()
	ns := testNamespace()
	reg := NewRegistry()

	st, err := ParseStatement("answer = 42")
	require.NoError(t, err)
	require.NoError(t, ExecStatement(ctx, st, nil, ns, reg))
	assert.Equal(t, Int(42), ns.Lookup("answer"))

	// Rebinding replaces the prior value.
	st, err = ParseStatement("answer = 'changed'")
	require.NoError(t, err)
	require.NoError(t, ExecStatement(ctx, st, nil, ns, reg))
	assert.Equal(t, Str("changed"), ns.Lookup("answer"))
}
