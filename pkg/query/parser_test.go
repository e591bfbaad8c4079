package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatementLiterals(t *testing.T) {
	tests := []struct {
		name     string
		stmt     string
		wantVar  string
		wantExpr Node
	}{
		{
			name:     "integer",
			stmt:     "a = 1",
			wantVar:  "a",
			wantExpr: &IntegerLiteral{Value: 1},
		},
		{
			name:     "single quoted string",
			stmt:     "a = 'hello'",
			wantVar:  "a",
			wantExpr: &StringLiteral{Value: "hello"},
		},
		{
			name:     "double quoted string",
			stmt:     `a = "hello"`,
			wantVar:  "a",
			wantExpr: &StringLiteral{Value: "hello"},
		},
		{
			name:     "variable reference",
			stmt:     "RETURN = events",
			wantVar:  "RETURN",
			wantExpr: &VariableRef{Name: "events"},
		},
		{
			name:     "whitespace tolerated",
			stmt:     "  a   =   5  ",
			wantVar:  "a",
			wantExpr: &IntegerLiteral{Value: 5},
		},
		{
			name:    "empty list",
			stmt:    "a = []",
			wantVar: "a",
			wantExpr: &ListLiteral{},
		},
		{
			name:    "list of mixed values",
			stmt:    "a = [1, 'x', b]",
			wantVar: "a",
			wantExpr: &ListLiteral{Elements: []Node{
				&IntegerLiteral{Value: 1},
				&StringLiteral{Value: "x"},
				&VariableRef{Name: "b"},
			}},
		},
		{
			name:    "empty dict",
			stmt:    "a = {}",
			wantVar: "a",
			wantExpr: &DictLiteral{},
		},
		{
			name:    "dict with nested list",
			stmt:    `a = {"k": [1, 2], "n": 3}`,
			wantVar: "a",
			wantExpr: &DictLiteral{Entries: []DictEntry{
				{Key: "k", Value: &ListLiteral{Elements: []Node{
					&IntegerLiteral{Value: 1},
					&IntegerLiteral{Value: 2},
				}}},
				{Key: "n", Value: &IntegerLiteral{Value: 3}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := ParseStatement(tt.stmt)
			require.NoError(t, err)
			assert.Equal(t, tt.wantVar, st.Target)
			assert.Equal(t, tt.wantExpr, st.Expr)
		})
	}
}

func TestParseStatementCalls(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want *FunctionCall
	}{
		{
			name: "no arguments",
			stmt: "a = nop()",
			want: &FunctionCall{Name: "nop"},
		},
		{
			name: "string argument",
			stmt: `a = query_bucket("b")`,
			want: &FunctionCall{Name: "query_bucket", Args: []Node{
				&StringLiteral{Value: "b"},
			}},
		},
		{
			name: "mixed arguments",
			stmt: "a = f(1, 'x', v)",
			want: &FunctionCall{Name: "f", Args: []Node{
				&IntegerLiteral{Value: 1},
				&StringLiteral{Value: "x"},
				&VariableRef{Name: "v"},
			}},
		},
		{
			name: "nested call argument",
			stmt: "a = f(g(1))",
			want: &FunctionCall{Name: "f", Args: []Node{
				&FunctionCall{Name: "g", Args: []Node{&IntegerLiteral{Value: 1}}},
			}},
		},
		{
			name: "comma inside string argument",
			stmt: `a = f("x,y", 2)`,
			want: &FunctionCall{Name: "f", Args: []Node{
				&StringLiteral{Value: "x,y"},
				&IntegerLiteral{Value: 2},
			}},
		},
		{
			name: "trailing comma tolerated",
			stmt: "a = f(1, 2,)",
			want: &FunctionCall{Name: "f", Args: []Node{
				&IntegerLiteral{Value: 1},
				&IntegerLiteral{Value: 2},
			}},
		},
		{
			name: "dict argument",
			stmt: `a = f({"k": 1})`,
			want: &FunctionCall{Name: "f", Args: []Node{
				&DictLiteral{Entries: []DictEntry{{Key: "k", Value: &IntegerLiteral{Value: 1}}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := ParseStatement(tt.stmt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.Expr)
		})
	}
}

func TestParseStatementErrors(t *testing.T) {
	tests := []struct {
		name    string
		stmt    string
		wantErr string
	}{
		{name: "no equals sign", stmt: "events", wantErr: "invalid statement, expected an assignment"},
		{name: "empty rhs", stmt: "a =", wantErr: "nothing to assign"},
		{name: "empty lhs", stmt: "= 1", wantErr: "cannot assign to a non-variable"},
		{name: "integer lhs", stmt: "1 = 2", wantErr: "cannot assign to a non-variable"},
		{name: "string lhs", stmt: "'a' = 2", wantErr: "cannot assign to a non-variable"},
		{name: "junk after lhs", stmt: "a b = 1", wantErr: "invalid syntax for assignment variable"},
		{name: "junk after rhs", stmt: "a = 1 2", wantErr: "invalid syntax for assigned value"},
		{name: "junk between args", stmt: "a = f(1 2)", wantErr: "unexpected"},
		{name: "unterminated string arg", stmt: "a = f('x)", wantErr: "unmatched '('"},
		{name: "dict key not a string", stmt: "a = {1: 2}", wantErr: "dict key is not a string"},
		{name: "dict key without colon", stmt: `a = {"k" 1}`, wantErr: `dict key "k" is not followed by ':'`},
		{name: "dict missing value", stmt: `a = {"k":}`, wantErr: "dict expected a value, got nothing"},
		{name: "dict trailing comma", stmt: `a = {"k": 1,}`, wantErr: "dict expected a value, got nothing"},
		{name: "dict junk separator", stmt: `a = {"k": 1 "n": 2}`, wantErr: "unexpected"},
		{name: "list trailing comma", stmt: "a = [1,]", wantErr: "list expected a value, got nothing"},
		{name: "list junk separator", stmt: "a = [1 2]", wantErr: "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStatement(tt.stmt)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var qerr *Error
			assert.ErrorAs(t, err, &qerr)
		})
	}
}

// The statement splits on the first '=' only, so strings containing '='
// on the right side parse fine.
func TestParseStatementFirstEquals(t *testing.T) {
	st, err := ParseStatement("a = 'x=y'")
	require.NoError(t, err)
	assert.Equal(t, &StringLiteral{Value: "x=y"}, st.Expr)
}
