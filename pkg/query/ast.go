package query

// Node is an AST node produced by the parser.
type Node interface {
	node()
}

// IntegerLiteral is a decimal integer literal.
type IntegerLiteral struct {
	Value int64
}

// StringLiteral is a quoted string literal.
type StringLiteral struct {
	Value string
}

// VariableRef references a namespace binding by name. The name is resolved
// at evaluation time, not at parse time.
type VariableRef struct {
	Name string
}

// FunctionCall invokes a registered query function with evaluated arguments.
type FunctionCall struct {
	Name string
	Args []Node
}

// DictEntry is one key-value pair of a DictLiteral. Keys are string
// literals, never expressions.
type DictEntry struct {
	Key   string
	Value Node
}

// DictLiteral is a `{...}` literal with ordered entries.
type DictLiteral struct {
	Entries []DictEntry
}

// ListLiteral is a `[...]` literal with ordered elements.
type ListLiteral struct {
	Elements []Node
}

func (*IntegerLiteral) node() {}
func (*StringLiteral) node()  {}
func (*VariableRef) node()    {}
func (*FunctionCall) node()   {}
func (*DictLiteral) node()    {}
func (*ListLiteral) node()    {}

// Statement is one parsed `name = expression` assignment.
type Statement struct {
	Target string
	Expr   Node
}
