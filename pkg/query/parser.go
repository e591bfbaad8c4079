// Package query implements the EventQL query language: a sequence of
// `name = expression;` statements evaluated against an event datastore,
// producing the value bound to RETURN.
//
// # Usage
//
//	result, err := query.Run(ctx, "daily summary", script, start, end, ds, query.StdRegistry())
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
//	script     := (statement ";")*
//	statement  := IDENT "=" expr
//	expr       := string | integer | funccall | dict | list | IDENT
//	funccall   := IDENT "(" [expr ("," expr)*] ")"
//	dict       := "{" [string ":" expr ("," string ":" expr)*] "}"
//	list       := "[" [expr ("," expr)*] "]"
//	string     := "'" chars "'" | '"' chars '"'
//	integer    := digit+
//	IDENT      := (alpha|"_") (alpha|digit|"_")*
package query

import (
	"strconv"
	"strings"
)

// ParseStatement parses one `name = expression` statement. The left side
// must be exactly one variable reference and the right side exactly one
// expression, each consuming its whole substring.
func ParseStatement(stmt string) (*Statement, error) {
	eq := strings.IndexByte(stmt, '=')
	if eq < 0 {
		return nil, errorf("invalid statement, expected an assignment: %s", strings.TrimSpace(stmt))
	}
	lhs := strings.TrimSpace(stmt[:eq])
	rhs := strings.TrimSpace(stmt[eq+1:])
	if rhs == "" {
		return nil, errorf("nothing to assign")
	}
	if lhs == "" {
		return nil, errorf("cannot assign to a non-variable")
	}

	vlex, rest, err := nextLexeme(lhs)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, errorf("invalid syntax for assignment variable: %s", lhs)
	}
	if vlex.kind != tkVariable {
		return nil, errorf("cannot assign to a non-variable: %s", lhs)
	}

	elex, rest, err := nextLexeme(rhs)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, errorf("invalid syntax for assigned value: %s", rhs)
	}
	expr, err := parseLexeme(elex)
	if err != nil {
		return nil, err
	}

	return &Statement{Target: vlex.text, Expr: expr}, nil
}

// parseLexeme turns a classified lexeme into an AST node, recursing into
// sub-spans for compound lexemes.
func parseLexeme(lex lexeme) (Node, error) {
	switch lex.kind {
	case tkInteger:
		n, err := strconv.ParseInt(lex.text, 10, 64)
		if err != nil {
			return nil, errorf("invalid integer literal: %s", lex.text)
		}
		return &IntegerLiteral{Value: n}, nil
	case tkString:
		return &StringLiteral{Value: unquote(lex.text)}, nil
	case tkVariable:
		return &VariableRef{Name: lex.text}, nil
	case tkCall:
		return parseCall(lex.text)
	case tkDict:
		return parseDict(lex.text)
	case tkList:
		return parseList(lex.text)
	}
	return nil, errorf("unrecognized token: %s", lex.text)
}

// parseCall splits a call lexeme into the function name and its arguments.
// Arguments are comma-separated expressions; the scanner has already
// consumed any nested structure whole, so the comma found after an argument
// is always a top-level separator.
func parseCall(text string) (Node, error) {
	open := strings.IndexByte(text, '(')
	call := &FunctionCall{Name: text[:open]}

	rest := strings.TrimSpace(text[open+1 : len(text)-1])
	for rest != "" {
		lex, rem, err := nextLexeme(rest)
		if err != nil {
			return nil, err
		}
		arg, err := parseLexeme(lex)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		rem = strings.TrimSpace(rem)
		if rem == "" {
			break
		}
		if rem[0] != ',' {
			return nil, errorf("unexpected %q in arguments of %s", rem, call.Name)
		}
		rest = strings.TrimSpace(rem[1:])
	}
	return call, nil
}

// parseDict parses the interior of a dict lexeme as `key : value` pairs.
// Keys must be string literals, never expressions that evaluate to strings.
func parseDict(text string) (Node, error) {
	d := &DictLiteral{}

	rest := strings.TrimSpace(text[1 : len(text)-1])
	for rest != "" {
		klex, rem, err := nextLexeme(rest)
		if err != nil {
			return nil, err
		}
		if klex.kind != tkString {
			return nil, errorf("dict key is not a string: %s", klex.text)
		}
		key := unquote(klex.text)

		rem = strings.TrimSpace(rem)
		if rem == "" || rem[0] != ':' {
			return nil, errorf("dict key %q is not followed by ':'", key)
		}
		rem = strings.TrimSpace(rem[1:])
		if rem == "" {
			return nil, errorf("dict expected a value, got nothing")
		}
		vlex, rem, err := nextLexeme(rem)
		if err != nil {
			return nil, err
		}
		val, err := parseLexeme(vlex)
		if err != nil {
			return nil, err
		}
		d.Entries = append(d.Entries, DictEntry{Key: key, Value: val})

		rest = strings.TrimSpace(rem)
		if rest == "" {
			break
		}
		if rest[0] != ',' {
			return nil, errorf("unexpected %q in dict", rest)
		}
		rest = strings.TrimSpace(rest[1:])
		if rest == "" {
			return nil, errorf("dict expected a value, got nothing")
		}
	}
	return d, nil
}

// parseList parses the interior of a list lexeme as comma-separated
// expressions.
func parseList(text string) (Node, error) {
	l := &ListLiteral{}

	rest := strings.TrimSpace(text[1 : len(text)-1])
	for rest != "" {
		lex, rem, err := nextLexeme(rest)
		if err != nil {
			return nil, err
		}
		elem, err := parseLexeme(lex)
		if err != nil {
			return nil, err
		}
		l.Elements = append(l.Elements, elem)

		rest = strings.TrimSpace(rem)
		if rest == "" {
			break
		}
		if rest[0] != ',' {
			return nil, errorf("unexpected %q in list", rest)
		}
		rest = strings.TrimSpace(rest[1:])
		if rest == "" {
			return nil, errorf("list expected a value, got nothing")
		}
	}
	return l, nil
}

// unquote strips the delimiting quotes from a string lexeme.
func unquote(s string) string {
	return s[1 : len(s)-1]
}
