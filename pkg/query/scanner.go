package query

import (
	"strings"
	"unicode"
)

// tokenKind classifies a lexeme by the grammar production that starts it.
type tokenKind int

const (
	tkString tokenKind = iota
	tkInteger
	tkCall
	tkDict
	tkList
	tkVariable
)

// lexeme is the raw substring recognized as one grammar production, prior
// to recursive parsing into an AST node. Compound lexemes (calls, dicts,
// lists) always include their nested structure whole: the scanner tracks
// bracket depth and quote state in a single pass, so a lexeme boundary can
// never fall inside a nested quoted or bracketed span. The parser's
// top-level comma search depends on this guarantee.
type lexeme struct {
	kind tokenKind
	text string
}

// nextLexeme classifies the leading token of input and returns the lexeme
// together with the unconsumed remainder. Productions are tried in fixed
// priority order: string, integer, function call, dict, list, variable.
// A function call is distinguished from a variable by the '(' that follows
// the identifier.
func nextLexeme(input string) (lexeme, string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return lexeme{}, "", errorf("expected a value, got nothing")
	}

	switch c := s[0]; {
	case c == '\'' || c == '"':
		return scanString(s)
	case isDigit(c):
		return scanInteger(s)
	case isIdentStart(c):
		return scanIdentOrCall(s)
	case c == '{':
		return scanBracketed(s, '{', '}', tkDict)
	case c == '[':
		return scanBracketed(s, '[', ']', tkList)
	}
	return lexeme{}, "", errorf("syntax error: %s", s)
}

// scanString scans a quoted string literal. The lexeme runs to the next
// quote character identical to the opening one; there is no escaping.
func scanString(s string) (lexeme, string, error) {
	quote := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] == quote {
			return lexeme{tkString, s[:i+1]}, s[i+1:], nil
		}
	}
	return lexeme{}, "", errorf("unterminated string: %s", s)
}

// scanInteger scans a maximal run of decimal digits.
func scanInteger(s string) (lexeme, string, error) {
	i := 1
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return lexeme{tkInteger, s[:i]}, s[i:], nil
}

// scanIdentOrCall scans a maximal identifier. If a '(' follows immediately
// the lexeme is a function call extending to the matching ')'; otherwise it
// is a variable reference.
func scanIdentOrCall(s string) (lexeme, string, error) {
	i := 1
	for i < len(s) && isIdentChar(s[i]) {
		i++
	}
	if i == len(s) || s[i] != '(' {
		return lexeme{tkVariable, s[:i]}, s[i:], nil
	}

	depth := 0
	var quote byte
	for j := i; j < len(s); j++ {
		c := s[j]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return lexeme{tkCall, s[:j+1]}, s[j+1:], nil
			}
		}
	}
	return lexeme{}, "", errorf("unmatched '(' in %s", s)
}

// scanBracketed scans a dict or list literal to the bracket that brings the
// nesting depth to zero. Brackets inside string literals do not count.
func scanBracketed(s string, open, close byte, kind tokenKind) (lexeme, string, error) {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return lexeme{kind, s[:i+1]}, s[i+1:], nil
			}
		}
	}
	return lexeme{}, "", errorf("unmatched %q in %s", string(open), s)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
