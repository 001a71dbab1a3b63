package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skx/lispc/ast"
	"github.com/skx/lispc/token"
)

func TestParseEmptyProgram(t *testing.T) {
	p := New("")
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	assert.Len(t, prog, 0)
}

func TestParseAtoms(t *testing.T) {
	p := New("foo 3.5 \"hi\"")
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	require.Len(t, prog, 3)

	name, ok := prog[0].IsSymbol()
	assert.True(t, ok)
	assert.Equal(t, "foo", name)

	assert.Equal(t, ast.AtomNumber, prog[1].Atom.Kind)
	assert.Equal(t, 3.5, prog[1].Atom.Number)

	assert.Equal(t, ast.AtomString, prog[2].Atom.Kind)
	assert.Equal(t, "hi", prog[2].Atom.Str)
}

func TestParseNestedList(t *testing.T) {
	p := New("(+ 1 (* 2 3))")
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	require.Len(t, prog, 1)

	top := prog[0]
	require.Equal(t, ast.ExprList, top.Kind)
	require.Len(t, top.List, 3)

	inner := top.List[2]
	assert.Equal(t, ast.ExprList, inner.Kind)
	assert.Len(t, inner.List, 3)
}

func TestParseQuoteShorthand(t *testing.T) {
	p := New("'foo")
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	require.Len(t, prog, 1)

	top := prog[0]
	require.Equal(t, ast.ExprList, top.Kind)
	require.Len(t, top.List, 2)

	name, ok := top.List[0].IsSymbol()
	assert.True(t, ok)
	assert.Equal(t, "quote", name)

	name, ok = top.List[1].IsSymbol()
	assert.True(t, ok)
	assert.Equal(t, "foo", name)
}

func TestParseUnmatchedCloseParen(t *testing.T) {
	p := New(")")
	_, err := p.ParseProgram()
	assert.Error(t, err, "expected an error for an unmatched ')'")
}

func TestParseUnterminatedList(t *testing.T) {
	p := New("(+ 1 2")
	_, err := p.ParseProgram()
	assert.Error(t, err, "expected an error for an unterminated list")
}

func TestParseUnterminatedString(t *testing.T) {
	p := New(`"abc`)
	_, err := p.ParseProgram()
	assert.Error(t, err, "expected an error surfacing the lexer's ERROR token")
}

func TestParseErrorMessageShape(t *testing.T) {
	p := New(")")
	_, err := p.ParseProgram()
	require.Error(t, err)

	pe, ok := err.(*ParseError)
	require.True(t, ok, "expected *ParseError, got %T", err)
	assert.Equal(t, token.Position{Line: 1, Col: 1}, pe.Span.Start)
	assert.Equal(t, token.RPAREN, pe.Token.Kind)
}

func TestListSpanRunsParenToParen(t *testing.T) {
	p := New("(+ 1 2)")
	prog, err := p.ParseProgram()
	require.NoError(t, err)

	span := prog[0].Span
	assert.Equal(t, token.Position{Line: 1, Col: 1}, span.Start)
	assert.Equal(t, token.Position{Line: 1, Col: 8}, span.End)
}
