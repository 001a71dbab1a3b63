// Package ast defines the AST produced by the parser: atoms, compound
// expressions and the top-level program vector.
package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/skx/lispc/token"
)

// AtomKind distinguishes the three leaf forms a Lisp atom may take.
type AtomKind int

const (
	// AtomSymbol is a bare identifier, e.g. foo, +, list?.
	AtomSymbol AtomKind = iota
	// AtomNumber is a floating point literal.
	AtomNumber
	// AtomString is a string literal with its surrounding quotes removed.
	AtomString
)

// Atom is a non-compound AST leaf: a symbol, a number, or a string.
type Atom struct {
	Kind   AtomKind
	Symbol string
	Number float64
	Str    string
}

// NewSymbol builds a symbol atom.
func NewSymbol(name string) Atom { return Atom{Kind: AtomSymbol, Symbol: name} }

// NewNumber builds a number atom.
func NewNumber(n float64) Atom { return Atom{Kind: AtomNumber, Number: n} }

// NewString builds a string atom from a lexeme that still carries its
// surrounding double quotes; construction strips them.
func NewString(quoted string) Atom {
	return Atom{Kind: AtomString, Str: unquote(quoted)}
}

func unquote(lexeme string) string {
	if len(lexeme) < 2 || lexeme[0] != '"' || lexeme[len(lexeme)-1] != '"' {
		return ""
	}
	return lexeme[1 : len(lexeme)-1]
}

// String renders an atom the way the original AST pretty-printer does:
// symbols bare, numbers in general floating-point form, strings quoted.
func (a Atom) String() string {
	switch a.Kind {
	case AtomSymbol:
		return a.Symbol
	case AtomNumber:
		return strconv.FormatFloat(a.Number, 'g', -1, 64)
	case AtomString:
		return strconv.Quote(a.Str)
	default:
		return "<unknown atom>"
	}
}

// ExprKind distinguishes the three forms an Expr node may take.
type ExprKind int

const (
	// ExprAtom wraps a leaf Atom.
	ExprAtom ExprKind = iota
	// ExprList is a parenthesised S-expression.
	ExprList
	// ExprErr marks a node that failed to parse; carried so callers
	// that want to report several errors at once have somewhere to
	// attach one, though this compiler's parser is fail-fast and
	// stops at the first error.
	ExprErr
)

// Expr is the sum type: an atom, a list of sub-expressions, or an
// error marker, each carrying the source span it was parsed from.
type Expr struct {
	Kind  ExprKind
	Atom  Atom
	List  ExprVector
	Err   string
	Span  token.Span
}

// NewAtomExpr wraps an atom with a span.
func NewAtomExpr(a Atom, span token.Span) Expr {
	return Expr{Kind: ExprAtom, Atom: a, Span: span}
}

// NewListExpr wraps a (possibly empty) vector of sub-expressions with
// a span running from the opening to the closing parenthesis.
func NewListExpr(elems ExprVector, span token.Span) Expr {
	return Expr{Kind: ExprList, List: elems, Span: span}
}

// NewErrorExpr marks a node that could not be parsed.
func NewErrorExpr(msg string, span token.Span) Expr {
	return Expr{Kind: ExprErr, Err: msg, Span: span}
}

// IsSymbol reports whether e is an atom of kind AtomSymbol, and
// returns its name.
func (e Expr) IsSymbol() (string, bool) {
	if e.Kind == ExprAtom && e.Atom.Kind == AtomSymbol {
		return e.Atom.Symbol, true
	}
	return "", false
}

// ExprVector is an ordered sequence of expressions: the program's
// top-level form list, or a list expression's elements.
type ExprVector []Expr

// Len returns the number of elements.
func (v ExprVector) Len() int { return len(v) }

// Fprint writes a human-readable tree rendering of a program to w,
// mirroring the original implementation's debug AST pretty-printer.
// It is diagnostic only: nothing in code generation consults it.
func Fprint(w io.Writer, program ExprVector) {
	fmt.Fprintln(w, "--- AST Pretty Print ---")
	for _, e := range program {
		fprintExpr(w, e, 0)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "------------------------")
}

func fprintExpr(w io.Writer, e Expr, depth int) {
	switch e.Kind {
	case ExprAtom:
		fmt.Fprint(w, e.Atom.String())
	case ExprList:
		fmt.Fprint(w, "(\n")
		for _, elem := range e.List {
			fmt.Fprint(w, strings.Repeat(" ", depth+1))
			fprintExpr(w, elem, depth+1)
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, strings.Repeat(" ", depth)+")")
	case ExprErr:
		fmt.Fprintf(w, "<ERROR: %s>", e.Err)
	}
}
