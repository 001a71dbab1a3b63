// Package parser implements the recursive-descent parser that turns a
// token stream into an ast.ExprVector, rewriting the quote shorthand
// into an explicit (quote x) list as it goes.
package parser

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/skx/lispc/ast"
	"github.com/skx/lispc/lexer"
	"github.com/skx/lispc/token"
)

// ParseError reports a fatal syntax error: the source position, a
// human message, and the offending token's lexeme and kind, matching
// the diagnostic shape the original implementation's parser_error
// produces.
type ParseError struct {
	Span    token.Span
	Message string
	Token   token.Token
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s - %s (Current Token: '%s', Type: %s)",
		e.Span.Start, e.Message, e.Token.Lexeme, e.Token.Kind)
}

// Parser drives a lexer.Lexer one token of lookahead at a time.
type Parser struct {
	lex     *lexer.Lexer
	current token.Token
}

// New creates a Parser over the given source text, priming the first
// lookahead token.
func New(source string) *Parser {
	p := &Parser{lex: lexer.New(source)}
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.current = p.lex.Next()
}

// skipTrivia advances past any run of WHITESPACE/COMMENT tokens.
func (p *Parser) skipTrivia() {
	for p.current.Kind == token.WHITESPACE || p.current.Kind == token.COMMENT {
		p.advance()
	}
}

func (p *Parser) fail(message string) error {
	return &ParseError{Span: p.current.Span, Message: message, Token: p.current}
}

// ParseProgram drains the lexer to end-of-input and returns the
// top-level expression sequence. Whitespace and comments are skipped
// between top-level forms.
func (p *Parser) ParseProgram() (ast.ExprVector, error) {
	var program ast.ExprVector

	p.skipTrivia()
	for p.current.Kind != token.EOF {
		expr, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		program = append(program, expr)
		p.skipTrivia()
	}
	return program, nil
}

// ParseExpr consumes and returns one expression: an atom, a
// parenthesised list, or a quoted expression.
func (p *Parser) ParseExpr() (ast.Expr, error) {
	switch p.current.Kind {
	case token.LPAREN:
		return p.parseList()
	case token.RPAREN:
		return ast.Expr{}, p.fail("Closing an unopened list")
	case token.QUOTE:
		quoteSpan := p.current.Span
		p.advance()
		return p.parseQuoted(quoteSpan)
	case token.SYMBOL, token.NUMBER, token.STRING:
		return p.parseAtom()
	case token.EOF:
		return ast.Expr{}, p.fail("Unexpected end of file (unterminated list?)")
	case token.ERROR:
		return ast.Expr{}, p.fail(p.current.Lexeme)
	default:
		return ast.Expr{}, p.fail("Illegal token")
	}
}

func (p *Parser) parseAtom() (ast.Expr, error) {
	tok := p.current
	var a ast.Atom

	switch tok.Kind {
	case token.NUMBER:
		n, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return ast.Expr{}, errors.Wrapf(err, "invalid number literal %q at %s", tok.Lexeme, tok.Span.Start)
		}
		a = ast.NewNumber(n)
	case token.STRING:
		a = ast.NewString(tok.Lexeme)
	case token.SYMBOL:
		a = ast.NewSymbol(tok.Lexeme)
	}

	p.advance()
	return ast.NewAtomExpr(a, tok.Span), nil
}

// parseList consumes a parenthesised list. Its span runs from the
// opening to the closing parenthesis.
func (p *Parser) parseList() (ast.Expr, error) {
	start := p.current.Span.Start
	p.advance() // consume '('

	var elems ast.ExprVector
	for {
		p.skipTrivia()

		if p.current.Kind == token.RPAREN {
			break
		}
		if p.current.Kind == token.EOF {
			return ast.Expr{}, p.fail("Unterminated list, found EOF")
		}

		e, err := p.ParseExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		elems = append(elems, e)
	}

	end := p.current.Span.End
	p.advance() // consume ')'

	return ast.NewListExpr(elems, token.Span{Start: start, End: end}), nil
}

// parseQuoted consumes the expression following a quote character and
// rewrites 'x into (quote x), where quote is a freshly synthesised
// symbol atom spanning the quote character itself.
func (p *Parser) parseQuoted(quoteSpan token.Span) (ast.Expr, error) {
	p.skipTrivia()

	quoteSym := ast.NewAtomExpr(ast.NewSymbol("quote"), quoteSpan)

	operand, err := p.ParseExpr()
	if err != nil {
		return ast.Expr{}, err
	}

	span := token.Span{Start: quoteSpan.Start, End: operand.Span.End}
	return ast.NewListExpr(ast.ExprVector{quoteSym, operand}, span), nil
}
