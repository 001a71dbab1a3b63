// Package lexer implements the streaming tokenizer that turns Lisp
// source text into a sequence of token.Token values.
package lexer

import (
	"strconv"
	"strings"

	"github.com/skx/lispc/token"
)

// symbolChars is the set of punctuation characters, beyond alphanumerics,
// that may appear inside a SYMBOL or NUMBER lexeme.
const symbolChars = "!$%&*+-./:<=>?@^_~"

// Lexer holds the cursor state over a single source string.
type Lexer struct {
	input []rune
	pos   int
	line  int
	col   int
}

// New creates a Lexer over the given source text.
func New(source string) *Lexer {
	return &Lexer{input: []rune(source), pos: 0, line: 1, col: 1}
}

func (l *Lexer) position() token.Position {
	return token.Position{Line: l.line, Col: l.col}
}

// currentCh returns the rune under the cursor, or rune(0) at end-of-input.
func (l *Lexer) currentCh() rune {
	if l.pos >= len(l.input) {
		return rune(0)
	}
	return l.input[l.pos]
}

// advance moves the cursor forward by one rune, updating line/column
// bookkeeping; a newline resets the column to 1 and bumps the line.
func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}
	c := l.input[l.pos]
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func isWhitespace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isSymbolChar(c rune) bool {
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || isDigit(c) {
		return true
	}
	return strings.ContainsRune(symbolChars, c)
}

// Next consumes characters starting at the cursor and returns exactly
// one token, advancing the cursor past it. Calling Next after the
// terminating position has been reached repeatedly yields EOF tokens.
func (l *Lexer) Next() token.Token {
	start := l.position()
	c := l.currentCh()

	switch {
	case c == rune(0):
		return token.Token{Kind: token.EOF, Lexeme: "", Span: token.Span{Start: start, End: start}}
	case isWhitespace(c):
		return l.lexWhitespace(start)
	case c == ';':
		return l.lexComment(start)
	case c == '(':
		return l.lexSingle(token.LPAREN, start)
	case c == ')':
		return l.lexSingle(token.RPAREN, start)
	case c == '\'':
		return l.lexSingle(token.QUOTE, start)
	case c == '"':
		return l.lexString(start)
	case isDigit(c) || c == '+' || c == '-' || isSymbolChar(c):
		return l.lexSymbolOrNumber(start)
	default:
		return l.lexError(start)
	}
}

func (l *Lexer) lexSingle(kind token.Kind, start token.Position) token.Token {
	lexeme := string(l.currentCh())
	l.advance()
	return token.Token{Kind: kind, Lexeme: lexeme, Span: token.Span{Start: start, End: l.position()}}
}

func (l *Lexer) lexWhitespace(start token.Position) token.Token {
	var b strings.Builder
	end := start
	for isWhitespace(l.currentCh()) {
		b.WriteRune(l.currentCh())
		l.advance()
		end = l.position()
	}
	return token.Token{Kind: token.WHITESPACE, Lexeme: b.String(), Span: token.Span{Start: start, End: end}}
}

// lexComment consumes through and including the next newline, or to EOF.
func (l *Lexer) lexComment(start token.Position) token.Token {
	var b strings.Builder
	end := start
	for l.currentCh() != '\n' && l.currentCh() != rune(0) {
		b.WriteRune(l.currentCh())
		l.advance()
		end = l.position()
	}
	if l.currentCh() == '\n' {
		b.WriteRune('\n')
		l.advance()
		end = l.position()
	}
	return token.Token{Kind: token.COMMENT, Lexeme: b.String(), Span: token.Span{Start: start, End: end}}
}

// lexString consumes a quoted string literal. The returned lexeme
// retains both surrounding quotes; an EOF before the closing quote is
// reported as an ERROR token with the message "Unterminated string
// literal".
func (l *Lexer) lexString(start token.Position) token.Token {
	var b strings.Builder
	b.WriteRune(l.currentCh()) // opening quote
	l.advance()
	end := l.position()

	for l.currentCh() != '"' && l.currentCh() != rune(0) {
		b.WriteRune(l.currentCh())
		l.advance()
		end = l.position()
	}

	if l.currentCh() == rune(0) {
		return token.Token{Kind: token.ERROR, Lexeme: "Unterminated string literal", Span: token.Span{Start: start, End: end}}
	}

	b.WriteRune(l.currentCh()) // closing quote
	l.advance()
	end = l.position()

	return token.Token{Kind: token.STRING, Lexeme: b.String(), Span: token.Span{Start: start, End: end}}
}

// lexSymbolOrNumber accumulates a run of digit/sign/symbol-char runes
// and then disambiguates the result into NUMBER or SYMBOL per spec:
// the lexeme is a NUMBER iff it parses entirely as a float64, is not
// exactly "+" or "-", and contains at least one decimal digit.
func (l *Lexer) lexSymbolOrNumber(start token.Position) token.Token {
	var b strings.Builder
	end := start

	for {
		c := l.currentCh()
		if c == rune(0) || isWhitespace(c) || c == '(' || c == ')' || c == '\'' || c == ';' || c == '"' {
			break
		}
		if !isDigit(c) && c != '+' && c != '-' && !isSymbolChar(c) {
			break
		}
		b.WriteRune(c)
		l.advance()
		end = l.position()
	}

	lexeme := b.String()
	span := token.Span{Start: start, End: end}

	if isNumberLexeme(lexeme) {
		return token.Token{Kind: token.NUMBER, Lexeme: lexeme, Span: span}
	}
	return token.Token{Kind: token.SYMBOL, Lexeme: lexeme, Span: span}
}

func isNumberLexeme(lexeme string) bool {
	if lexeme == "+" || lexeme == "-" {
		return false
	}
	if !strings.ContainsAny(lexeme, "0123456789") {
		return false
	}
	_, err := strconv.ParseFloat(lexeme, 64)
	return err == nil
}

func (l *Lexer) lexError(start token.Position) token.Token {
	c := l.currentCh()
	l.advance()
	return token.Token{
		Kind:   token.ERROR,
		Lexeme: "Illegal character: '" + string(c) + "'",
		Span:   token.Span{Start: start, End: l.position()},
	}
}
