// Package codegen walks a parsed program and emits x86-64 NASM
// assembly, System-V AMD64 ABI compliant, ready to be assembled and
// linked against the small C runtime that implements lisp_make_number
// and the four arithmetic primitives.
package codegen

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/pkg/errors"

	"github.com/skx/lispc/ast"
	"github.com/skx/lispc/symtab"
	"github.com/skx/lispc/token"
)

// argRegisters is the System-V AMD64 integer argument register order;
// at most six arguments can be passed this way.
var argRegisters = [6]string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

// builtinRuntimeFunc maps the four supported arithmetic operators to
// the runtime entry point that implements them.
var builtinRuntimeFunc = map[string]string{
	"+": "lisp_add",
	"-": "lisp_subtract",
	"*": "lisp_multiply",
	"/": "lisp_divide",
}

// CompileError reports a fatal code generation error: the source span
// of the offending form and a short English message, matching the
// diagnostic shape the rest of this compiler's error types use.
type CompileError struct {
	Span    token.Span
	Message string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("%s - %s", e.Span.Start, e.Message)
}

// Compiler walks an ast.ExprVector and emits assembly into a
// GlobalDataSections, driving a symtab.SymbolTable across scope
// entries and exits as it descends into function bodies.
type Compiler struct {
	sections     *GlobalDataSections
	symbols      *symtab.SymbolTable
	labelCounter int
	logger       *slog.Logger
}

// New creates a Compiler. A nil logger is replaced with one that
// discards all output, so debug tracing calls are always safe to make.
func New(logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(discardWriter{}, nil))
	}
	return &Compiler{logger: logger}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func (c *Compiler) fail(span token.Span, format string, args ...interface{}) error {
	return &CompileError{Span: span, Message: fmt.Sprintf(format, args...)}
}

func (c *Compiler) nextLabel() int {
	id := c.labelCounter
	c.labelCounter++
	return id
}

// registerBuiltins populates the global scope with the symbols every
// program starts with: the two special forms this compiler knows
// about, and the four arithmetic builtins.
func (c *Compiler) registerBuiltins() {
	c.symbols.Define(symtab.NewSpecialForm("define", nil))
	c.symbols.Define(symtab.NewSpecialForm("if", nil))
	for op := range builtinRuntimeFunc {
		c.symbols.Define(symtab.NewBuiltinFunc(op, nil))
	}
}

// Compile translates program into a NASM assembly file written to
// <baseName>.s. It creates a fresh symbol table and section buffers
// for the run, so a Compiler may be reused across programs.
func (c *Compiler) Compile(program ast.ExprVector, baseName string) error {
	c.symbols = symtab.NewSymbolTable()
	c.registerBuiltins()
	c.sections = NewGlobalDataSections()
	c.labelCounter = 0

	c.sections.WriteText("global main\n")
	c.sections.WriteText("extern lisp_add\n")
	c.sections.WriteText("extern lisp_subtract\n")
	c.sections.WriteText("extern lisp_multiply\n")
	c.sections.WriteText("extern lisp_divide\n")
	c.sections.WriteText("extern lisp_make_number\n")

	c.sections.WriteText("main:\n")
	c.sections.WriteText("push rbp\n")
	c.sections.WriteText("mov rbp, rsp\n")

	for _, expr := range program {
		c.logger.Debug("compiling top-level form", "span", expr.Span.Start.String())
		if err := c.compileExpr(expr); err != nil {
			return err
		}
	}

	c.sections.WriteText("mov rax, 0\n")
	c.sections.WriteText("mov rsp, rbp\n")
	c.sections.WriteText("pop rbp\n")
	c.sections.WriteText("ret\n")

	return c.sections.Finalize(baseName)
}

// compileExpr emits the instructions for one expression into the
// current text target, leaving the resulting LispValue* in rax.
func (c *Compiler) compileExpr(e ast.Expr) error {
	switch e.Kind {
	case ast.ExprAtom:
		return c.compileAtom(e)
	case ast.ExprList:
		return c.compileList(e)
	default:
		return c.fail(e.Span, "cannot compile a malformed expression")
	}
}

// mathConstants lets pi and e be used as if they were numeric
// literals, the way the teacher's tokenizer folds them at lex time;
// here the fold happens one stage later, at codegen, since this
// compiler's number/symbol rule never classifies a letter-led lexeme
// as NUMBER.
var mathConstants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// emitNumber stores n in rodata and loads it through lisp_make_number,
// leaving the resulting LispValue* in rax.
func (c *Compiler) emitNumber(n float64) error {
	id := c.nextLabel()
	c.sections.WriteRodata("L_double_%d: dq %s\n", id, formatDouble(n))
	c.sections.WriteText("movsd xmm0, [rel L_double_%d]\n", id)
	c.sections.WriteText("call lisp_make_number\n")
	return nil
}

func (c *Compiler) compileAtom(e ast.Expr) error {
	switch e.Atom.Kind {
	case ast.AtomNumber:
		return c.emitNumber(e.Atom.Number)

	case ast.AtomSymbol:
		if n, ok := mathConstants[e.Atom.Symbol]; ok {
			return c.emitNumber(n)
		}

		info, ok := c.symbols.Lookup(e.Atom.Symbol)
		if !ok {
			return c.fail(e.Span, "undefined symbol: %s", e.Atom.Symbol)
		}
		switch info.Kind {
		case symtab.LocalVar:
			c.sections.WriteText("mov rax, [rbp - %d]\n", info.StackOffset)
			return nil
		case symtab.GlobalVar:
			c.sections.WriteText("mov rax, [%s]\n", info.AsmLabel)
			return nil
		default:
			return c.fail(e.Span, "%s cannot be used as a value", e.Atom.Symbol)
		}

	case ast.AtomString:
		return c.fail(e.Span, "string literals are not supported in code generation")

	default:
		return c.fail(e.Span, "unknown atom kind")
	}
}

func (c *Compiler) compileList(e ast.Expr) error {
	if len(e.List) == 0 {
		return c.fail(e.Span, "cannot compile an empty list")
	}

	head := e.List[0]
	name, ok := head.IsSymbol()
	if !ok {
		return c.fail(head.Span, "the head of a list must be a symbol")
	}

	info, ok := c.symbols.Lookup(name)
	if !ok {
		return c.fail(head.Span, "undefined symbol: %s", name)
	}

	args := e.List[1:]

	switch info.Kind {
	case symtab.SpecialForm:
		switch name {
		case "define":
			return c.compileDefine(e, args)
		case "if":
			return c.fail(e.Span, "if is not implemented")
		default:
			return c.fail(e.Span, "unhandled special form: %s", name)
		}

	case symtab.BuiltinFunc:
		return c.compileBuiltinCall(e, name, args)

	case symtab.UserFunc:
		return c.compileUserCall(e, info, args)

	default:
		return c.fail(head.Span, "%s is not callable", name)
	}
}

// compileDefine dispatches (define name value) and
// (define (fname params...) body...) to their respective paths based
// on whether the first argument is a symbol or a list.
func (c *Compiler) compileDefine(form ast.Expr, args ast.ExprVector) error {
	if len(args) == 0 {
		return c.fail(form.Span, "define requires at least a name")
	}

	switch args[0].Kind {
	case ast.ExprAtom:
		if len(args) != 2 {
			return c.fail(form.Span, "define requires exactly 2 arguments for a variable binding")
		}
		return c.compileDefineVariable(args[0], args[1])

	case ast.ExprList:
		return c.compileDefineFunction(form, args[0], args[1:])

	default:
		return c.fail(form.Span, "malformed define")
	}
}

func (c *Compiler) compileDefineVariable(nameExpr, valueExpr ast.Expr) error {
	name, ok := nameExpr.IsSymbol()
	if !ok {
		return c.fail(nameExpr.Span, "define requires a symbol name")
	}

	if err := c.compileExpr(valueExpr); err != nil {
		return err
	}

	if c.symbols.AtGlobalScope() {
		label := symtab.SanitizeLabel("G_" + name)
		c.symbols.Define(symtab.NewGlobalVar(name, "G_"+name, &nameExpr))
		c.sections.WriteData("%s: dq 0\n", label)
		c.sections.WriteText("push rax\n")
		c.sections.WriteText("pop rbx\n")
		c.sections.WriteText("mov [%s], rbx\n", label)
		c.sections.WriteText("mov rax, rbx\n")
		return nil
	}

	offset := c.symbols.Define(symtab.NewLocalVar(name, &nameExpr))
	c.sections.WriteText("mov [rbp - %d], rax\n", offset)
	c.sections.WriteText("mov rax, 0\n")
	return nil
}

// compileDefineFunction emits a user function's body into the func
// section and registers it in the enclosing (global) scope before the
// body is compiled, so recursive calls resolve.
func (c *Compiler) compileDefineFunction(form, header ast.Expr, body ast.ExprVector) error {
	if len(header.List) == 0 {
		return c.fail(header.Span, "function define requires a name")
	}

	fname, ok := header.List[0].IsSymbol()
	if !ok {
		return c.fail(header.Span, "function name must be a symbol")
	}

	params := header.List[1:]
	if len(params) > len(argRegisters) {
		return c.fail(header.Span, "function %s takes more than %d parameters", fname, len(argRegisters))
	}

	label := "user_func_" + fname
	c.symbols.Define(symtab.NewUserFunc(fname, label, &header))

	if err := c.sections.EnterFunction(); err != nil {
		return errors.Wrapf(err, "at %s", form.Span.Start)
	}
	// Runs after ExitFunction below has restored the text target, so
	// this lands at the call site in the enclosing text buffer, not
	// inside the function body: a define-function leaves 0 in rax as
	// its "result", same as the variable-define path.
	defer c.sections.WriteText("mov rax, 0\n")
	defer c.sections.ExitFunction()

	c.symbols.EnterScope()
	defer c.symbols.ExitScope()

	paramNames := make([]string, len(params))
	for i := range params {
		pname, ok := params[i].IsSymbol()
		if !ok {
			return c.fail(params[i].Span, "function parameters must be symbols")
		}
		paramNames[i] = pname
		c.symbols.Define(symtab.NewLocalVar(pname, &params[i]))
	}

	locals := countLocalDefines(body)
	frameSize := 8 * (len(params) + locals)

	c.sections.WriteText("%s:\n", symtab.SanitizeLabel(label))
	c.sections.WriteText("push rbp\n")
	c.sections.WriteText("mov rbp, rsp\n")
	if frameSize > 0 {
		c.sections.WriteText("sub rsp, %d\n", frameSize)
	}

	for i, pname := range paramNames {
		info, _ := c.symbols.Lookup(pname)
		c.sections.WriteText("mov [rbp - %d], %s\n", info.StackOffset, argRegisters[i])
	}

	for _, stmt := range body {
		if err := c.compileExpr(stmt); err != nil {
			return err
		}
	}

	c.sections.WriteText("mov rsp, rbp\n")
	c.sections.WriteText("pop rbp\n")
	c.sections.WriteText("ret\n")

	return nil
}

// countLocalDefines counts the top-level body forms of the shape
// (define symbol value); these are the only forms the compiler
// allocates a stack slot for as a local, matching the frame-size
// calculation in compileDefineFunction.
func countLocalDefines(body ast.ExprVector) int {
	count := 0
	for _, stmt := range body {
		if stmt.Kind != ast.ExprList || len(stmt.List) < 2 {
			continue
		}
		if name, ok := stmt.List[0].IsSymbol(); !ok || name != "define" {
			continue
		}
		if _, ok := stmt.List[1].IsSymbol(); ok {
			count++
		}
	}
	return count
}

// compileBuiltinCall emits the fixed two-argument calling sequence for
// +, -, * and /; any other arity is a fatal error.
func (c *Compiler) compileBuiltinCall(form ast.Expr, name string, args ast.ExprVector) error {
	if len(args) != 2 {
		return c.fail(form.Span, "%s requires 2 arguments", name)
	}

	if err := c.compileExpr(args[1]); err != nil {
		return err
	}
	c.sections.WriteText("push rax\n")

	if err := c.compileExpr(args[0]); err != nil {
		return err
	}
	c.sections.WriteText("mov rdi, rax\n")
	c.sections.WriteText("pop rsi\n")
	c.sections.WriteText("call %s\n", builtinRuntimeFunc[name])
	return nil
}

// compileUserCall pushes each argument left to right, then pops them
// back off in reverse so the argument registers end up holding
// arg1..argn in source order, and calls the function label.
func (c *Compiler) compileUserCall(form ast.Expr, info *symtab.SymbolInfo, args ast.ExprVector) error {
	if len(args) > len(argRegisters) {
		return c.fail(form.Span, "%s called with more than %d arguments", info.Name, len(argRegisters))
	}

	for _, arg := range args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
		c.sections.WriteText("push rax\n")
	}

	for i := len(args) - 1; i >= 0; i-- {
		c.sections.WriteText("pop %s\n", argRegisters[i])
	}

	c.sections.WriteText("call %s\n", info.AsmLabel)
	return nil
}

func formatDouble(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}
