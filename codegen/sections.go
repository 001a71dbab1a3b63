package codegen

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// GlobalDataSections owns the five append-only assembly buffers the
// compiler writes into: func (user function bodies), text (main and
// call sites), rodata (floating point constants), data (global
// variable storage) and bss. They are concatenated, in that fixed
// order, when Finalize runs.
type GlobalDataSections struct {
	funcBuf   bytes.Buffer
	textBuf   bytes.Buffer
	dataBuf   bytes.Buffer
	rodataBuf bytes.Buffer
	bssBuf    bytes.Buffer

	// textTarget is where WriteText currently appends: textBuf at
	// top level, funcBuf while a function body is being compiled.
	textTarget *bytes.Buffer

	// inFunction is true from EnterFunction until the matching
	// ExitFunction; a second EnterFunction while true means a nested
	// function definition was attempted and must be rejected.
	inFunction bool
}

// NewGlobalDataSections returns a fresh set of empty section buffers
// with the text target pointed at the top-level text buffer.
func NewGlobalDataSections() *GlobalDataSections {
	g := &GlobalDataSections{}
	g.textTarget = &g.textBuf
	return g
}

// WriteText appends to whichever buffer is the current text target.
func (g *GlobalDataSections) WriteText(format string, args ...interface{}) {
	fmt.Fprintf(g.textTarget, format, args...)
}

// WriteData appends a line to the .data section buffer.
func (g *GlobalDataSections) WriteData(format string, args ...interface{}) {
	fmt.Fprintf(&g.dataBuf, format, args...)
}

// WriteRodata appends a line to the .rodata section buffer.
func (g *GlobalDataSections) WriteRodata(format string, args ...interface{}) {
	fmt.Fprintf(&g.rodataBuf, format, args...)
}

// WriteBss appends a line to the .bss section buffer.
func (g *GlobalDataSections) WriteBss(format string, args ...interface{}) {
	fmt.Fprintf(&g.bssBuf, format, args...)
}

// EnterFunction redirects the text target to the func buffer so a
// function body's instructions land before main in the final .text
// section. It fails if a function body is already being compiled,
// since this compiler does not support nested function definitions.
func (g *GlobalDataSections) EnterFunction() error {
	if g.inFunction {
		return errors.New("nested function definition is not supported")
	}
	g.inFunction = true
	g.textTarget = &g.funcBuf
	return nil
}

// ExitFunction restores the text target to the top-level text buffer.
func (g *GlobalDataSections) ExitFunction() {
	g.inFunction = false
	g.textTarget = &g.textBuf
}

// Finalize writes the concatenated assembly to <baseName>.s: a single
// `section .text` holding the func buffer followed by the text
// buffer, then `section .rodata`, `section .data` and `section .bss`
// for whichever of those buffers are non-empty.
func (g *GlobalDataSections) Finalize(baseName string) error {
	var out bytes.Buffer

	out.WriteString("section .text\n")
	out.Write(g.funcBuf.Bytes())
	out.Write(g.textBuf.Bytes())

	for _, section := range []struct {
		name string
		buf  *bytes.Buffer
	}{
		{"rodata", &g.rodataBuf},
		{"data", &g.dataBuf},
		{"bss", &g.bssBuf},
	} {
		if section.buf.Len() == 0 {
			continue
		}
		out.WriteString("\nsection ." + section.name + "\n")
		out.Write(section.buf.Bytes())
	}

	path := baseName + ".s"
	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "writing assembly output to %s", path)
	}
	return nil
}
