// This is the main-driver for our compiler.

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/skx/lispc/ast"
	"github.com/skx/lispc/codegen"
	"github.com/skx/lispc/config"
	"github.com/skx/lispc/parser"
)

func main() {

	//
	// Look for flags.
	//
	debug := flag.Bool("debug", false, "Write debug-level trace records to stderr; the generated assembly is unchanged.")
	dumpAST := flag.Bool("ast", false, "Print the parsed AST to stdout and exit.")
	assemble := flag.Bool("assemble", false, "Assemble and link the program, via nasm and the configured linker.")
	run := flag.Bool("run", false, "Run the binary, post-assemble.")
	flag.Parse()

	//
	// If we're running we're also assembling.
	//
	if *run {
		*assemble = true
	}

	//
	// Ensure we have a source file as our single argument.
	//
	if len(flag.Args()) != 1 {
		fmt.Println("Usage: lispc [flags] <input.lisp>")
		os.Exit(1)
	}
	inputPath := flag.Args()[0]

	//
	// Set up structured logging; debug mode turns on Debug-level output.
	//
	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Printf("Error reading %s: %s\n", inputPath, err)
		os.Exit(1)
	}

	//
	// Lex + parse.
	//
	p := parser.New(string(source))
	program, err := p.ParseProgram()
	if err != nil {
		fmt.Printf("Error parsing %s: %s\n", inputPath, err)
		os.Exit(1)
	}

	if *dumpAST {
		ast.Fprint(os.Stdout, program)
		return
	}

	//
	// Compile to assembly, writing <base>.s next to the source.
	//
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))

	comp := codegen.New(logger)
	if err := comp.Compile(program, base); err != nil {
		fmt.Printf("Error compiling %s: %s\n", inputPath, err)
		os.Exit(1)
	}

	asmPath := base + ".s"

	//
	// If we're not assembling, we're done: the .s file is the product.
	//
	if !*assemble {
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %s\n", err)
		os.Exit(1)
	}

	objPath := base + ".o"
	exePath := base

	//
	// nasm -f elf64 <base>.s -o <base>.o
	//
	asmArgs := append(strings.Fields(cfg.Toolchain.AssemblerArgs), asmPath, "-o", objPath)
	nasm := exec.Command(cfg.Toolchain.Assembler, asmArgs...)
	nasm.Stdout = os.Stdout
	nasm.Stderr = os.Stderr
	if err := nasm.Run(); err != nil {
		fmt.Printf("Error running %s: %s\n", cfg.Toolchain.Assembler, err)
		os.Exit(1)
	}

	//
	// cc <base>.o runtime.o -o <base>
	//
	linker := exec.Command(cfg.Toolchain.Linker, objPath, cfg.Toolchain.RuntimeObject, "-o", exePath)
	linker.Stdout = os.Stdout
	linker.Stderr = os.Stderr
	if err := linker.Run(); err != nil {
		fmt.Printf("Error running %s: %s\n", cfg.Toolchain.Linker, err)
		os.Exit(1)
	}

	if !cfg.Output.KeepAsm {
		os.Remove(asmPath)
	}
	os.Remove(objPath)

	//
	// Running the binary too?
	//
	if *run {
		exe := exec.Command(exePath)
		exe.Stdout = os.Stdout
		exe.Stderr = os.Stderr
		if err := exe.Run(); err != nil {
			fmt.Printf("Error launching %s: %s\n", exePath, err)
			os.Exit(1)
		}
	}
}
