// Copyright 2025 The go-pug Authors
// This file is part of go-pug.

// Command pugc compiles pug templates to HTML.
//
// Usage:
//
//	pugc [flags] <file.pug>...
//
// Each input compiles to a sibling <file>.html unless --stdout or -o is
// given. Variables for the expression environment load from a TOML file via
// --vars; --watch recompiles on change; --emit dumps intermediate stages.
package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/natefinch/atomic"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/carlos-sweb/go-pug/lang/lexer"
	"github.com/carlos-sweb/go-pug/lang/parser"
	"github.com/carlos-sweb/go-pug/lang/render"
	"github.com/carlos-sweb/go-pug/pug"
)

var (
	prettyFlag = cli.BoolFlag{
		Name:  "pretty",
		Usage: "emit indented HTML instead of compact output",
	}
	stdoutFlag = cli.BoolFlag{
		Name:  "stdout",
		Usage: "write compiled HTML to stdout instead of files",
	}
	outputFlag = cli.StringFlag{
		Name:  "o, output",
		Usage: "output file (single input only)",
	}
	varsFlag = cli.StringFlag{
		Name:  "vars",
		Usage: "TOML file with template variables",
	}
	watchFlag = cli.BoolFlag{
		Name:  "watch, w",
		Usage: "recompile inputs whenever they change",
	}
	emitFlag = cli.StringFlag{
		Name:  "emit",
		Usage: "emit stage: tokens, ast or html",
		Value: "html",
	}
)

var errColor = color.New(color.FgRed)

func main() {
	app := cli.NewApp()
	app.Name = "pugc"
	app.Usage = "compile pug templates to HTML"
	app.Version = pug.Version()
	app.Flags = []cli.Flag{prettyFlag, stdoutFlag, outputFlag, varsFlag, watchFlag, emitFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		_, _ = errColor.Fprintf(os.Stderr, "pugc: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	inputs := ctx.Args()
	if len(inputs) == 0 {
		return fmt.Errorf("no input files (try 'pugc --help')")
	}
	if ctx.String("output") != "" && len(inputs) > 1 {
		return fmt.Errorf("-o requires exactly one input file")
	}

	vars, err := loadVars(ctx.String("vars"))
	if err != nil {
		return err
	}

	mode := render.Compact
	if ctx.Bool("pretty") {
		mode = render.Pretty
	}

	switch stage := ctx.String("emit"); stage {
	case "tokens":
		return emitTokens(inputs)
	case "ast":
		return emitAST(inputs)
	case "html":
	default:
		return fmt.Errorf("unknown emit stage %q", stage)
	}

	job := compileJob{vars: vars, mode: mode, stdout: ctx.Bool("stdout"), output: ctx.String("output")}
	if err := job.compileAll(inputs); err != nil {
		return err
	}
	if ctx.Bool("watch") {
		return watch(inputs, job)
	}
	return nil
}

// compileJob is the shared configuration of one batch compile.
type compileJob struct {
	vars   varMap
	mode   render.Mode
	stdout bool
	output string
}

// compileAll compiles every input. Independent files compile concurrently;
// each gets its own context and environment.
func (j compileJob) compileAll(inputs []string) error {
	var g errgroup.Group
	for _, in := range inputs {
		in := in
		g.Go(func() error { return j.compileOne(in) })
	}
	return g.Wait()
}

func (j compileJob) compileOne(input string) error {
	c := pug.New()
	j.vars.apply(c)

	html, err := c.CompileFile(input, j.mode)
	if err != nil {
		return err
	}
	if j.stdout {
		_, err = fmt.Println(html)
		return err
	}
	out := j.output
	if out == "" {
		out = outputPath(input)
	}
	if err := atomic.WriteFile(out, bytes.NewReader([]byte(html))); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Printf("%s -> %s\n", input, out)
	return nil
}

// outputPath swaps the .pug extension for .html.
func outputPath(input string) string {
	return strings.TrimSuffix(input, ".pug") + ".html"
}

// ---------------------------------------------------------------------------
// Debug emit stages
// ---------------------------------------------------------------------------

func emitTokens(inputs []string) error {
	for _, in := range inputs {
		src, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		toks, err := lexer.New(in, string(src)).Tokenize()
		if err != nil {
			return err
		}
		for _, tok := range toks {
			fmt.Printf("%s\t%s\t%q\n", tok.Pos, tok.Type, tok.Literal)
		}
	}
	return nil
}

func emitAST(inputs []string) error {
	dumper := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
	for _, in := range inputs {
		src, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		tmpl, err := parser.Parse(in, string(src))
		if err != nil {
			return err
		}
		dumper.Fdump(os.Stdout, tmpl)
	}
	return nil
}
