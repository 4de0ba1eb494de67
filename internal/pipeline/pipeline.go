// Package pipeline wires together every pass that turns a parsed module
// into a finished program (spec §2's one-directional data flow): semantic
// analysis, recursion checking, loop analysis, IL generation, code
// generation, and ACME assembly. It is the top-level driver struct the
// way the teacher's own internal/pipeline/pipeline.go composes its
// parse/elaborate/typecheck/evaluate stages — rewritten here for
// Blend65's AST -> Sema -> Recursion -> Loop -> IL -> Codegen -> ACME
// flow.
package pipeline

import (
	"fmt"

	"github.com/blendsdk/blend65/internal/acme"
	"github.com/blendsdk/blend65/internal/asmil"
	"github.com/blendsdk/blend65/internal/ast"
	"github.com/blendsdk/blend65/internal/buildconfig"
	"github.com/blendsdk/blend65/internal/callgraph"
	"github.com/blendsdk/blend65/internal/cfg"
	"github.com/blendsdk/blend65/internal/codegen"
	"github.com/blendsdk/blend65/internal/diag"
	"github.com/blendsdk/blend65/internal/il"
	"github.com/blendsdk/blend65/internal/ilgen"
	"github.com/blendsdk/blend65/internal/modgraph"
	"github.com/blendsdk/blend65/internal/sema"
	"github.com/blendsdk/blend65/internal/symtab"
	"github.com/blendsdk/blend65/internal/types"
)

// LoopStats summarizes one function's loop analysis, kept for diagnostics
// and for the `blend65 check` CLI verb; it never gates compilation (spec
// §4.6: purely informational).
type LoopStats struct {
	Function      string
	NaturalLoops  int
	InductionVars int
}

// Result is everything one module's compilation produced.
type Result struct {
	Module     string
	Sink       *diag.Sink
	IL         *il.Module
	ASM        asmil.Module
	Assembly   string
	VICELabels string
	PRG        []byte
	PRGWarning string
	LoopStats  []LoopStats
}

// Pipeline runs every pass in order over one or more modules sharing a
// buildconfig.Config. An Invoker is optional: when nil, Assemble is
// skipped and Result.PRG stays empty (spec §6: ACME is an external
// collaborator, not a hard dependency of the core).
type Pipeline struct {
	Config  buildconfig.Config
	Invoker *acme.Invoker
}

// New creates a Pipeline from a resolved build configuration.
func New(cfg buildconfig.Config) *Pipeline {
	return &Pipeline{Config: cfg}
}

// CompileModule runs the full single-module pipeline: sema, recursion
// check (fatal), loop analysis (informational), IL generation, code
// generation, and ACME emission/assembly.
func (p *Pipeline) CompileModule(mod *ast.Module) (*Result, error) {
	res := &Result{Module: mod.Name}

	analyzer := sema.New()
	semaResult := analyzer.Analyze(mod)
	res.Sink = semaResult.Sink

	if semaResult.Sink.HasErrors() {
		return res, fmt.Errorf("module %q failed semantic analysis", mod.Name)
	}

	funcs := functionDecls(mod)

	graph := buildCallGraph(funcs)
	recErrs, _ := callgraph.CheckRecursion(graph)
	for _, re := range recErrs {
		res.Sink.Add(recursionReport(re))
	}
	if len(recErrs) > 0 {
		return res, fmt.Errorf("module %q has a forbidden recursive call cycle", mod.Name)
	}

	res.LoopStats = analyzeLoops(funcs)

	ilMod := ilgen.GenerateModule(mod.Name, funcs, semaResult.TypeInfo)
	addGlobals(ilMod, mod, semaResult.TypeInfo.Globals)
	res.IL = ilMod

	cg := codegen.NewGenerator(codegenConfigFrom(p.Config))
	asmMod := cg.Generate(ilMod)
	for _, w := range cg.Warnings() {
		res.Sink.Add(diag.New(diag.ZPOverflow, diag.SevWarning, nil, w.Message))
	}
	res.ASM = asmMod

	res.Assembly = acme.Emit(asmMod)
	if p.Config.ACME.EmitVICE {
		res.VICELabels = acme.VICELabels(asmMod)
	}

	if p.Invoker != nil {
		result, err := p.Invoker.Assemble(res.Assembly)
		if err != nil {
			return res, err
		}
		res.PRG = result.PRG
		res.PRGWarning = result.Warning
		if result.Warning != "" {
			res.Sink.Add(diag.New(diag.ACMEFailed, diag.SevWarning, nil, result.Warning))
		}
	}

	return res, nil
}

// CompileProgram orders modules by their import dependency graph (spec
// §4.3), runs semantic analysis on each module in that graph and registers
// its module-level symbols (exported or not) into a shared symtab.Table
// (spec §4.10), then compiles the entry module. The table is not consulted
// when the entry module is compiled, and dependency modules are neither
// checked for recursion nor lowered to IL; Blend65 programs produce one
// binary per entry point (spec §4.9).
func (p *Pipeline) CompileProgram(modules map[string]*ast.Module, entry string) (*Result, error) {
	graph := modgraph.NewGraph()
	for name, mod := range modules {
		for _, imp := range mod.Imports {
			graph.AddEdge(name, imp.From, imp.Span())
		}
	}
	order, err := graph.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	table := symtab.New()
	for _, name := range order {
		mod, ok := modules[name]
		if !ok {
			continue
		}
		analyzer := sema.New()
		r := analyzer.Analyze(mod)
		table.Register(name, r.Arena.AllVisibleSymbols(0))
	}

	entryMod, ok := modules[entry]
	if !ok {
		return nil, fmt.Errorf("entry module %q not found", entry)
	}
	return p.CompileModule(entryMod)
}

func functionDecls(mod *ast.Module) []*ast.FunctionDecl {
	var out []*ast.FunctionDecl
	for _, d := range mod.Decls {
		if fn, ok := d.(*ast.FunctionDecl); ok {
			out = append(out, fn)
		}
	}
	return out
}

func buildCallGraph(funcs []*ast.FunctionDecl) *callgraph.Graph {
	g := callgraph.NewGraph()
	for _, fn := range funcs {
		g.AddFunction(fn.Name, fn.Span())
	}
	for _, fn := range funcs {
		if fn.Body == nil {
			continue
		}
		ast.Inspect(fn.Body, func(n ast.Node) bool {
			if call, ok := n.(*ast.CallExpr); ok {
				if callee, ok := call.Callee.(*ast.IdentifierExpr); ok {
					g.AddEdge(fn.Name, callee.Name, call.Span())
				}
			}
			return true
		})
	}
	return g
}

func recursionReport(re *callgraph.RecursionError) *diag.Report {
	code := diag.DirectRecursion
	switch re.Kind {
	case callgraph.MutualRecursion:
		code = diag.MutualRecursion
	case callgraph.IndirectRecursion:
		code = diag.IndirectRecursion
	}
	span := re.FunctionLoc
	return diag.New(code, diag.SevError, &span,
		fmt.Sprintf("%s participates in a forbidden recursive call cycle: %v", re.FunctionName, re.CyclePath)).
		WithRelated("first call in the cycle", re.FirstCallLoc).
		WithFix(callgraph.FixItNote)
}

func analyzeLoops(funcs []*ast.FunctionDecl) []LoopStats {
	var out []LoopStats
	for _, fn := range funcs {
		if fn.Body == nil {
			continue
		}
		f := cfg.Build(fn)
		dt := cfg.ComputeDominators(f)
		loops := cfg.FindNaturalLoops(f, dt)

		ivCount := 0
		for _, l := range loops {
			ivCount += len(l.BasicIVs) + len(l.DerivedIVs)
		}
		out = append(out, LoopStats{Function: fn.Name, NaturalLoops: len(loops), InductionVars: ivCount})
	}
	return out
}

func addGlobals(ilMod *il.Module, mod *ast.Module, globalTypes map[string]*types.Type) {
	for _, d := range mod.Decls {
		v, ok := d.(*ast.VariableDecl)
		if !ok {
			continue
		}
		t := globalTypes[v.Name]
		if t == nil {
			t = types.Unresolved()
		}
		ilMod.AddGlobal(il.Global{
			Name:    v.Name,
			Type:    il.FromSourceType(t),
			Storage: v.Storage.String(),
		})
	}
}

func codegenConfigFrom(cfg buildconfig.Config) codegen.Config {
	return codegen.Config{
		Origin:        cfg.Origin,
		CodeStart:     cfg.CodeStart,
		EmitBasicStub: cfg.BasicStub,
		ZeroPageBase:  cfg.ZeroPageBase,
		ZeroPageSize:  cfg.ZeroPageSize,
		RAMBase:       cfg.RAMBase,
	}
}
