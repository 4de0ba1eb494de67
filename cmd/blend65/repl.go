package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/blendsdk/blend65/internal/buildconfig"
	"github.com/blendsdk/blend65/internal/il"
	"github.com/blendsdk/blend65/internal/pipeline"
)

// runREPL type-checks and dumps the IL for one built-in demo module at a
// time; there is no expression parser in this repository (spec.md marks
// the frontend as an external collaborator), so each line names a demo
// instead of source text.
func runREPL(cfg buildconfig.Config) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(s string) (c []string) {
		for _, n := range demoNames() {
			if strings.HasPrefix(n, s) {
				c = append(c, n)
			}
		}
		return
	})

	fmt.Printf("%s %s\n", bold("blend65"), bold(Version))
	fmt.Println("Type a demo name to compile it and dump its IL, :list to see demos, :quit to exit.")

	for {
		input, err := line.Prompt("blend65> ")
		if err == io.EOF {
			fmt.Println(green("\nGoodbye!"))
			return
		}
		if err != nil {
			fmt.Printf("%s: %v\n", red("Error"), err)
			continue
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch input {
		case ":quit", ":q":
			return
		case ":list":
			fmt.Println(strings.Join(demoNames(), ", "))
			continue
		}

		build, ok := demoModules[input]
		if !ok {
			fmt.Printf("%s: unknown demo %q (:list to see available demos)\n", red("Error"), input)
			continue
		}

		p := pipeline.New(cfg)
		res, err := p.CompileModule(build())
		printSink(res.Sink)
		if err != nil {
			continue
		}
		dumpIL(res.IL)
	}
}

func dumpIL(mod *il.Module) {
	if mod == nil {
		return
	}
	names := make([]string, 0, len(mod.Functions))
	for name := range mod.Functions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fn := mod.Functions[name]
		fmt.Printf("%s %s(%v) -> %s\n", cyan("func"), fn.Name, fn.ParamTypes, fn.ReturnType)
		for _, b := range fn.Blocks {
			fmt.Printf("  %s:\n", b.Label)
			for _, in := range b.Instructions {
				fmt.Printf("    %s\n", in.ToString())
			}
		}
	}
}
