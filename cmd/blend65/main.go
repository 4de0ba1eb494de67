package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/blendsdk/blend65/internal/acme"
	"github.com/blendsdk/blend65/internal/buildconfig"
	"github.com/blendsdk/blend65/internal/pipeline"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "print version information")
		helpFlag    = flag.Bool("help", false, "show help")
		configFlag  = flag.String("config", "", "path to a build manifest YAML file")
	)
	flag.Parse()

	if *versionFlag {
		printVersion()
		return
	}
	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	cfg := buildconfig.Default()
	if *configFlag != "" {
		loaded, err := buildconfig.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			os.Exit(1)
		}
		cfg = *loaded
	}

	command := flag.Arg(0)
	switch command {
	case "build":
		requireDemoArg(command)
		runBuild(cfg, flag.Arg(1))
	case "check":
		requireDemoArg(command)
		runCheck(cfg, flag.Arg(1))
	case "order":
		runOrder()
	case "repl":
		runREPL(cfg)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), command)
		printHelp()
		os.Exit(1)
	}
}

func requireDemoArg(command string) {
	if flag.NArg() < 2 {
		fmt.Fprintf(os.Stderr, "%s: missing demo name\n", red("Error"))
		fmt.Printf("Usage: blend65 %s <%s>\n", command, strings.Join(demoNames(), "|"))
		os.Exit(1)
	}
}

func runBuild(cfg buildconfig.Config, name string) {
	build, ok := demoModules[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "%s: unknown demo %q (choose one of: %s)\n", red("Error"), name, strings.Join(demoNames(), ", "))
		os.Exit(1)
	}

	p := pipeline.New(cfg)
	if inv := acme.NewInvoker(); inv.Available() {
		p.Invoker = inv
	}

	res, err := p.CompileModule(build())
	printSink(res.Sink)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	fmt.Printf("%s compiled %q\n", green("✓"), res.Module)
	if len(res.PRG) > 0 {
		if err := os.WriteFile(cfg.OutputPath, res.PRG, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "%s: failed to write %s: %v\n", red("Error"), cfg.OutputPath, err)
			os.Exit(1)
		}
		fmt.Printf("%s wrote %d bytes to %s\n", green("✓"), len(res.PRG), cfg.OutputPath)
	} else {
		fmt.Println(res.Assembly)
	}
}

func runCheck(cfg buildconfig.Config, name string) {
	build, ok := demoModules[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "%s: unknown demo %q (choose one of: %s)\n", red("Error"), name, strings.Join(demoNames(), ", "))
		os.Exit(1)
	}

	p := pipeline.New(cfg)
	res, err := p.CompileModule(build())
	printSink(res.Sink)
	if err != nil {
		os.Exit(1)
	}
	for _, ls := range res.LoopStats {
		fmt.Printf("%s %s: %d natural loop(s), %d induction variable(s)\n",
			cyan("→"), ls.Function, ls.NaturalLoops, ls.InductionVars)
	}
	fmt.Printf("%s no errors found\n", green("✓"))
}

func printVersion() {
	fmt.Printf("blend65 %s\n", bold(Version))
	if Commit != "unknown" {
		fmt.Printf("commit: %s\n", Commit)
	}
	if BuildTime != "unknown" {
		fmt.Printf("built:  %s\n", BuildTime)
	}
}

func printHelp() {
	fmt.Println(bold("blend65 - a compiler core for a statically-typed 6502 systems language"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  blend65 <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  build <demo>   compile a built-in demo module to assembly (or .prg if ACME is available)\n")
	fmt.Printf("  check <demo>   compile a demo module without ACME and report diagnostics and loop analysis\n")
	fmt.Printf("  order          print the topological compile order of the built-in demo module graph\n")
	fmt.Printf("  repl           interactively compile one demo module at a time and dump its IL\n")
	fmt.Println()
	fmt.Printf("Available demos: %s\n", strings.Join(demoNames(), ", "))
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
