package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/blendsdk/blend65/internal/diag"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func printSink(sink *diag.Sink) {
	for _, r := range sink.SortedBySpan() {
		label := red("error")
		if r.Severity == diag.SevWarning {
			label = yellow("warning")
		} else if r.Severity == diag.SevInfo {
			label = cyan("info")
		}
		if r.Span != nil {
			fmt.Fprintf(os.Stderr, "%s[%s] %s: %s\n", label, r.Code, r.Span, r.Message)
		} else {
			fmt.Fprintf(os.Stderr, "%s[%s]: %s\n", label, r.Code, r.Message)
		}
		for _, rel := range r.Related {
			fmt.Fprintf(os.Stderr, "  %s %s: %s\n", cyan("note:"), rel.Span, rel.Message)
		}
		if r.Fix != nil {
			fmt.Fprintf(os.Stderr, "  %s %s\n", green("fix:"), r.Fix.Message)
		}
	}
}
