package acme

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Result is the outcome of one ACME invocation.
type Result struct {
	Assembly string // the ACME source text that was assembled
	PRG      []byte // the .prg bytes, nil if assembly failed
	Warning  string // non-empty when acme exited non-zero; never fatal
}

// Invoker shells out to the external `acme` binary (spec §4.9, §6:
// "non-zero exit status is a warning, not a fatal error"). Modeled on
// the temp-file-plus-exec.Command pattern used to invoke external model
// runtimes, with guaranteed temp file cleanup.
type Invoker struct {
	// BinaryPath is the `acme` executable to invoke; defaults to
	// "acme" (resolved via PATH) when empty.
	BinaryPath string
	Timeout    time.Duration
}

func NewInvoker() *Invoker {
	return &Invoker{BinaryPath: "acme", Timeout: 10 * time.Second}
}

// Assemble writes the ACME source text to a temp file, invokes acme to
// produce a .prg at another temp path, and returns both the source
// text and (if assembly succeeded) the resulting bytes.
func (inv *Invoker) Assemble(source string) (*Result, error) {
	dir, err := os.MkdirTemp("", "blend65-acme-*")
	if err != nil {
		return nil, fmt.Errorf("acme: failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	srcPath := filepath.Join(dir, "module.asm")
	outPath := filepath.Join(dir, "module.prg")
	if err := os.WriteFile(srcPath, []byte(source), 0o644); err != nil {
		return nil, fmt.Errorf("acme: failed to write source: %w", err)
	}

	binary := inv.BinaryPath
	if binary == "" {
		binary = "acme"
	}

	ctx, cancel := context.WithTimeout(context.Background(), inv.effectiveTimeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "-o", outPath, srcPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	result := &Result{Assembly: source}

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			result.Warning = "acme: assembly timed out"
			return result, nil
		}
		result.Warning = fmt.Sprintf("acme exited with an error: %s", stderr.String())
		return result, nil
	}

	prg, err := os.ReadFile(outPath)
	if err != nil {
		result.Warning = fmt.Sprintf("acme reported success but produced no output: %v", err)
		return result, nil
	}
	result.PRG = prg
	return result, nil
}

func (inv *Invoker) effectiveTimeout() time.Duration {
	if inv.Timeout <= 0 {
		return 10 * time.Second
	}
	return inv.Timeout
}

// Available reports whether the configured acme binary can be found on
// PATH, so callers can skip assembly gracefully rather than fail.
func (inv *Invoker) Available() bool {
	binary := inv.BinaryPath
	if binary == "" {
		binary = "acme"
	}
	_, err := exec.LookPath(binary)
	return err == nil
}
