// Package diag provides Blend65's structured diagnostic model: a Report
// type carried through the pipeline as an error, plus a thread-safe Sink
// that passes accumulate diagnostics into (spec §5, §7).
package diag

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/blendsdk/blend65/internal/ast"
)

// Schema is the versioned schema tag every Report carries.
const Schema = "blend65.diag/v1"

// Severity classifies a Report.
type Severity int

const (
	SevError Severity = iota
	SevWarning
	SevInfo
)

func (s Severity) String() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

// Fix is an optional suggested remediation attached to a Report.
type Fix struct {
	Message string `json:"message"`
}

// Related attaches a secondary location to a Report, e.g. the first
// declaration site in a duplicate-declaration error.
type Related struct {
	Message string   `json:"message"`
	Span    ast.Span `json:"span"`
}

// Report is the canonical structured diagnostic type for Blend65.
type Report struct {
	Schema   string         `json:"schema"`
	Code     string         `json:"code"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Span     *ast.Span      `json:"span,omitempty"`
	Related  []Related      `json:"related,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Fix      *Fix           `json:"fix,omitempty"`
}

// ReportError wraps a Report so it survives errors.As() unwrapping across a
// function boundary that otherwise returns a plain error.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown diagnostic"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a Report from an error chain, if one is present.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps a Report as an error. Returns nil for a nil Report.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON renders a Report as deterministic JSON.
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// New creates a Report with the schema field pre-filled.
func New(code string, sev Severity, span *ast.Span, message string) *Report {
	return &Report{Schema: Schema, Code: code, Severity: sev, Span: span, Message: message}
}

// WithData attaches structured data to the report and returns it for
// chaining.
func (r *Report) WithData(key string, value any) *Report {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = value
	return r
}

// WithRelated appends a related location and returns the report for
// chaining.
func (r *Report) WithRelated(message string, span ast.Span) *Report {
	r.Related = append(r.Related, Related{Message: message, Span: span})
	return r
}

// WithFix attaches a suggested fix and returns the report for chaining.
func (r *Report) WithFix(message string) *Report {
	r.Fix = &Fix{Message: message}
	return r
}

// Sink accumulates diagnostics produced by a pass. It is safe for
// concurrent use (spec §5: "a simple guarded list suffices") so a future
// module-parallel scheduler can share one Sink across goroutines analysing
// independent modules.
type Sink struct {
	mu      sync.Mutex
	reports []*Report
}

// NewSink creates an empty Sink.
func NewSink() *Sink { return &Sink{} }

// Add appends a report to the sink.
func (s *Sink) Add(r *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
}

// HasErrors reports whether any Error-severity report has been added.
func (s *Sink) HasErrors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.Severity == SevError {
			return true
		}
	}
	return false
}

// Reports returns a snapshot of all accumulated reports in insertion order
// (spec §5's per-module source-order guarantee).
func (s *Sink) Reports() []*Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Report, len(s.reports))
	copy(out, s.reports)
	return out
}

// SortedBySpan returns the accumulated reports sorted by source span start
// position, for deterministic rendering regardless of insertion order.
func (s *Sink) SortedBySpan() []*Report {
	out := s.Reports()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Span, out[j].Span
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		if a.Start.Line != b.Start.Line {
			return a.Start.Line < b.Start.Line
		}
		return a.Start.Col < b.Start.Col
	})
	return out
}

// Len returns the number of accumulated reports.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}
