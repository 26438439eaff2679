package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/objstore/internal/fault"
	"github.com/roach88/objstore/internal/ir"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Index    int        `json:"index"` // 1-based
	As       string     `json:"as"`
	Op       string     `json:"op"`
	Bind     string     `json:"bind,omitempty"` // set only if the step bound a record
	Digest   string     `json:"digest"`
	Status   string     `json:"status"`
	Code     fault.Code `json:"code,omitempty"`
	Expected bool       `json:"expected,omitempty"` // the abort matched expect_error
	Value    string     `json:"value,omitempty"`
	Events   []string   `json:"events"`
}

// ObjectState is the final designation of an alias.
type ObjectState struct {
	Alias string `json:"alias"`
	ID    ir.ID  `json:"id"`
	Owner string `json:"owner"`
}

// Result is the outcome of a scenario run.
type Result struct {
	Scenario string        `json:"scenario"`
	Pass     bool          `json:"pass"`
	Steps    []StepResult  `json:"steps"`
	State    []ObjectState `json:"state"`
	Orphans  int           `json:"orphans"`
	Errors   []string      `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Steps:    []StepResult{},
		State:    []ObjectState{},
		Errors:   []string{},
	}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Owner returns the rendered final owner of alias.
func (r *Result) Owner(alias string) (string, bool) {
	for _, s := range r.State {
		if s.Alias == alias {
			return s.Owner, true
		}
	}
	return "", false
}

// EventCount counts committed events of kind across all steps.
func (r *Result) EventCount(kind string) int {
	n := 0
	for _, s := range r.Steps {
		for _, k := range s.Events {
			if k == kind {
				n++
			}
		}
	}
	return n
}

// Render returns the plain-text trace compared against golden files:
//
//	scenario equip
//	#1 alice sword -> excalibur: committed [created]
//	#2 bob transfer: aborted NOT_AUTHORIZED (expected)
//	state
//	  excalibur: alice
//	orphans 0
func (r *Result) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s\n", r.Scenario)
	for _, s := range r.Steps {
		fmt.Fprintf(&b, "#%d %s %s", s.Index, s.As, s.Op)
		if s.Bind != "" {
			fmt.Fprintf(&b, " -> %s", s.Bind)
		}
		if s.Value != "" {
			fmt.Fprintf(&b, " = %s", s.Value)
		}
		fmt.Fprintf(&b, ": %s", s.Status)
		switch s.Status {
		case ir.StatusAborted:
			code := string(s.Code)
			if code == "" {
				code = "ERROR"
			}
			b.WriteString(" " + code)
			if s.Expected {
				b.WriteString(" (expected)")
			}
		case ir.StatusCommitted:
			fmt.Fprintf(&b, " [%s]", strings.Join(s.Events, ", "))
		}
		b.WriteByte('\n')
	}
	b.WriteString("state\n")
	for _, s := range r.State {
		fmt.Fprintf(&b, "  %s: %s\n", s.Alias, s.Owner)
	}
	fmt.Fprintf(&b, "orphans %d\n", r.Orphans)
	return b.String()
}
