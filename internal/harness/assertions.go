package harness

import (
	"fmt"
	"strconv"
	"strings"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns
// the failure messages, empty if all hold.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertOwner:
		owner, ok := result.Owner(a.Object)
		if !ok {
			owner = "(unbound)"
		}
		if owner != a.Owner {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s owned by %s", a.Object, a.Owner),
				Actual:   owner,
			}
		}
	case AssertEvents:
		if n := result.EventCount(a.Kind); n != *a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d %s events", *a.Count, a.Kind),
				Actual:   strconv.Itoa(n),
			}
		}
	case AssertOrphans:
		if result.Orphans != *a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d orphaned slots", *a.Count),
				Actual:   strconv.Itoa(result.Orphans),
			}
		}
	case AssertValue:
		if a.Step > len(result.Steps) {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("step %d", a.Step), Actual: "not run"}
		}
		if got := result.Steps[a.Step-1].Value; got != a.Value {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("step %d reports %s", a.Step, a.Value),
				Actual:   got,
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
