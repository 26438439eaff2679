package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/objstore/internal/fault"
)

// Scenario is a scripted sequence of transactions with assertions over
// the outcome.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description is a human-readable summary.
	Description string `yaml:"description"`

	// Escrow overrides the configured escrow settings for this run.
	Escrow *EscrowOverrides `yaml:"escrow,omitempty"`

	// Steps run in order, one transaction each.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// EscrowOverrides replaces individual escrow settings.
type EscrowOverrides struct {
	Operator string  `yaml:"operator,omitempty"`
	MinFee   *uint64 `yaml:"min_fee,omitempty"`
	Engine   string  `yaml:"engine,omitempty"`
	Terms    string  `yaml:"terms,omitempty"`
}

// Step is one transaction.
type Step struct {
	// As is the sending principal, a label or a 0x address.
	As string `yaml:"as"`

	// Op names the operation, e.g. "equip" or "swap".
	Op string `yaml:"op"`

	// Bind names the record produced by the step, if any.
	Bind string `yaml:"bind,omitempty"`

	// Args are the operation's arguments. Record arguments are aliases.
	Args map[string]any `yaml:"args,omitempty"`

	// ExpectError is the abort code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion types.
const (
	AssertOwner   = "owner"   // alias has the rendered owner
	AssertEvents  = "events"  // committed events of a kind
	AssertOrphans = "orphans" // unreachable slot entries
	AssertValue   = "value"   // value reported by a step
)

// Assertion checks the final state of a run.
type Assertion struct {
	Type string `yaml:"type"`

	// Object and Owner for owner assertions.
	Object string `yaml:"object,omitempty"`
	Owner  string `yaml:"owner,omitempty"`

	// Kind for events assertions.
	Kind string `yaml:"kind,omitempty"`

	// Count for events and orphans assertions.
	Count *int `yaml:"count,omitempty"`

	// Step (1-based) and Value for value assertions.
	Step  int    `yaml:"step,omitempty"`
	Value string `yaml:"value,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario. Unknown fields are
// rejected so typos surface immediately.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	bound := make(map[string]bool)
	for i, step := range s.Steps {
		if err := validateStep(step, bound); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.Bind != "" {
			bound[step.Bind] = true
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, len(s.Steps)); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step, bound map[string]bool) error {
	if step.As == "" {
		return fmt.Errorf("as is required")
	}
	o, ok := operations[step.Op]
	if !ok {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if step.ExpectError != "" {
		if _, err := fault.ParseCode(step.ExpectError); err != nil {
			return fmt.Errorf("expect_error: %w", err)
		}
	}
	for _, name := range o.refs {
		alias, ok := step.Args[name].(string)
		if !ok || alias == "" {
			return fmt.Errorf("%s: arg %q must name a bound record", step.Op, name)
		}
		if !bound[alias] {
			return fmt.Errorf("%s: %q is not bound by an earlier step", step.Op, alias)
		}
	}
	for _, name := range o.principals {
		if p, ok := step.Args[name].(string); !ok || p == "" {
			return fmt.Errorf("%s: arg %q must name a principal", step.Op, name)
		}
	}
	for name, v := range step.Args {
		if n, ok := v.(int); ok && n < 0 {
			return fmt.Errorf("%s: arg %q must not be negative", step.Op, name)
		}
	}
	if o.validate != nil {
		if err := o.validate(step.Args); err != nil {
			return fmt.Errorf("%s: %w", step.Op, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion, steps int) error {
	switch a.Type {
	case AssertOwner:
		if a.Object == "" || a.Owner == "" {
			return fmt.Errorf("object and owner are required for owner")
		}
	case AssertEvents:
		if a.Kind == "" || a.Count == nil {
			return fmt.Errorf("kind and count are required for events")
		}
	case AssertOrphans:
		if a.Count == nil {
			return fmt.Errorf("count is required for orphans")
		}
	case AssertValue:
		if a.Step < 1 || a.Step > steps {
			return fmt.Errorf("step must be between 1 and %d", steps)
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	if a.Count != nil && *a.Count < 0 {
		return fmt.Errorf("count must be non-negative")
	}
	return nil
}
