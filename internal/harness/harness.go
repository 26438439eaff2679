package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/objstore/internal/config"
	"github.com/roach88/objstore/internal/engine"
	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/object"
	"github.com/roach88/objstore/internal/store"
	"github.com/roach88/objstore/internal/terms"
	"github.com/roach88/objstore/internal/testutil"
)

// statusSkipped marks a step whose record arguments were never bound
// because an earlier step failed.
const statusSkipped = "skipped"

// Option configures a run.
type Option func(*runner)

// WithConfig runs against cfg instead of config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(r *runner) {
		if cfg != nil {
			r.cfg = cfg
		}
	}
}

// WithJournal records every step's transaction in j.
func WithJournal(j *store.Store) Option {
	return func(r *runner) {
		r.journal = j
	}
}

// runner holds the alias bookkeeping of one run.
type runner struct {
	cfg     *config.Config
	journal *store.Store

	aliases map[string]ir.ID
	order   []string             // aliases in first-bind order
	names   map[ir.ID]string     // first alias bound to each record
	labels  map[ir.Address]string // first label used for each principal
}

// Run executes a scenario on a fresh engine and returns the result.
//
// Aborts that a step does not expect, committed steps that expected an
// abort, and failed assertions are reported in Result.Errors. A returned
// error means the scenario could not be run at all: a bad principal, a
// terms expression that does not compile, or a journal failure.
func Run(ctx context.Context, sc *Scenario, opts ...Option) (*Result, error) {
	r := &runner{
		cfg:     config.Default(),
		aliases: make(map[string]ir.ID),
		names:   make(map[ir.ID]string),
		labels:  make(map[ir.Address]string),
	}
	for _, opt := range opts {
		opt(r)
	}

	env, err := r.environment(sc)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	digests := testutil.NewSequentialDigests(sc.Name)
	engOpts := []engine.EngineOption{engine.WithDigestGenerator(digests)}
	if r.journal != nil {
		// Digests are journal keys; a rerun against the same journal
		// continues numbering after what is already there.
		stats, err := r.journal.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		digests.AdvanceTo(int(stats.Committed + stats.Aborted))
		engOpts = append(engOpts, engine.WithJournal(r.journal))
	}
	eng := engine.New(nil, engOpts...)
	if err := eng.Resume(ctx); err != nil {
		return nil, err
	}

	result := NewResult(sc.Name)
	for i, step := range sc.Steps {
		sr, err := r.step(ctx, eng, env, i+1, step, result)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: step %d (%s): %w", sc.Name, i+1, step.Op, err)
		}
		result.Steps = append(result.Steps, sr)
		slog.Debug("scenario step",
			"scenario", sc.Name,
			"step", sr.Index,
			"op", sr.Op,
			"status", sr.Status,
			"code", sr.Code)
	}

	err = eng.View(func(s *object.Store) error {
		for _, alias := range r.order {
			id := r.aliases[alias]
			result.State = append(result.State, ObjectState{Alias: alias, ID: id, Owner: r.describe(s, id)})
		}
		result.Orphans = len(s.Orphans())
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, sc.Assertions) {
		result.AddError("%s", msg)
	}
	return result, nil
}

func (r *runner) environment(sc *Scenario) (*environment, error) {
	esc := r.cfg.Escrow
	if o := sc.Escrow; o != nil {
		if o.Operator != "" {
			esc.Operator = o.Operator
		}
		if o.MinFee != nil {
			esc.MinFee = *o.MinFee
		}
		if o.Engine != "" {
			esc.Engine = o.Engine
		}
		if o.Terms != "" {
			esc.Terms = o.Terms
		}
	}

	operator, err := r.principal(esc.Operator)
	if err != nil {
		return nil, fmt.Errorf("escrow operator: %w", err)
	}
	pred, err := esc.Predicate(terms.NewProgramCache(esc.TTL()))
	if err != nil {
		return nil, fmt.Errorf("escrow terms: %w", err)
	}
	return &environment{operator: operator, minFee: esc.MinFee, terms: pred}, nil
}

func (r *runner) step(ctx context.Context, eng *engine.Engine, env *environment, index int, step Step, result *Result) (StepResult, error) {
	sr := StepResult{Index: index, As: step.As, Op: step.Op, Events: []string{}}
	o := operations[step.Op]

	sender, err := r.principal(step.As)
	if err != nil {
		return sr, err
	}
	c := &call{
		args:  step.Args,
		ids:   make(map[string]ir.ID, len(o.refs)),
		addrs: make(map[string]ir.Address, len(o.principals)),
		env:   env,
	}
	for _, name := range o.principals {
		label, _ := step.Args[name].(string)
		a, err := r.principal(label)
		if err != nil {
			return sr, fmt.Errorf("arg %q: %w", name, err)
		}
		c.addrs[name] = a
	}
	for _, name := range o.refs {
		alias, _ := step.Args[name].(string)
		id, ok := r.aliases[alias]
		if !ok {
			sr.Status = statusSkipped
			result.AddError("step %d (%s): %q was never bound", index, step.Op, alias)
			return sr, nil
		}
		c.ids[name] = id
	}

	var out outcome
	receipt, err := eng.Execute(ctx, sender, func(tx *object.Tx) error {
		c.tx = tx
		var err error
		out, err = o.run(c)
		return err
	})
	if receipt.Status == "" {
		return sr, err
	}
	sr.Digest = receipt.Digest
	sr.Status = receipt.Status
	for _, ev := range receipt.Events {
		sr.Events = append(sr.Events, ev.Kind)
	}

	if receipt.Committed() {
		sr.Value = out.value
		if step.Bind != "" && !out.bind.IsZero() {
			r.bind(step.Bind, out.bind)
			sr.Bind = step.Bind
		}
		if step.ExpectError != "" {
			result.AddError("step %d (%s): expected %s, transaction committed", index, step.Op, step.ExpectError)
		}
		return sr, nil
	}

	if receipt.Abort != nil {
		sr.Code = receipt.Abort.Code
	}
	switch {
	case engine.IsJournalError(err):
		return sr, err
	case step.ExpectError == "":
		result.AddError("step %d (%s): unexpected abort: %v", index, step.Op, err)
	case string(sr.Code) != step.ExpectError:
		result.AddError("step %d (%s): expected %s, aborted with %v", index, step.Op, step.ExpectError, err)
	default:
		sr.Expected = true
	}
	return sr, nil
}

func (r *runner) bind(alias string, id ir.ID) {
	if _, ok := r.aliases[alias]; !ok {
		r.order = append(r.order, alias)
	}
	r.aliases[alias] = id
	if _, ok := r.names[id]; !ok {
		r.names[id] = alias
	}
}

func (r *runner) principal(label string) (ir.Address, error) {
	a, err := config.Principal(label)
	if err != nil {
		return ir.Address{}, err
	}
	if _, ok := r.labels[a]; !ok {
		r.labels[a] = label
	}
	return a, nil
}

func (r *runner) name(id ir.ID) string {
	if alias, ok := r.names[id]; ok {
		return alias
	}
	return id.Short()
}

func (r *runner) principalName(a ir.Address) string {
	if label, ok := r.labels[a]; ok {
		return label
	}
	return a.Short()
}

// describe renders the designation of id in the final state.
func (r *runner) describe(s *object.Store, id ir.ID) string {
	o, ok := s.Owner(id)
	if !ok {
		if s.Retired(id) {
			return "retired"
		}
		return "missing"
	}
	switch o.Kind {
	case object.KindUniquelyHeld:
		return r.principalName(o.Principal)
	case object.KindEmbedded:
		return "embedded in " + r.name(o.Parent)
	case object.KindSlotted:
		d := "slotted in " + r.name(o.Parent)
		if o.Hidden {
			d += " (opaque)"
		}
		return d
	case object.KindFrozen:
		return "frozen"
	}
	return o.Kind.String()
}
