// Package config loads objstore configuration from CUE.
//
// A config file is unified with the embedded #Config schema, which
// supplies defaults and rejects unknown or ill-typed fields:
//
//	origin:   "0xa11ce"
//	database: "objstore.db"
//	escrow: {
//		min_fee: 25
//		engine:  "cel"
//	}
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/terms"
	"github.com/roach88/objstore/internal/typetag"
)

//go:embed schema.cue
var schemaCUE string

// Config is the decoded configuration.
type Config struct {
	Origin   string `json:"origin"`
	Database string `json:"database"`
	LogLevel string `json:"log_level"`
	Escrow   Escrow `json:"escrow"`
}

// Escrow configures the escrow operator and its exchange terms.
type Escrow struct {
	Operator string `json:"operator"`
	MinFee   uint64 `json:"min_fee"`
	Engine   string `json:"engine"`
	Terms    string `json:"terms"`
	CacheTTL string `json:"cache_ttl"`
}

// Error is a configuration error with source position.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Default returns the configuration an empty file produces.
func Default() *Config {
	c, err := Parse("default.cue", nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return c
}

// Load reads and validates the CUE file at path. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates CUE source against the schema and decodes it.
func Parse(filename string, src []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if len(src) > 0 {
		file := ctx.CompileBytes(src, cue.Filename(filename))
		if err := file.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		v = v.Unify(file)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var c Config
	if err := v.Decode(&c); err != nil {
		return nil, formatCUEError(err)
	}
	return &c, nil
}

// formatCUEError keeps the first error and its source position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	e := &Error{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Apply installs process-wide settings: the type tag origin.
func (c *Config) Apply() {
	typetag.SetOrigin(c.Origin)
}

// OperatorAddress resolves the escrow operator.
func (e Escrow) OperatorAddress() (ir.Address, error) {
	return Principal(e.Operator)
}

// TTL returns the program cache TTL.
func (e Escrow) TTL() time.Duration {
	d, err := time.ParseDuration(e.CacheTTL)
	if err != nil {
		return terms.DefaultProgramTTL
	}
	return d
}

// Predicate compiles the exchange terms.
func (e Escrow) Predicate(cache terms.ProgramCache) (*terms.Predicate, error) {
	engine, err := terms.ParseEngine(e.Engine)
	if err != nil {
		return nil, err
	}
	return terms.Compile(engine, e.Terms, terms.WithProgramCache(cache))
}

// Principal resolves a principal written either as a 0x address or as a
// label such as "alice".
func Principal(s string) (ir.Address, error) {
	if strings.HasPrefix(s, "0x") {
		return ir.ParseAddress(s)
	}
	if s == "" {
		return ir.Address{}, fmt.Errorf("empty principal")
	}
	return ir.AddressFromLabel(s), nil
}
