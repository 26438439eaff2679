package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/objstore/internal/config"
	"github.com/roach88/objstore/internal/harness"
)

// FileValidation is the validation outcome of one file.
type FileValidation struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"` // "config" or "scenario"
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check config and scenario files without running them",
		Long: `Validate CUE config files against the config schema and YAML scenario
files against the scenario format, without executing any transaction.

Files ending in .cue are configs; .yaml and .yml files are scenarios.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result := ValidationResult{Valid: true}
	for _, path := range paths {
		fv := validateFile(path)
		if !fv.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fv)
	}

	text := func(w io.Writer) {
		for _, fv := range result.Files {
			if fv.Valid {
				fmt.Fprintf(w, "✓ %s (%s)\n", fv.Path, fv.Kind)
				continue
			}
			fmt.Fprintf(w, "✗ %s (%s)\n  %s\n", fv.Path, fv.Kind, fv.Error)
		}
	}

	if !result.Valid {
		if err := formatter.Failure(ErrCodeInvalid, "validation failed", result, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "validation failed")
	}
	return formatter.Success(result, text)
}

func validateFile(path string) FileValidation {
	var err error
	fv := FileValidation{Path: path}
	switch filepath.Ext(path) {
	case ".cue":
		fv.Kind = "config"
		_, err = config.Load(path)
	case ".yaml", ".yml":
		fv.Kind = "scenario"
		_, err = harness.LoadScenario(path)
	default:
		fv.Kind = "unknown"
		err = fmt.Errorf("unrecognized extension %q", filepath.Ext(path))
	}
	if err != nil {
		fv.Error = err.Error()
		return fv
	}
	fv.Valid = true
	return fv
}
