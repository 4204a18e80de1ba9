package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/caseintake/internal/refdata"
	"github.com/roach88/caseintake/internal/rules"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Rules         string
	ReferenceData string
}

// ValidationError is one problem found in a configuration document.
type ValidationError struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	RuleSets []string          `json:"rule_sets,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate rule sets and reference data",
		Long: `Compile a CUE rule-set document against the built-in rule catalogue and
load a reference-data file, reporting every problem with its position.

Without flags the configured files are checked; with nothing configured the
embedded defaults are.

Exit codes:
  0 - Valid
  1 - Validation failed
  2 - Command error (file not found, etc.)

Examples:
  caseintake validate --rules ./rules.cue
  caseintake validate --reference-data ./refdata.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "CUE rule-set document (default from config)")
	cmd.Flags().StringVar(&opts.ReferenceData, "reference-data", "", "YAML reference-data file (default from config)")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	if err := opts.setup(); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	rulesPath := firstNonEmpty(opts.Rules, opts.Config.Rules)
	refPath := firstNonEmpty(opts.ReferenceData, opts.Config.ReferenceData)

	for _, p := range []string{rulesPath, refPath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			_ = f.Error(ErrCodeNotFound, fmt.Sprintf("file not found: %s", p), nil)
			return WrapExitError(ExitCommandError, "file not found", err)
		}
	}

	var result ValidationResult
	if rulesPath == "" {
		f.VerboseLog("Validating embedded rule sets")
	} else {
		f.VerboseLog("Validating rule sets in %s", rulesPath)
	}
	registry, err := rules.LoadRegistry(rulesPath)
	if err != nil {
		result.Errors = append(result.Errors, toValidationError(rulesPath, err))
	} else {
		result.RuleSets = registry.Names()
	}

	if refPath != "" {
		f.VerboseLog("Validating reference data in %s", refPath)
		if _, err := refdata.LoadFile(refPath); err != nil {
			result.Errors = append(result.Errors, ValidationError{File: refPath, Code: ErrCodeGeneric, Message: err.Error()})
		}
	}

	result.Valid = len(result.Errors) == 0
	if result.Valid {
		return outputValidateSuccess(f, result)
	}
	return outputValidationErrors(f, result)
}

// toValidationError maps a rule-set load error to a positioned problem.
func toValidationError(file string, err error) ValidationError {
	var loadErr *rules.LoadError
	if errors.As(err, &loadErr) {
		ve := ValidationError{File: file, Code: loadErr.Code, Message: loadErr.Message}
		if loadErr.Pos.IsValid() {
			ve.Line = loadErr.Pos.Line()
			ve.Column = loadErr.Pos.Column()
		}
		return ve
	}
	return ValidationError{File: file, Code: ErrCodeRules, Message: err.Error()}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(f *OutputFormatter, result ValidationResult) error {
	if f.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "✓ Configuration valid (%d rule set(s): %v)\n", len(result.RuleSets), result.RuleSets)
	return nil
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(f *OutputFormatter, result ValidationResult) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))

	if f.Format == "json" {
		if err := f.Failure(result.Errors[0].Code, result.Errors[0].Message, result); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)
	for _, e := range result.Errors {
		if e.Line > 0 {
			fmt.Fprintf(f.Writer, "%s:%d:%d\n", e.File, e.Line, e.Column)
		} else if e.File != "" {
			fmt.Fprintf(f.Writer, "%s\n", e.File)
		}
		fmt.Fprintf(f.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}
	return failure
}
