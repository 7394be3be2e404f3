package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/harness"
)

// ValidationResult holds validation results for one file.
type ValidationResult struct {
	File  string `json:"file"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check query files and scenarios without running them",
		Long: `Validate one or more files: .cue files parse as query files, .yaml
files parse as harness scenarios. Nothing executes; only file structure
is checked.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    jsonOrText(opts.Format),
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	results := make([]ValidationResult, 0, len(paths))
	failed := 0
	for _, path := range paths {
		res := ValidationResult{File: path, Valid: true}
		if err := validateFile(path); err != nil {
			res.Valid = false
			res.Error = err.Error()
			failed++
		}
		results = append(results, res)
	}

	if opts.Format == "json" {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if res.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "ok    %s\n", res.File)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "error %s: %s\n", res.File, res.Error)
			}
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d file(s) invalid", failed, len(paths)))
	}
	return nil
}

func validateFile(path string) error {
	switch filepath.Ext(path) {
	case ".cue":
		_, err := LoadQueryFile(path)
		return err
	case ".yaml", ".yml":
		_, err := harness.LoadScenario(path)
		return err
	default:
		return fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}
