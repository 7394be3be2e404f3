package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/harness"
	"github.com/roach88/sift/internal/rendersql"
	"github.com/roach88/sift/internal/store"
)

// SQLResult is the payload for the sql command.
type SQLResult struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params,omitempty"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql <query-file>",
		Short: "Print the SQL a query compiles to, without executing it",
		Long: `Load a CUE query file, build its pipeline over the named table in the
configured database, and print the parameterized SELECT it compiles to.
The query is not executed. Query files with inline tables have no SQL
form and are rejected.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(opts, args[0], cmd)
		},
	}
	return cmd
}

func runSQL(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    jsonOrText(opts.Format),
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	qf, err := LoadQueryFile(path)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	if qf.From == "" {
		formatter.Error(ErrCodeLoadFailed, "query has an inline table, nothing to compile", nil)
		return NewExitError(ExitCommandError, "query has an inline table")
	}

	env, err := harness.BuildEnv(qf.Env)
	if err != nil {
		formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid env", err)
	}

	ctx := cmd.Context()
	s, err := store.Open(opts.Database)
	if err != nil {
		formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, fmt.Sprintf("open database %s", opts.Database), err)
	}
	defer s.Close()

	base, err := s.Table(ctx, qf.From)
	if err != nil {
		formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, fmt.Sprintf("table %s", qf.From), err)
	}

	src, err := harness.BuildPipeline(qf.Steps, base, env)
	if err != nil {
		formatter.Error(ErrCodePipeline, err.Error(), nil)
		return WrapExitError(ExitFailure, "pipeline error", err)
	}

	stmt, params, err := rendersql.Compile(src)
	if err != nil {
		formatter.Error(ErrCodeRender, err.Error(), nil)
		return WrapExitError(ExitFailure, "compile error", err)
	}

	if opts.Format == "json" {
		return formatter.Success(SQLResult{SQL: stmt, Params: params})
	}
	fmt.Fprintln(cmd.OutOrStdout(), stmt)
	if len(params) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "-- params: %v\n", params)
	}
	return nil
}
