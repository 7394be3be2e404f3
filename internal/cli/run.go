package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/harness"
	"github.com/roach88/sift/internal/rendermem"
	"github.com/roach88/sift/internal/rendersql"
	"github.com/roach88/sift/internal/resolve"
	"github.com/roach88/sift/internal/store"
	"github.com/roach88/sift/internal/table"
)

// NewRunCommand creates the run command.
func NewRunCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <query-file>",
		Short: "Render a query pipeline",
		Long: `Load a CUE query file, build its pipeline, and render it.

Query files with an inline table render through the in-memory engine.
Query files with from execute as SQL against the configured database.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args[0], cmd)
		},
	}
	return cmd
}

func runRun(opts *RootOptions, path string, cmd *cobra.Command) error {
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

	env, err := harness.BuildEnv(qf.Env)
	if err != nil {
		formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid env", err)
	}

	var (
		result *table.Table
		token  string
	)
	if qf.Table != nil {
		result, token, err = runMemory(formatter, qf, env)
	} else {
		result, err = runDatabase(opts, formatter, qf, env, cmd)
	}
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(CLIResponse{
			Status: "ok",
			Data:   TableRows(result),
			Token:  token,
		})
	}
	return WriteTable(cmd.OutOrStdout(), result, opts.Format)
}

// runMemory renders an inline-table query through the in-memory engine.
func runMemory(formatter *OutputFormatter, qf *QueryFile, env resolve.Env) (*table.Table, string, error) {
	base, err := harness.BuildTable(*qf.Table)
	if err != nil {
		formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return nil, "", WrapExitError(ExitCommandError, "invalid inline table", err)
	}

	src, err := harness.BuildPipeline(qf.Steps, base, env)
	if err != nil {
		formatter.Error(ErrCodePipeline, err.Error(), nil)
		return nil, "", WrapExitError(ExitFailure, "pipeline error", err)
	}

	res, err := rendermem.Render(src)
	if err != nil {
		formatter.Error(ErrCodeRender, err.Error(), nil)
		return nil, "", WrapExitError(ExitFailure, "render error", err)
	}

	formatter.VerboseLog("render %s", res.Token)
	for _, line := range res.Trace {
		formatter.VerboseLog("  %s", line)
	}
	return res.Table, res.Token, nil
}

// runDatabase compiles the query to SQL and executes it against the
// configured sqlite database.
func runDatabase(opts *RootOptions, formatter *OutputFormatter, qf *QueryFile, env resolve.Env, cmd *cobra.Command) (*table.Table, error) {
	ctx := cmd.Context()

	s, err := store.Open(opts.Database)
	if err != nil {
		formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("open database %s", opts.Database), err)
	}
	defer s.Close()

	base, err := s.Table(ctx, qf.From)
	if err != nil {
		formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("table %s", qf.From), err)
	}

	src, err := harness.BuildPipeline(qf.Steps, base, env)
	if err != nil {
		formatter.Error(ErrCodePipeline, err.Error(), nil)
		return nil, WrapExitError(ExitFailure, "pipeline error", err)
	}

	stmt, _, err := rendersql.Compile(src)
	if err != nil {
		formatter.Error(ErrCodeRender, err.Error(), nil)
		return nil, WrapExitError(ExitFailure, "compile error", err)
	}
	formatter.VerboseLog("sql: %s", stmt)

	result, err := rendersql.Render(ctx, s.DB(), src)
	if err != nil {
		formatter.Error(ErrCodeRender, err.Error(), nil)
		return nil, WrapExitError(ExitFailure, "render error", err)
	}
	return result, nil
}

// jsonOrText maps output formats onto the formatter's two modes; table
// and csv results print their own bodies, errors still format as text.
func jsonOrText(format string) string {
	if format == "json" {
		return "json"
	}
	return "text"
}
