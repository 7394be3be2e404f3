package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/sift/internal/harness"
)

// QueryFile is a pipeline definition loaded from a CUE file. The file must
// hold a top-level `query` value:
//
//	query: {
//		from: "players"        // table in the configured database
//		env: {cutoff: 1950}    // optional expression bindings
//		steps: [
//			{verb: "filter", exprs: ["year > cutoff"]},
//			{verb: "group_by", exprs: ["id"]},
//			{verb: "summarise", cols: [{name: "g", expr: "mean(g)"}]},
//		]
//	}
//
// Instead of from, a query file may carry its data inline in table,
// using the same columns/rows shape the scenario harness uses. Inline
// queries render in memory and need no database.
type QueryFile struct {
	From  string             `json:"from,omitempty"`
	Table *harness.TableSpec `json:"table,omitempty"`
	Env   map[string]any     `json:"env,omitempty"`
	Steps []harness.Step     `json:"steps"`
}

// LoadError represents an error that occurred while loading a query file.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadQueryFile reads, evaluates, and decodes a CUE query file.
func LoadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("query file not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("read query file: %v", err)}
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("compile CUE: %v", err)}
	}

	qv := value.LookupPath(cue.ParsePath("query"))
	if !qv.Exists() {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "query file must define a top-level query value"}
	}
	if err := qv.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("query value is not concrete: %v", err)}
	}

	var qf QueryFile
	if err := qv.Decode(&qf); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("decode query value: %v", err)}
	}

	if err := validateQueryFile(&qf); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return &qf, nil
}

// reportLoadError prints a load failure through the formatter and wraps
// it with a command exit code.
func reportLoadError(formatter *OutputFormatter, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		formatter.Error(le.Code, le.Message, nil)
	} else {
		formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
	}
	return WrapExitError(ExitCommandError, "load query file", err)
}

func validateQueryFile(qf *QueryFile) error {
	if qf.From == "" && qf.Table == nil {
		return fmt.Errorf("query must set from or table")
	}
	if qf.From != "" && qf.Table != nil {
		return fmt.Errorf("query must set only one of from and table")
	}
	if qf.Table != nil && len(qf.Table.Columns) == 0 {
		return fmt.Errorf("query.table.columns must be non-empty")
	}
	for i, step := range qf.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("query.steps[%d]: %w", i, err)
		}
	}
	return nil
}
