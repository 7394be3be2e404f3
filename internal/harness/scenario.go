package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in a scenario's backends list.
const (
	BackendMemory = "memory"
	BackendSQL    = "sql"
)

// Scenario defines one conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Doubles as the golden file
	// name when the scenario runs under RunWithGolden.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Table is the inline base table the pipeline reads from.
	Table TableSpec `yaml:"table"`

	// Env supplies bindings for free identifiers in step expressions.
	Env map[string]any `yaml:"env,omitempty"`

	// Steps lists the verbs applied in order.
	Steps []Step `yaml:"steps"`

	// Expect is the expected result table. Mutually exclusive with Error.
	Expect *Expect `yaml:"expect,omitempty"`

	// Error is a fragment the pipeline or render error must contain.
	// Mutually exclusive with Expect.
	Error string `yaml:"error,omitempty"`

	// Backends selects the renderers to run. Defaults to [memory].
	// Listing sql also executes against sqlite and checks agreement.
	Backends []string `yaml:"backends,omitempty"`
}

// TableSpec is an inline table: column names plus rows of native values.
type TableSpec struct {
	Columns []string `yaml:"columns"`
	Rows    [][]any  `yaml:"rows,omitempty"`
}

// Step is a single verb application. Exactly one of Exprs, Cols, or Keys
// applies, depending on the verb:
//
//   - filter, group_by, select: Exprs (expression strings)
//   - mutate, summarise: Cols (name/expression pairs)
//   - arrange: Keys (expression plus optional desc flag)
type Step struct {
	Verb  string     `yaml:"verb"`
	Exprs []string   `yaml:"exprs,omitempty"`
	Cols  []NamedCol `yaml:"cols,omitempty"`
	Keys  []SortSpec `yaml:"keys,omitempty"`
}

// NamedCol is one mutate or summarise entry. An empty Name takes the
// deparsed expression as the column name.
type NamedCol struct {
	Name string `yaml:"name,omitempty"`
	Expr string `yaml:"expr"`
}

// SortSpec is one arrange key.
type SortSpec struct {
	Expr string `yaml:"expr"`
	Desc bool   `yaml:"desc,omitempty"`
}

// Expect is the expected rendered table.
type Expect struct {
	Columns []string `yaml:"columns"`
	Rows    [][]any  `yaml:"rows,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently passing.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &sc, nil
}

func validateScenario(sc *Scenario) error {
	if sc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if sc.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(sc.Table.Columns) == 0 {
		return fmt.Errorf("table.columns is required and must be non-empty")
	}
	for i, row := range sc.Table.Rows {
		if len(row) != len(sc.Table.Columns) {
			return fmt.Errorf("table row %d has %d values, want %d", i, len(row), len(sc.Table.Columns))
		}
	}
	if sc.Expect == nil && sc.Error == "" {
		return fmt.Errorf("one of expect or error is required")
	}
	if sc.Expect != nil && sc.Error != "" {
		return fmt.Errorf("expect and error are mutually exclusive")
	}
	for i, step := range sc.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	for _, b := range sc.Backends {
		if b != BackendMemory && b != BackendSQL {
			return fmt.Errorf("unknown backend %q", b)
		}
	}
	return nil
}

// Validate checks that the step names a known verb and carries the
// argument list that verb requires.
func (s Step) Validate() error {
	switch s.Verb {
	case "filter", "group_by", "select":
		if len(s.Exprs) == 0 {
			return fmt.Errorf("%s requires exprs", s.Verb)
		}
	case "mutate", "summarise":
		if len(s.Cols) == 0 {
			return fmt.Errorf("%s requires cols", s.Verb)
		}
	case "arrange":
		if len(s.Keys) == 0 {
			return fmt.Errorf("arrange requires keys")
		}
	case "":
		return fmt.Errorf("verb is required")
	default:
		return fmt.Errorf("unknown verb %q", s.Verb)
	}
	return nil
}
