package harness

import (
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares its rendered artifact
// against testdata/golden/<name>.golden. Error scenarios record the error
// text; success scenarios record the result table and the render trace.
// The render token is excluded, it differs per run.
func RunWithGolden(t *testing.T, sc *Scenario) error {
	t.Helper()

	res, err := Run(context.Background(), sc)
	if err != nil {
		return err
	}

	var b strings.Builder
	if res.Err != nil {
		b.WriteString("error: ")
		b.WriteString(res.Err.Error())
		b.WriteByte('\n')
	} else {
		b.WriteString(res.Memory.Table.String())
		b.WriteString("-- trace --\n")
		for _, line := range res.Memory.Trace {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, []byte(b.String()))
	return nil
}
