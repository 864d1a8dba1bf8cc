package diagnostic

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/oxhq/jsengine/internal/parser"
)

// Report is the result of a round-trip check (SPEC_FULL §4.14): whether
// reprinting the reparsed program reproduces the first printing, and, if
// not, a unified diff between the two renderings.
type Report struct {
	Source      string
	FirstPrint  string
	SecondPrint string
	Stable      bool
	Diff        string
}

// RoundTrip parses source, prints the result, reparses that printed form,
// and prints it again; a parser/printer pair that agrees with itself
// produces identical first and second printings. A mismatch means either
// the printer dropped information the parser needed, or the parser
// accepted the printed form but built a different tree from it — either
// way a defect worth surfacing, rendered as a unified diff the way the
// teacher renders a before/after transform diff.
func RoundTrip(source string) (*Report, error) {
	prog1, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("diagnostic: parsing source: %w", err)
	}
	printed1 := Print(prog1)

	prog2, err := parser.Parse(printed1)
	if err != nil {
		return nil, fmt.Errorf("diagnostic: reparsing printed output: %w\n--- printed ---\n%s", err, printed1)
	}
	printed2 := Print(prog2)

	report := &Report{
		Source:      source,
		FirstPrint:  printed1,
		SecondPrint: printed2,
		Stable:      printed1 == printed2,
	}
	if !report.Stable {
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(printed1),
			B:        difflib.SplitLines(printed2),
			FromFile: "first-print",
			ToFile:   "second-print",
			Context:  3,
		}
		text, derr := difflib.GetUnifiedDiffString(diff)
		if derr != nil {
			text = fmt.Sprintf("(diff error: %s)", derr)
		}
		report.Diff = text
	}
	return report, nil
}
