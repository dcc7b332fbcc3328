package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"spawnchild/pkg/verify"

	"github.com/acarl005/stripansi"
	"github.com/fatih/color"
	"github.com/rodaine/table"
)

func printOutcomes(w io.Writer, outcomes []verify.Outcome, summary verify.Summary) {
	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt := color.New(color.FgYellow).SprintfFunc()
	tbl := table.New("Check", "Result", "Duration", "Run ID").WithWriter(w)
	tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt).WithWidthFunc(visibleWidth)

	for _, o := range outcomes {
		result := color.GreenString("PASS")
		if !o.Passed {
			result = color.RedString("FAIL")
		}
		tbl.AddRow(o.Name, result, o.Duration.Round(time.Millisecond), o.RunID)
	}
	tbl.Print()

	for _, o := range outcomes {
		if o.Passed {
			continue
		}
		fmt.Fprintf(w, "\n--- %s\n", color.RedString(o.Name))
		for _, failure := range o.Failures {
			fmt.Fprintf(w, "   - %s\n", indent(failure, "     "))
		}
	}

	fmt.Fprintf(w, "\n%d checks, %d passed, %d failed\n", summary.Total, summary.Passed, summary.Failed)
}

// visibleWidth measures a cell without its ANSI color sequences.
func visibleWidth(s string) int {
	return utf8.RuneCountInString(stripansi.Strip(s))
}

// indent prefixes every line after the first with prefix.
func indent(s, prefix string) string {
	return strings.ReplaceAll(strings.TrimSuffix(s, "\n"), "\n", "\n"+prefix)
}
