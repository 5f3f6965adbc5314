// Package report renders an analysis Report for the outside world. The
// engine hands over immutable findings; formats only group and print.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"smellwatch/internal/engine/analyzer"
	"smellwatch/internal/engine/rules"
)

// WriteText prints the findings grouped by rule, with a per-rule count
// and a closing summary.
func WriteText(w io.Writer, rep *analyzer.Report) error {
	if len(rep.Findings) == 0 {
		fmt.Fprintf(w, "No issues found in %d unit(s).\n", rep.Units)
		writeSkipped(w, rep)
		return nil
	}

	fmt.Fprintf(w, "Found %d issue(s) in %d unit(s):\n", len(rep.Findings), rep.Units)

	byRule := make(map[string][]rules.Finding)
	for _, f := range rep.Findings {
		byRule[f.Rule] = append(byRule[f.Rule], f)
	}
	names := make([]string, 0, len(byRule))
	for name := range byRule {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		group := byRule[name]
		fmt.Fprintf(w, "\n%s (%d issue(s)):\n", name, len(group))
		for _, f := range group {
			fmt.Fprintf(w, "  %s:%d: %s\n", f.File, f.Line, f.Message)
		}
	}

	fmt.Fprintf(w, "\n%d issue(s) total, run %s in %s\n", len(rep.Findings), rep.RunID, rep.Duration.Round(time.Millisecond))
	writeSkipped(w, rep)
	return nil
}

func writeSkipped(w io.Writer, rep *analyzer.Report) {
	for _, skip := range rep.Skipped {
		fmt.Fprintf(w, "skipped %s: %s\n", skip.Path, skip.Reason)
	}
}
