package report

import (
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"smellwatch/internal/engine/analyzer"
	"smellwatch/internal/engine/rules"
)

const toolURI = "https://github.com/smellwatch/smellwatch"

var ruleDescriptions = map[string]string{
	rules.RuleLogExcessive:   "Function emits more logging statements than the configured limit, or logs inside a loop.",
	rules.RuleGodClass:       "Class concentrates too many methods, too much complexity, or too many lines.",
	rules.RuleDuplicatedCode: "Structurally similar statement block appears in more than one function.",
	rules.RuleLongMethod:     "Function exceeds the configured length or cyclomatic complexity.",
	rules.RuleDeadCode:       "Definition is never referenced anywhere in the analyzed sources, or code follows a terminating statement.",
	rules.RuleMutableDefault: "Function parameter defaults to a mutable value shared across calls.",
}

func toSarifLevel(sev rules.Severity) string {
	switch sev {
	case rules.SeverityHigh:
		return "error"
	case rules.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF emits the findings as a SARIF 2.1.0 report for code
// scanning integrations.
func WriteSARIF(w io.Writer, rep *analyzer.Report) error {
	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}

	run := sarif.NewRunWithInformationURI("smellwatch", toolURI)

	seen := make(map[string]bool)
	for _, f := range rep.Findings {
		if !seen[f.RuleID] {
			seen[f.RuleID] = true
			run.AddRule(f.RuleID).
				WithDescription(ruleDescriptions[f.RuleID]).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{
					Level: toSarifLevel(f.Severity),
				})
		}

		locs := []*sarif.Location{makeLocation(f.File, f.Line)}
		for _, rel := range f.Related {
			locs = append(locs, makeLocation(rel.File, rel.Line))
		}

		result := sarif.NewRuleResult(f.RuleID).
			WithMessage(sarif.NewTextMessage(f.Message)).
			WithLevel(toSarifLevel(f.Severity)).
			WithLocations(locs[:1])
		if len(locs) > 1 {
			result.RelatedLocations = locs[1:]
		}
		run.AddResult(result)
	}

	doc.AddRun(run)
	return doc.PrettyWrite(w)
}

func makeLocation(path string, line int) *sarif.Location {
	return sarif.NewLocation().
		WithPhysicalLocation(sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewArtifactLocation().WithUri(path)).
			WithRegion(sarif.NewRegion().WithStartLine(line)))
}
