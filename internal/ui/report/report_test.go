package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"smellwatch/internal/engine/analyzer"
	"smellwatch/internal/engine/rules"
)

func sampleReport() *analyzer.Report {
	findings := []rules.Finding{
		{
			RuleID:   rules.RuleGodClass,
			Rule:     "GodClass",
			Severity: rules.SeverityHigh,
			File:     "app.py",
			Line:     10,
			EndLine:  80,
			Message:  "Class 'Everything' is a God Class: 14 methods (max: 10)",
		},
		{
			RuleID:   rules.RuleDeadCode,
			Rule:     "DeadCode",
			Severity: rules.SeverityMedium,
			File:     "util.py",
			Line:     3,
			EndLine:  5,
			Message:  "Unused function 'orphan' is never referenced",
		},
		{
			RuleID:   rules.RuleDuplicatedCode,
			Rule:     "DuplicatedCode",
			Severity: rules.SeverityMedium,
			File:     "a.py",
			Line:     4,
			EndLine:  9,
			Message:  "Duplicated code block (4 statements) in 'fa' also appears in: fb() (b.py:4-9)",
			Related:  []rules.Location{{File: "b.py", Line: 4, EndLine: 9}},
		},
	}
	return &analyzer.Report{
		RunID:     "test-run",
		StartedAt: time.Now(),
		Duration:  125 * time.Millisecond,
		Units:     3,
		Findings:  findings,
		Skipped:   []analyzer.SkippedUnit{{Path: "broken.py", Reason: "syntax errors in source"}},
		Summary:   rules.Summarize(findings),
	}
}

func TestWriteTextGroupsByRule(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"Found 3 issue(s) in 3 unit(s):",
		"GodClass (1 issue(s)):",
		"DeadCode (1 issue(s)):",
		"app.py:10: Class 'Everything'",
		"skipped broken.py: syntax errors in source",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestWriteTextEmpty(t *testing.T) {
	rep := sampleReport()
	rep.Findings = nil
	rep.Skipped = nil

	var buf bytes.Buffer
	if err := WriteText(&buf, rep); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No issues found in 3 unit(s).") {
		t.Errorf("Unexpected output: %s", buf.String())
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}

	var decoded analyzer.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.RunID != "test-run" || len(decoded.Findings) != 3 {
		t.Errorf("Unexpected decode: %+v", decoded)
	}
	if decoded.Findings[2].Related[0].File != "b.py" {
		t.Errorf("Expected related locations preserved, got %+v", decoded.Findings[2])
	}
}

func TestWriteSARIF(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid SARIF JSON: %v", err)
	}
	if doc["version"] != "2.1.0" {
		t.Errorf("Expected SARIF 2.1.0, got %v", doc["version"])
	}

	out := buf.String()
	for _, want := range []string{
		rules.RuleGodClass,
		rules.RuleDeadCode,
		"app.py",
		`"error"`,
		`"warning"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected SARIF output to contain %q", want)
		}
	}
}

func TestSarifLevelMapping(t *testing.T) {
	cases := map[rules.Severity]string{
		rules.SeverityHigh:   "error",
		rules.SeverityMedium: "warning",
		rules.SeverityLow:    "note",
	}
	for sev, want := range cases {
		if got := toSarifLevel(sev); got != want {
			t.Errorf("toSarifLevel(%s) = %s, want %s", sev, got, want)
		}
	}
}
