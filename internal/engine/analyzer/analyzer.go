// Package analyzer is the engine entry point: it receives a set of source
// units plus a resolved configuration and returns an ordered collection of
// findings. It performs no file or network I/O; traversal and report
// printing belong to the callers.
package analyzer

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"smellwatch/internal/config"
	"smellwatch/internal/engine/dup"
	"smellwatch/internal/engine/graph"
	"smellwatch/internal/engine/parser"
	"smellwatch/internal/engine/rules"
	"smellwatch/internal/shared/observability"
)

// UnitInput is one source unit handed to the engine: identity plus raw
// text.
type UnitInput struct {
	Path   string
	Source []byte
}

// SkippedUnit records a unit excluded from analysis and why.
type SkippedUnit struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report is the ordered result of one analysis run.
type Report struct {
	RunID     string          `json:"runId"`
	StartedAt time.Time       `json:"startedAt"`
	Duration  time.Duration   `json:"duration"`
	Units     int             `json:"units"`
	Findings  []rules.Finding `json:"findings"`
	Skipped   []SkippedUnit   `json:"skipped,omitempty"`
	Summary   map[string]int  `json:"summary"`
}

type Engine struct {
	cfg       *config.Config
	parser    *parser.Parser
	unitRules []rules.UnitRule
	detector  *dup.Detector
}

// New validates the configuration and builds the rule registry. An
// invalid threshold aborts here, before any analysis begins.
func New(cfg *config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		parser: parser.NewParser(parser.NewGrammarLoader()),
	}

	t := cfg.Thresholds
	if cfg.Rules.LogCheck {
		e.unitRules = append(e.unitRules, &rules.LogExcessiveRule{
			MaxCalls:        t.MaxLogCalls,
			LoggerFunctions: cfg.Logging.Functions,
		})
	}
	if cfg.Rules.GodClass {
		e.unitRules = append(e.unitRules, &rules.GodClassRule{
			MaxMethods: t.MaxMethods,
			MaxCC:      t.MaxCC,
			MaxLOC:     t.MaxLOC,
		})
	}
	if cfg.Rules.LongMethod {
		e.unitRules = append(e.unitRules, &rules.LongMethodRule{
			MaxLOC: t.MethodMaxLOC,
			MaxCC:  t.MaxCyclomatic,
		})
	}
	if cfg.Rules.MutableDefault {
		e.unitRules = append(e.unitRules, &rules.MutableDefaultRule{})
	}
	if cfg.Rules.DupCheck {
		e.detector = dup.NewDetector(t.DupSimilarity, t.DupMinStatements)
	}

	return e, nil
}

type unitResult struct {
	unit     *parser.SourceUnit
	blocks   []dup.Block
	findings []rules.Finding
	skipped  *SkippedUnit
}

// Analyze runs the staged pipeline: parsing, scope construction, and the
// per-unit rules run in parallel with each unit owned by its own task;
// the corpus-wide stages (usage graph, duplicate detection) start only
// after every unit has completed. A malformed unit is skipped and never
// stalls a barrier.
func (e *Engine) Analyze(ctx context.Context, inputs []UnitInput) (*Report, error) {
	start := time.Now()
	results := make([]unitResult, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, input := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.analyzeUnit(input)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var findings []rules.Finding
	var skipped []SkippedUnit
	var tables []*parser.ScopeTable
	var blocks []dup.Block
	for _, res := range results {
		if res.skipped != nil {
			skipped = append(skipped, *res.skipped)
			continue
		}
		findings = append(findings, res.findings...)
		tables = append(tables, res.unit.Scopes)
		blocks = append(blocks, res.blocks...)
	}

	if e.cfg.Rules.DeadCode {
		stage := time.Now()
		corpus := graph.Build(tables)
		corpus.ResolveReferences()
		dead := &graph.DeadCodeRule{AllowNames: e.cfg.DeadCode.AllowNames}
		findings = append(findings, dead.Check(corpus)...)
		observability.AnalysisDuration.WithLabelValues("dead_code").Observe(time.Since(stage).Seconds())
	}

	if e.detector != nil {
		stage := time.Now()
		findings = append(findings, e.detector.Detect(blocks)...)
		observability.AnalysisDuration.WithLabelValues("duplicates").Observe(time.Since(stage).Seconds())
	}

	rules.Sort(findings)
	summary := rules.Summarize(findings)
	for rule, n := range summary {
		observability.FindingsTotal.WithLabelValues(rule).Add(float64(n))
	}
	observability.RunsTotal.Inc()

	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: start,
		Duration:  time.Since(start),
		Units:     len(tables),
		Findings:  findings,
		Skipped:   skipped,
		Summary:   summary,
	}, nil
}

func (e *Engine) analyzeUnit(input UnitInput) unitResult {
	parseStart := time.Now()
	unit, err := e.parser.ParseUnit(input.Path, input.Source)
	observability.ParsingDuration.Observe(time.Since(parseStart).Seconds())
	if err != nil {
		observability.SkippedUnitsTotal.Inc()
		return unitResult{skipped: &SkippedUnit{Path: input.Path, Reason: err.Error()}}
	}

	unit.Scopes = parser.BuildScopes(unit)

	res := unitResult{unit: unit}
	for _, rule := range e.unitRules {
		res.findings = append(res.findings, rule.Check(unit)...)
	}
	if e.detector != nil {
		res.blocks = e.detector.ExtractBlocks(unit)
	}
	return res
}
