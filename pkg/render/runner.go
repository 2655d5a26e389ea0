package render

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/prodkit/composer/pkg/composition"
)

// ItemResult reports the outcome of rendering one composition in a
// batch.
type ItemResult struct {
	Index  int
	Total  int
	Path   string
	Reason string
	Err    error
}

// Skip records a composition that was not rendered and why.
type Skip struct {
	Name   string
	Reason string
}

// Report summarizes a batch run.
type Report struct {
	RunID    uuid.UUID
	Rendered []string
	Skipped  []Skip
	Duration time.Duration
}

// Runner renders every composition of a builder, one at a time.
// Failures are isolated: a bad composition is recorded as skipped and
// the batch continues. Cancellation is honored between compositions.
type Runner struct {
	Pipeline *Pipeline
	Logger   *log.Logger
}

// NewRunner returns a runner over the given pipeline.
func NewRunner(p *Pipeline, logger *log.Logger) *Runner {
	if p == nil {
		p = NewPipeline(nil, nil, logger)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Pipeline: p, Logger: logger}
}

// Run renders every composition the builder yields. onItem, when
// non-nil, is invoked after each composition so a progress view can
// stay responsive.
func (r *Runner) Run(ctx context.Context, b *composition.Builder, opts *Options, onItem func(ItemResult)) (*Report, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.New()}
	total := b.Count()
	start := time.Now()

	r.Logger.Info("starting batch render", "run_id", report.RunID, "compositions", total)

	i := 0
	for c := range b.Compositions() {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
		i++

		name, _ := composition.OutputName(c, opts.NamePatterns())
		if !c.IsValid() {
			r.Logger.Error("invalid composition", "name", name)
			report.Skipped = append(report.Skipped, Skip{Name: name, Reason: "invalid composition"})
			r.notify(onItem, ItemResult{Index: i, Total: total, Reason: "invalid composition"})
			continue
		}

		res, err := r.Pipeline.Save(ctx, c, opts)
		if err != nil {
			r.Logger.Error("render failed", "name", name, "error", err)
			report.Skipped = append(report.Skipped, Skip{Name: name, Reason: err.Error()})
			r.notify(onItem, ItemResult{Index: i, Total: total, Err: err})
			continue
		}

		if res.Skipped {
			report.Skipped = append(report.Skipped, Skip{Name: name, Reason: "destination exists"})
		} else {
			report.Rendered = append(report.Rendered, res.OutputPath)
		}
		r.Logger.Debug("composition ready", "path", res.OutputPath, "skipped", res.Skipped)
		r.notify(onItem, ItemResult{Index: i, Total: total, Path: res.OutputPath})
	}

	report.Duration = time.Since(start)
	r.Logger.Info("batch render complete",
		"run_id", report.RunID,
		"rendered", len(report.Rendered),
		"skipped", len(report.Skipped),
		"duration", report.Duration)
	return report, nil
}

func (r *Runner) notify(onItem func(ItemResult), res ItemResult) {
	if onItem != nil {
		onItem(res)
	}
}
