package provisioning

import (
	"fmt"
	"time"
)

// Pipeline is an ordered list of stages executed strictly sequentially.
type Pipeline struct {
	Stages []Stage
}

// NewPipeline creates a pipeline from the given stages.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{Stages: stages}
}

// Run executes all stages in order. It advances only on success or explicit
// skip; the first error halts the run with no further mutation and is
// returned alongside the report collected so far.
func (p *Pipeline) Run(ctx *Context) (*Report, error) {
	start := time.Now()
	report := &Report{}
	ctx.Observer.Printf("Starting provisioning with %d stages...", len(p.Stages))

	for i, stage := range p.Stages {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("provisioning halted: %w", err)
		}

		stageStart := time.Now()
		ctx.Observer.Printf("[%s] stage %d/%d", stage.Name(), i+1, len(p.Stages))
		LogStageStart(ctx.Observer, stage.Name())

		result, err := stage.Provision(ctx)
		result.Stage = stage.Name()

		if err != nil {
			result.Status = StatusFailed
			if result.Detail == "" {
				result.Detail = err.Error()
			}
			report.Results = append(report.Results, result)
			LogStageResult(ctx.Observer, result, time.Since(stageStart))
			return report, fmt.Errorf("%s stage failed: %w", stage.Name(), err)
		}
		if result.Status == "" {
			result.Status = StatusSuccess
		}

		report.Results = append(report.Results, result)
		LogStageResult(ctx.Observer, result, time.Since(stageStart))
	}

	ctx.Observer.Printf("Provisioning completed in %v", time.Since(start).Round(time.Millisecond))
	return report, nil
}
