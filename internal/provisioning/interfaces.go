package provisioning

// Stage defines the interface for a provisioning stage.
type Stage interface {
	// Name returns the short identifier of this stage, e.g. "preflight".
	Name() string

	// Provision executes the stage against the host. It returns a Result
	// describing what happened (applied, already in place, or skipped),
	// or an error that halts the pipeline.
	Provision(ctx *Context) (Result, error)
}

// StageFunc adapts a function to the Stage interface.
type StageFunc struct {
	StageName string
	Func      func(ctx *Context) (Result, error)
}

// Name implements Stage.
func (s StageFunc) Name() string { return s.StageName }

// Provision implements Stage.
func (s StageFunc) Provision(ctx *Context) (Result, error) { return s.Func(ctx) }
