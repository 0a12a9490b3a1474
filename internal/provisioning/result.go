package provisioning

import "fmt"

// Status is the outcome of a single stage.
type Status string

const (
	// StatusSuccess means the stage completed, either by mutating the
	// host or by confirming the desired state was already in place.
	StatusSuccess Status = "success"

	// StatusSkipped means the stage intentionally did nothing, e.g. a
	// feature was disabled or an optional input was absent.
	StatusSkipped Status = "skipped"

	// StatusFailed means the stage halted the pipeline.
	StatusFailed Status = "failed"
)

// Result is the per-stage outcome recorded in the run report.
type Result struct {
	Stage  string
	Status Status
	Detail string
}

// Success builds a successful result.
func Success(detail string) Result {
	return Result{Status: StatusSuccess, Detail: detail}
}

// Successf builds a successful result with a formatted detail.
func Successf(format string, v ...interface{}) Result {
	return Success(fmt.Sprintf(format, v...))
}

// Skipped builds a skipped result.
func Skipped(detail string) Result {
	return Result{Status: StatusSkipped, Detail: detail}
}

// Skippedf builds a skipped result with a formatted detail.
func Skippedf(format string, v ...interface{}) Result {
	return Skipped(fmt.Sprintf(format, v...))
}

// Report aggregates the results of one pipeline run.
type Report struct {
	Results []Result
}

// Failed returns the first failed result, if any.
func (r *Report) Failed() (Result, bool) {
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			return res, true
		}
	}
	return Result{}, false
}

// Succeeded reports whether every stage reached success or skipped.
func (r *Report) Succeeded() bool {
	_, failed := r.Failed()
	return !failed && len(r.Results) > 0
}
