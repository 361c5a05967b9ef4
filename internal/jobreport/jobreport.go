package jobreport

import (
	"errors"
	"fmt"
)

// ErrMissingField indicates a required attribute is absent from the report.
var ErrMissingField = errors.New("missing report field")

// ErrMalformedField indicates an attribute is present but has the wrong shape.
var ErrMalformedField = errors.New("malformed report field")

// Report is one completed job's execution record.
type Report struct {
	// WallClock is WMTiming.WMTotalWallClockTime, measured by the job wrapper.
	WallClock float64
	// Steps lists step names in the order the report declares them.
	Steps   []string
	Records map[string]StepRecord
}

// StepRecord holds the timing of a single step.
type StepRecord struct {
	StartTime float64
	StopTime  float64

	// Only reported by steps that run the instrumented processing program.
	SubprocessWallClock *float64
	TotalJobTime        *float64
}

// Duration returns the wrapper-measured wall clock time of the step.
func (s StepRecord) Duration() float64 {
	return s.StopTime - s.StartTime
}

// Step returns the record for name or an error when the report declares the
// step but carries no record for it.
func (r *Report) Step(name string) (StepRecord, error) {
	rec, ok := r.Records[name]
	if !ok {
		return StepRecord{}, fmt.Errorf("step %q: %w", name, ErrMissingField)
	}
	return rec, nil
}
