package stats

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bgricker/wmstats/internal/jobreport"
	"github.com/samber/lo"
)

const (
	// DefaultMarker identifies steps that run the instrumented processing program.
	DefaultMarker = "cmsRun"
	// DefaultThreshold is the subprocess efficiency below which a step is flagged.
	DefaultThreshold = 90.0
)

var (
	// ErrZeroWrapper means the wrapper wall clock cannot serve as a denominator.
	ErrZeroWrapper = errors.New("wrapper wall clock time is not positive")
	// ErrIncompleteStep means a processing step lacks one of its nested timings.
	ErrIncompleteStep = errors.New("incomplete processing step timing")
)

// Options tune how steps are classified and flagged.
type Options struct {
	Marker string
	// Threshold is the warning cutoff in percent. Nil selects
	// DefaultThreshold; zero disables warnings.
	Threshold *float64
}

// StepEfficiency is the subprocess efficiency of one processing step.
type StepEfficiency struct {
	Step    string
	Percent Ratio
	Warn    bool
}

// Summary is everything derived from a single report.
type Summary struct {
	Times        *TimeTable
	Efficiencies []StepEfficiency

	AllStepsWallClock  float64
	CmsRunTotalJobTime float64
	CmsRunWallClock    float64

	// StepsEfficiency is the summed step wall clock over the wrapper.
	StepsEfficiency Ratio
	// TotalJobTimeEfficiency is the summed TotalJobTime over the wrapper.
	TotalJobTimeEfficiency Ratio
	// SubprocessEfficiency is the summed subprocess wall clock over the wrapper.
	SubprocessEfficiency Ratio
}

// HasCmsRunTotals reports whether both processing aggregates are positive,
// which is when the wrapper-relative processing efficiencies are meaningful.
func (s *Summary) HasCmsRunTotals() bool {
	return s.CmsRunTotalJobTime > 0 && s.CmsRunWallClock > 0
}

// Warnings returns the steps whose efficiency is under the threshold.
func (s *Summary) Warnings() []StepEfficiency {
	return lo.Filter(s.Efficiencies, func(e StepEfficiency, _ int) bool {
		return e.Warn
	})
}

// Extractor builds Summaries from reports.
type Extractor struct {
	opts Options
}

// New returns an Extractor, filling unset options with defaults.
func New(opts Options) *Extractor {
	if opts.Marker == "" {
		opts.Marker = DefaultMarker
	}
	if opts.Threshold == nil {
		opts.Threshold = lo.ToPtr(DefaultThreshold)
	}
	return &Extractor{opts: opts}
}

// IsCmsRun reports whether step runs the instrumented processing program.
func (e *Extractor) IsCmsRun(step string) bool {
	return strings.Contains(step, e.opts.Marker)
}

// AnalyzeFile loads the report at path and analyzes it.
func (e *Extractor) AnalyzeFile(path string) (*Summary, error) {
	rep, err := jobreport.Load(path)
	if err != nil {
		return nil, err
	}
	return e.Analyze(rep)
}

// TimeTable collects the wrapper time, each step's duration, and the nested
// timings of processing steps.
func (e *Extractor) TimeTable(rep *jobreport.Report) (*TimeTable, error) {
	t := NewTimeTable()
	t.Set(Key{Kind: Wrapper}, rep.WallClock)

	for _, name := range rep.Steps {
		rec, err := rep.Step(name)
		if err != nil {
			return nil, err
		}
		t.Set(Key{Step: name, Kind: Step}, rec.Duration())
		if !e.IsCmsRun(name) {
			continue
		}
		if rec.SubprocessWallClock == nil {
			return nil, fmt.Errorf("step %q: %w: no WMCMSSWSubprocess.wallClockTime", name, ErrIncompleteStep)
		}
		if rec.TotalJobTime == nil {
			return nil, fmt.Errorf("step %q: %w: no performance.cmssw.Timing.TotalJobTime", name, ErrIncompleteStep)
		}
		t.Set(Key{Step: name, Kind: SubprocessWallClock}, *rec.SubprocessWallClock)
		t.Set(Key{Step: name, Kind: TotalJobTime}, *rec.TotalJobTime)
	}
	return t, nil
}

// Analyze computes the time table, per-step efficiencies, and the
// wrapper-relative efficiencies of rep.
func (e *Extractor) Analyze(rep *jobreport.Report) (*Summary, error) {
	times, err := e.TimeTable(rep)
	if err != nil {
		return nil, err
	}
	wrapper, _ := times.Get(Key{Kind: Wrapper})
	if !(wrapper > 0) || !finite(wrapper) {
		return nil, fmt.Errorf("%w: %s = %s", ErrZeroWrapper, WrapperKey, FormatSeconds(wrapper))
	}

	sum := &Summary{Times: times}
	for _, entry := range times.entries {
		switch entry.Key.Kind {
		case Step:
			sum.AllStepsWallClock += entry.Seconds
			sub, ok := times.Get(Key{Step: entry.Key.Step, Kind: SubprocessWallClock})
			if !ok {
				continue
			}
			total, _ := times.Get(Key{Step: entry.Key.Step, Kind: TotalJobTime})
			pct := Percent(total, sub)
			sum.Efficiencies = append(sum.Efficiencies, StepEfficiency{
				Step:    entry.Key.Step,
				Percent: pct,
				Warn:    pct.Below(*e.opts.Threshold),
			})
		case TotalJobTime:
			sum.CmsRunTotalJobTime += entry.Seconds
		case SubprocessWallClock:
			sum.CmsRunWallClock += entry.Seconds
		}
	}

	sum.StepsEfficiency = Percent(sum.AllStepsWallClock, wrapper)
	sum.TotalJobTimeEfficiency = Percent(sum.CmsRunTotalJobTime, wrapper)
	sum.SubprocessEfficiency = Percent(sum.CmsRunWallClock, wrapper)
	return sum, nil
}
