package output

import (
	"encoding/json"
	"io"

	"github.com/bgricker/wmstats/internal/discovery"
	"github.com/bgricker/wmstats/internal/report"
	"github.com/bgricker/wmstats/internal/stats"
	"github.com/samber/lo"
)

// JSONRenderer collects results and emits one structured document at Finish.
type JSONRenderer struct {
	out     io.Writer
	doc     Report
	results []Result
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Report captures JSON output schema.
type Report struct {
	Skipped []Skipped      `json:"skipped,omitempty"`
	Results []Result       `json:"results"`
	Summary report.Summary `json:"summary"`
}

// Skipped is an archive whose report could not be extracted.
type Skipped struct {
	Archive string `json:"archive"`
	Error   string `json:"error"`
}

// Result is the JSON form of report.Result.
type Result struct {
	Archive string `json:"archive"`
	Report  string `json:"report,omitempty"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Stats   *Stats `json:"stats,omitempty"`
}

// Stats is the JSON form of stats.Summary. Ratios that could not be computed
// are null.
type Stats struct {
	Times                  []TimeEntry      `json:"times"`
	AllStepsWallClock      float64          `json:"allsteps_wc_time"`
	CmsRunTotalJobTime     float64          `json:"allcmsruns_total_job_time"`
	CmsRunWallClock        float64          `json:"allcmsruns_wc_time"`
	StepsEfficiency        *float64         `json:"wm_eff_steps"`
	TotalJobTimeEfficiency *float64         `json:"wm_eff_total_job_time,omitempty"`
	SubprocessEfficiency   *float64         `json:"wm_eff_subproc_steps_time,omitempty"`
	Efficiencies           []StepEfficiency `json:"subprocess_efficiency,omitempty"`
}

// TimeEntry is one row of the time table.
type TimeEntry struct {
	Key     string  `json:"key"`
	Kind    string  `json:"kind"`
	Seconds float64 `json:"seconds"`
}

// StepEfficiency is one row of the efficiency table.
type StepEfficiency struct {
	Step    string   `json:"step"`
	Percent *float64 `json:"percent"`
	Warning bool     `json:"warning"`
}

// Extracting is a no-op; only outcomes are recorded.
func (j *JSONRenderer) Extracting(string) error { return nil }

// ExtractFailed records a skipped archive.
func (j *JSONRenderer) ExtractFailed(archive string, err error) error {
	j.doc.Skipped = append(j.doc.Skipped, Skipped{Archive: archive, Error: err.Error()})
	return nil
}

// Result records one report outcome.
func (j *JSONRenderer) Result(res report.Result) error {
	j.results = append(j.results, Result{
		Archive: res.Archive,
		Report:  res.Report,
		Status:  res.Status,
		Error:   res.Error,
		Stats:   convertStats(res.Stats),
	})
	return nil
}

// Finish writes the collected document.
func (j *JSONRenderer) Finish(summary report.Summary) error {
	j.doc.Results = j.results
	if j.doc.Results == nil {
		j.doc.Results = []Result{}
	}
	j.doc.Summary = summary
	return j.Render(j.doc)
}

// Render encodes the report as JSON.
func (j *JSONRenderer) Render(report Report) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// RenderCandidates encodes the sampled archive set.
func (j *JSONRenderer) RenderCandidates(candidates []discovery.Candidate, warnings []discovery.Warning) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Candidates []discovery.Candidate `json:"candidates"`
		Warnings   []discovery.Warning   `json:"warnings,omitempty"`
	}{Candidates: lo.Ternary(candidates == nil, []discovery.Candidate{}, candidates), Warnings: warnings})
}

func convertStats(sum *stats.Summary) *Stats {
	if sum == nil {
		return nil
	}
	out := &Stats{
		Times: lo.Map(sum.Times.Entries(), func(e stats.Entry, _ int) TimeEntry {
			return TimeEntry{Key: e.Key.String(), Kind: e.Key.Kind.String(), Seconds: e.Seconds}
		}),
		AllStepsWallClock:  sum.AllStepsWallClock,
		CmsRunTotalJobTime: sum.CmsRunTotalJobTime,
		CmsRunWallClock:    sum.CmsRunWallClock,
		StepsEfficiency:    ratioPtr(sum.StepsEfficiency),
		Efficiencies: lo.Map(sum.Efficiencies, func(e stats.StepEfficiency, _ int) StepEfficiency {
			return StepEfficiency{Step: e.Step, Percent: ratioPtr(e.Percent), Warning: e.Warn}
		}),
	}
	if sum.HasCmsRunTotals() {
		out.TotalJobTimeEfficiency = ratioPtr(sum.TotalJobTimeEfficiency)
		out.SubprocessEfficiency = ratioPtr(sum.SubprocessEfficiency)
	}
	return out
}

func ratioPtr(r stats.Ratio) *float64 {
	if !r.Valid {
		return nil
	}
	return lo.ToPtr(r.Value)
}
