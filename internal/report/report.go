package report

import (
	"time"

	"github.com/bgricker/wmstats/internal/stats"
)

// Status values for a processed unit of work.
const (
	StatusAnalyzed = "analyzed"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
)

// Extraction records where one archive's report was written.
type Extraction struct {
	Archive string `json:"archive"`
	Report  string `json:"report"`
}

// Result captures the outcome for a single archive.
type Result struct {
	Archive string         `json:"archive"`
	Report  string         `json:"report,omitempty"`
	Status  string         `json:"status"`
	Error   string         `json:"error,omitempty"`
	Stats   *stats.Summary `json:"-"`
}

// Summary aggregates a batch run.
type Summary struct {
	Candidates int `json:"candidates"`
	Extracted  int `json:"extracted"`
	Skipped    int `json:"skipped"`
	Analyzed   int `json:"analyzed"`
	Failed     int `json:"failed"`

	// Spread of the summed-steps efficiency across analyzed reports.
	StepsEfficiencyMean   float64 `json:"steps_efficiency_mean"`
	StepsEfficiencyStdDev float64 `json:"steps_efficiency_stddev"`

	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}
