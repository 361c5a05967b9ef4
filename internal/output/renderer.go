package output

import (
	"github.com/bgricker/wmstats/internal/discovery"
	"github.com/bgricker/wmstats/internal/report"
)

// Renderer receives batch events in the order the runner produces them.
type Renderer interface {
	Extracting(archive string) error
	ExtractFailed(archive string, err error) error
	Result(res report.Result) error
	Finish(summary report.Summary) error
}

// CandidateRenderer renders the sampled archive set without processing it.
type CandidateRenderer interface {
	RenderCandidates(candidates []discovery.Candidate, warnings []discovery.Warning) error
}
