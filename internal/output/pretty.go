package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bgricker/wmstats/internal/discovery"
	"github.com/bgricker/wmstats/internal/report"
	"github.com/bgricker/wmstats/internal/stats"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
)

const (
	reportSeparator  = "---------------------------------"
	summarySeparator = "================================="
)

// PrettyRenderer renders batch results as plain console text.
type PrettyRenderer struct {
	out io.Writer
}

// NewPretty creates a PrettyRenderer writing to the provided writer.
func NewPretty(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: out}
}

// Extracting announces an archive before its report is pulled out.
func (p *PrettyRenderer) Extracting(archive string) error {
	_, err := fmt.Fprintf(p.out, "file = %s\n", archive)
	return err
}

// ExtractFailed reports an archive that was skipped.
func (p *PrettyRenderer) ExtractFailed(archive string, cause error) error {
	_, err := fmt.Fprintf(p.out, "Could not extract report file from: %s, skipping.\n%s\n", archive, indent(cause.Error(), "  "))
	return err
}

// Result renders the statistics of one report, or why they are missing.
func (p *PrettyRenderer) Result(res report.Result) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, reportSeparator)
	fmt.Fprintf(&buf, "Report file: %s\n", res.Archive)

	if res.Status != report.StatusAnalyzed || res.Stats == nil {
		fmt.Fprintf(&buf, "There was an error collecting stats from report: %s. Skip\n", res.Report)
		fmt.Fprintln(&buf, res.Error)
		_, err := buf.WriteTo(p.out)
		return err
	}

	writeSummary(&buf, res.Stats)
	_, err := buf.WriteTo(p.out)
	return err
}

func writeSummary(buf *bytes.Buffer, sum *stats.Summary) {
	fmt.Fprintf(buf, "WMTimes collected: %s\n", sum.Times)
	fmt.Fprintf(buf, "Efficiency of SumOfAllSteps vs Wrapper (WC time) = %s %%\n", sum.StepsEfficiency)

	if len(sum.Efficiencies) > 0 {
		fmt.Fprintln(buf, "- cmsRun metrics")
		for _, eff := range sum.Efficiencies {
			fmt.Fprintf(buf, "[%s] Efficiency of cmsRun step TotalJobTime vs WMCMSSWSubprocess = %s\n", eff.Step, eff.Percent)
			if eff.Warn {
				fmt.Fprintln(buf, "Warning, take a look at the efficiency above")
			}
		}
	}

	if sum.HasCmsRunTotals() {
		fmt.Fprintf(buf, "Total Efficiency of cmsRuns totalJobTime vs Wrapper WC Time = %s %%\n", sum.TotalJobTimeEfficiency)
		fmt.Fprintf(buf, "Total Efficiency of cmsRuns SubProcess WC Times vs Wrapper WC Time = %s %%\n", sum.SubprocessEfficiency)
	}

	for _, eff := range sum.Efficiencies {
		fmt.Fprintf(buf, "WM_subprocess_eff[%s] = %s %%\n", eff.Step, eff.Percent)
	}
}

// Finish prints the batch totals.
func (p *PrettyRenderer) Finish(summary report.Summary) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, summarySeparator)
	fmt.Fprintf(&buf, "SUMMARY: %d candidates, %d extracted, %d skipped, %d analyzed, %d failed (%s)\n",
		summary.Candidates, summary.Extracted, summary.Skipped, summary.Analyzed, summary.Failed, formatDuration(summary.Duration))
	if summary.Analyzed > 0 {
		fmt.Fprintf(&buf, "SumOfAllSteps vs Wrapper across %d reports: mean %.2f %%, stddev %.2f %%\n",
			summary.Analyzed, summary.StepsEfficiencyMean, summary.StepsEfficiencyStdDev)
	}
	_, err := buf.WriteTo(p.out)
	return err
}

// RenderCandidates lists sampled archives grouped by subdirectory.
func (p *PrettyRenderer) RenderCandidates(candidates []discovery.Candidate, warnings []discovery.Warning) error {
	groups := lo.GroupBy(candidates, func(c discovery.Candidate) string { return c.Subdir })
	order := lo.Uniq(lo.Map(candidates, func(c discovery.Candidate, _ int) string { return c.Subdir }))

	for _, subdir := range order {
		if _, err := fmt.Fprintf(p.out, "Subdir %s\n", subdir); err != nil {
			return err
		}
		for _, c := range groups[subdir] {
			if _, err := fmt.Fprintf(p.out, "  • %s (%s)\n", c.Path, humanize.Bytes(uint64(c.Size))); err != nil {
				return err
			}
		}
	}
	for _, w := range warnings {
		if _, err := fmt.Fprintf(p.out, "warning: %s: %s\n", w.Path, w.Message); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(p.out, "%d archives in %d subdirectories\n", len(candidates), len(order))
	return err
}

func indent(s, pad string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}
