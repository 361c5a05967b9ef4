package stats

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/bgricker/wmstats/internal/jobreport"
	"github.com/samber/lo"
)

func ptr(v float64) *float64 { return &v }

func exampleReport() *jobreport.Report {
	return &jobreport.Report{
		WallClock: 1000,
		Steps:     []string{"stageOut", "cmsRun1"},
		Records: map[string]jobreport.StepRecord{
			"stageOut": {StartTime: 900, StopTime: 1000},
			"cmsRun1": {
				StartTime:           100,
				StopTime:            800,
				SubprocessWallClock: ptr(650),
				TotalJobTime:        ptr(600),
			},
		},
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAnalyzeExample(t *testing.T) {
	sum, err := New(Options{}).Analyze(exampleReport())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	want := []Entry{
		{Key{Kind: Wrapper}, 1000},
		{Key{Step: "stageOut", Kind: Step}, 100},
		{Key{Step: "cmsRun1", Kind: Step}, 700},
		{Key{Step: "cmsRun1", Kind: SubprocessWallClock}, 650},
		{Key{Step: "cmsRun1", Kind: TotalJobTime}, 600},
	}
	if got := sum.Times.Entries(); !reflect.DeepEqual(got, want) {
		t.Fatalf("time table mismatch:\nwant %v\ngot  %v", want, got)
	}
	wantString := "{WM_wrapper: 1000, stageOut: 100, cmsRun1: 700, cmsRun1--WMCMSSWSubprocess: 650, cmsRun1--TotalJobTime: 600}"
	if got := sum.Times.String(); got != wantString {
		t.Fatalf("time table string: got %q", got)
	}

	if sum.AllStepsWallClock != 800 {
		t.Fatalf("all steps wall clock: got %v", sum.AllStepsWallClock)
	}
	if !sum.StepsEfficiency.Valid || !approx(sum.StepsEfficiency.Value, 80) {
		t.Fatalf("steps efficiency: got %+v", sum.StepsEfficiency)
	}
	if !approx(sum.TotalJobTimeEfficiency.Value, 60) {
		t.Fatalf("total job time efficiency: got %+v", sum.TotalJobTimeEfficiency)
	}
	if !approx(sum.SubprocessEfficiency.Value, 65) {
		t.Fatalf("subprocess efficiency: got %+v", sum.SubprocessEfficiency)
	}
	if !sum.HasCmsRunTotals() {
		t.Fatalf("expected processing totals")
	}

	if len(sum.Efficiencies) != 1 {
		t.Fatalf("expected one step efficiency, got %v", sum.Efficiencies)
	}
	eff := sum.Efficiencies[0]
	if eff.Step != "cmsRun1" || !approx(eff.Percent.Value, 600.0/650.0*100) {
		t.Fatalf("cmsRun1 efficiency: got %+v", eff)
	}
	if eff.Percent.String() != "92.31" {
		t.Fatalf("formatted efficiency: got %s", eff.Percent)
	}
	if eff.Warn || len(sum.Warnings()) != 0 {
		t.Fatalf("92.31%% must not warn")
	}
}

func TestAnalyzeWarnsBelowThreshold(t *testing.T) {
	rep := &jobreport.Report{
		WallClock: 200,
		Steps:     []string{"cmsRun1"},
		Records: map[string]jobreport.StepRecord{
			"cmsRun1": {StartTime: 0, StopTime: 120, SubprocessWallClock: ptr(100), TotalJobTime: ptr(80)},
		},
	}
	sum, err := New(Options{}).Analyze(rep)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	warnings := sum.Warnings()
	if len(warnings) != 1 || warnings[0].Step != "cmsRun1" {
		t.Fatalf("expected warning for cmsRun1, got %v", warnings)
	}
	if !approx(warnings[0].Percent.Value, 80) {
		t.Fatalf("efficiency: got %v", warnings[0].Percent)
	}

	sum, err = New(Options{Threshold: lo.ToPtr(75.0)}).Analyze(rep)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(sum.Warnings()) != 0 {
		t.Fatalf("threshold 75 should not warn at 80%%")
	}

	sum, err = New(Options{Threshold: lo.ToPtr(0.0)}).Analyze(rep)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(sum.Warnings()) != 0 {
		t.Fatalf("threshold 0 should never warn, got %v", sum.Warnings())
	}
}

func TestAnalyzeWithoutProcessingSteps(t *testing.T) {
	rep := &jobreport.Report{
		WallClock: 50,
		Steps:     []string{"setup", "logArch1"},
		Records: map[string]jobreport.StepRecord{
			"setup":    {StartTime: 0, StopTime: 10},
			"logArch1": {StartTime: 10, StopTime: 30},
		},
	}
	sum, err := New(Options{}).Analyze(rep)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(sum.Efficiencies) != 0 {
		t.Fatalf("unexpected efficiencies: %v", sum.Efficiencies)
	}
	if sum.HasCmsRunTotals() {
		t.Fatalf("no processing steps means no processing totals")
	}
	if !approx(sum.StepsEfficiency.Value, 60) {
		t.Fatalf("steps efficiency: got %v", sum.StepsEfficiency)
	}
}

func TestAnalyzeZeroWrapper(t *testing.T) {
	rep := exampleReport()
	rep.WallClock = 0
	if _, err := New(Options{}).Analyze(rep); !errors.Is(err, ErrZeroWrapper) {
		t.Fatalf("expected ErrZeroWrapper, got %v", err)
	}
	rep.WallClock = -5
	if _, err := New(Options{}).Analyze(rep); !errors.Is(err, ErrZeroWrapper) {
		t.Fatalf("expected ErrZeroWrapper for negative wrapper, got %v", err)
	}
}

func TestAnalyzeZeroSubprocessTime(t *testing.T) {
	rep := exampleReport()
	rec := rep.Records["cmsRun1"]
	rec.SubprocessWallClock = ptr(0)
	rep.Records["cmsRun1"] = rec

	sum, err := New(Options{}).Analyze(rep)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	eff := sum.Efficiencies[0]
	if eff.Percent.Valid || eff.Warn {
		t.Fatalf("expected non-computable efficiency without warning, got %+v", eff)
	}
	if eff.Percent.String() != "n/a" {
		t.Fatalf("formatted: got %s", eff.Percent)
	}
	if sum.HasCmsRunTotals() {
		t.Fatalf("zero subprocess total must suppress wrapper-relative processing output")
	}
}

func TestAnalyzeIllShapedTimings(t *testing.T) {
	decode := func(doc string) *jobreport.Report {
		t.Helper()
		rep, err := jobreport.Decode(strings.NewReader(doc), jobreport.FormatJSON)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		return rep
	}

	plain := decode(`{"WMTiming": {"WMTotalWallClockTime": 100}, "steps": ["stageOut1"],
"stageOut1": {"startTime": 0, "stopTime": 50, "WMCMSSWSubprocess": null, "performance": {"cmssw": []}}}`)
	sum, err := New(Options{}).Analyze(plain)
	if err != nil {
		t.Fatalf("ordinary step with ill-shaped timings must analyze: %v", err)
	}
	if !approx(sum.StepsEfficiency.Value, 50) {
		t.Fatalf("steps efficiency: got %v", sum.StepsEfficiency)
	}

	processing := decode(`{"WMTiming": {"WMTotalWallClockTime": 100}, "steps": ["cmsRun1"],
"cmsRun1": {"startTime": 0, "stopTime": 50, "WMCMSSWSubprocess": {}, "performance": {"cmssw": {"Timing": {"TotalJobTime": 40}}}}}`)
	if _, err := New(Options{}).Analyze(processing); !errors.Is(err, ErrIncompleteStep) {
		t.Fatalf("expected ErrIncompleteStep, got %v", err)
	}
}

func TestAnalyzeIncompleteProcessingStep(t *testing.T) {
	rep := exampleReport()
	rec := rep.Records["cmsRun1"]
	rec.TotalJobTime = nil
	rep.Records["cmsRun1"] = rec

	if _, err := New(Options{}).Analyze(rep); !errors.Is(err, ErrIncompleteStep) {
		t.Fatalf("expected ErrIncompleteStep, got %v", err)
	}
}

func TestAnalyzeMissingStepRecord(t *testing.T) {
	rep := exampleReport()
	rep.Steps = append(rep.Steps, "ghost")
	if _, err := New(Options{}).Analyze(rep); !errors.Is(err, jobreport.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestStepNamesContainingSeparator(t *testing.T) {
	rep := &jobreport.Report{
		WallClock: 100,
		Steps:     []string{"stage--TotalJobTime", "WM_wrapper"},
		Records: map[string]jobreport.StepRecord{
			"stage--TotalJobTime": {StartTime: 0, StopTime: 30},
			"WM_wrapper":          {StartTime: 30, StopTime: 50},
		},
	}
	sum, err := New(Options{}).Analyze(rep)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if sum.AllStepsWallClock != 50 {
		t.Fatalf("both steps should count as plain steps, got %v", sum.AllStepsWallClock)
	}
	if sum.CmsRunTotalJobTime != 0 {
		t.Fatalf("step name must not be classified as a composite timing")
	}
	if w, _ := sum.Times.Get(Key{Kind: Wrapper}); w != 100 {
		t.Fatalf("wrapper overwritten by step named WM_wrapper: %v", w)
	}
}

func TestCustomMarker(t *testing.T) {
	rep := &jobreport.Report{
		WallClock: 100,
		Steps:     []string{"reco1"},
		Records: map[string]jobreport.StepRecord{
			"reco1": {StartTime: 0, StopTime: 90, SubprocessWallClock: ptr(90), TotalJobTime: ptr(45)},
		},
	}
	sum, err := New(Options{Marker: "reco"}).Analyze(rep)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(sum.Efficiencies) != 1 || !approx(sum.Efficiencies[0].Percent.Value, 50) {
		t.Fatalf("expected reco1 at 50%%, got %v", sum.Efficiencies)
	}
}

func TestAnalyzeFileIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Report.0.json")
	doc := `{"WMTiming": {"WMTotalWallClockTime": 1000}, "steps": ["cmsRun1", "stageOut1"],
"cmsRun1": {"startTime": 0, "stopTime": 700, "WMCMSSWSubprocess": {"wallClockTime": 650},
  "performance": {"cmssw": {"Timing": {"TotalJobTime": 600}}}},
"stageOut1": {"startTime": 700, "stopTime": 800}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write report: %v", err)
	}

	ex := New(Options{})
	first, err := ex.AnalyzeFile(path)
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	second, err := ex.AnalyzeFile(path)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if !reflect.DeepEqual(first.Times.Entries(), second.Times.Entries()) {
		t.Fatalf("time tables differ between runs")
	}
	if !reflect.DeepEqual(first.Efficiencies, second.Efficiencies) {
		t.Fatalf("efficiency tables differ between runs")
	}
}

func TestPercent(t *testing.T) {
	if r := Percent(1, 0); r.Valid {
		t.Fatalf("division by zero must not be valid")
	}
	if r := Percent(math.NaN(), 1); r.Valid {
		t.Fatalf("NaN numerator must not be valid")
	}
	if r := Percent(1, math.Inf(1)); r.Valid {
		t.Fatalf("infinite denominator must not be valid")
	}
	if r := Percent(1, 4); !r.Valid || r.Value != 25 || r.String() != "25.00" {
		t.Fatalf("unexpected ratio %+v", r)
	}
	if (Ratio{}).Below(90) {
		t.Fatalf("invalid ratio must never be below a threshold")
	}
}

func TestTimeTableSetKeepsPosition(t *testing.T) {
	tt := NewTimeTable()
	tt.Set(Key{Kind: Wrapper}, 1)
	tt.Set(Key{Step: "a", Kind: Step}, 2)
	tt.Set(Key{Kind: Wrapper}, 3)
	entries := tt.Entries()
	if tt.Len() != 2 || entries[0].Seconds != 3 || entries[1].Key.Step != "a" {
		t.Fatalf("unexpected entries %v", entries)
	}
	if _, ok := tt.Get(Key{Step: "b", Kind: Step}); ok {
		t.Fatalf("unexpected key")
	}
}
