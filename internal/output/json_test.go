package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bgricker/wmstats/internal/report"
	"github.com/bgricker/wmstats/internal/stats"
)

func TestJSONRenderer(t *testing.T) {
	zeroSub := processingReport(600)
	rec := zeroSub.Records["cmsRun1"]
	rec.SubprocessWallClock = ptr(0)
	zeroSub.Records["cmsRun1"] = rec

	buf := &bytes.Buffer{}
	renderer := NewJSON(buf)
	if err := renderer.ExtractFailed("bad.tar.bz2", errors.New("member missing")); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if err := renderer.Result(report.Result{Archive: "ok.tar.bz2", Status: report.StatusAnalyzed, Stats: analyze(t, processingReport(600))}); err != nil {
		t.Fatalf("result: %v", err)
	}
	if err := renderer.Result(report.Result{Archive: "zero.tar.bz2", Status: report.StatusAnalyzed, Stats: analyze(t, zeroSub)}); err != nil {
		t.Fatalf("result: %v", err)
	}
	if err := renderer.Result(report.Result{Archive: "broken.tar.bz2", Status: report.StatusFailed, Error: stats.ErrZeroWrapper.Error()}); err != nil {
		t.Fatalf("result: %v", err)
	}
	if err := renderer.Finish(report.Summary{Candidates: 4, Extracted: 3, Skipped: 1, Analyzed: 2, Failed: 1}); err != nil {
		t.Fatalf("finish: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(decoded.Skipped) != 1 || decoded.Skipped[0].Archive != "bad.tar.bz2" {
		t.Fatalf("skipped mismatch: %+v", decoded.Skipped)
	}
	if len(decoded.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(decoded.Results))
	}

	ok := decoded.Results[0].Stats
	if ok == nil || len(ok.Times) != 5 || ok.Times[3].Key != "cmsRun1--WMCMSSWSubprocess" || ok.Times[3].Kind != "subprocess" {
		t.Fatalf("time table mismatch: %+v", ok)
	}
	if ok.StepsEfficiency == nil || *ok.StepsEfficiency != 80 {
		t.Fatalf("steps efficiency mismatch: %v", ok.StepsEfficiency)
	}
	if ok.TotalJobTimeEfficiency == nil || *ok.TotalJobTimeEfficiency != 60 {
		t.Fatalf("total job time efficiency mismatch: %v", ok.TotalJobTimeEfficiency)
	}

	zero := decoded.Results[1].Stats
	if zero.Efficiencies[0].Percent != nil || zero.SubprocessEfficiency != nil {
		t.Fatalf("non-computable ratios must be null: %+v", zero)
	}

	if decoded.Results[2].Stats != nil || decoded.Results[2].Status != report.StatusFailed {
		t.Fatalf("failed result mismatch: %+v", decoded.Results[2])
	}
	if decoded.Summary.Failed != 1 || decoded.Summary.Candidates != 4 {
		t.Fatalf("summary mismatch: %+v", decoded.Summary)
	}
}

func TestJSONRendererEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewJSON(buf).Finish(report.Summary{}); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"results": []`)) {
		t.Fatalf("expected empty results array, got %s", buf.String())
	}
}
