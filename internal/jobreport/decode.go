package jobreport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the serialization of a report member.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned when a report file extension maps to no decoder.
var ErrUnknownFormat = errors.New("unknown report format")

// FormatFor picks the decoder for a report path from its extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%q: %w", path, ErrUnknownFormat)
	}
}

// Load reads and decodes the report stored at path.
func Load(path string) (*Report, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	rep, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("load report %q: %w", path, err)
	}
	return rep, nil
}

// Decode parses a serialized report.
func Decode(r io.Reader, format Format) (*Report, error) {
	var raw map[string]any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
	if raw == nil {
		return nil, fmt.Errorf("empty report: %w", ErrMissingField)
	}
	return fromRaw(raw)
}

func fromRaw(raw map[string]any) (*Report, error) {
	timing, err := child(raw, "WMTiming", "WMTiming")
	if err != nil {
		return nil, err
	}
	wall, err := number(timing, "WMTotalWallClockTime", "WMTiming.WMTotalWallClockTime")
	if err != nil {
		return nil, err
	}

	rawSteps, ok := raw["steps"]
	if !ok {
		return nil, fmt.Errorf("steps: %w", ErrMissingField)
	}
	list, ok := rawSteps.([]any)
	if !ok {
		return nil, fmt.Errorf("steps: %w: expected a list, got %T", ErrMalformedField, rawSteps)
	}

	rep := &Report{
		WallClock: wall,
		Steps:     make([]string, 0, len(list)),
		Records:   make(map[string]StepRecord, len(list)),
	}
	for i, item := range list {
		name, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("steps[%d]: %w: expected a string, got %T", i, ErrMalformedField, item)
		}
		rep.Steps = append(rep.Steps, name)

		// A declared step without a record is reported when the step is used.
		if _, present := raw[name]; !present {
			continue
		}
		rec, err := stepRecord(raw, name)
		if err != nil {
			return nil, err
		}
		rep.Records[name] = rec
	}
	return rep, nil
}

func stepRecord(raw map[string]any, name string) (StepRecord, error) {
	m, err := child(raw, name, name)
	if err != nil {
		return StepRecord{}, err
	}
	var rec StepRecord
	if rec.StartTime, err = number(m, "startTime", name+".startTime"); err != nil {
		return StepRecord{}, err
	}
	if rec.StopTime, err = number(m, "stopTime", name+".stopTime"); err != nil {
		return StepRecord{}, err
	}

	rec.SubprocessWallClock = optional(m, "WMCMSSWSubprocess", "wallClockTime")
	rec.TotalJobTime = optional(m, "performance", "cmssw", "Timing", "TotalJobTime")
	return rec, nil
}

// optional walks a path of maps ending in a number. Only processing steps
// need these timings, so a missing or ill-shaped link yields nil and the
// analyzer decides whether the step is incomplete.
func optional(m map[string]any, keys ...string) *float64 {
	var cur any = m
	for _, key := range keys {
		next, err := asMap(cur, key)
		if err != nil {
			return nil
		}
		if cur = next[key]; cur == nil {
			return nil
		}
	}
	f, err := toFloat(cur, "")
	if err != nil {
		return nil
	}
	return &f
}

func child(m map[string]any, key, path string) (map[string]any, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingField)
	}
	return asMap(v, path)
}

func asMap(v any, path string) (map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: %w: expected a mapping, got %T", path, ErrMalformedField, v)
	}
}

func number(m map[string]any, key, path string) (float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s: %w", path, ErrMissingField)
	}
	return toFloat(v, path)
}

func toFloat(v any, path string) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("%s: %w: %v", path, ErrMalformedField, err)
		}
		return f, nil
	case string:
		// Framework job reports sometimes carry timings as strings.
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w: %q is not a number", path, ErrMalformedField, t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%s: %w: expected a number, got %T", path, ErrMalformedField, v)
	}
}
