// Package stats derives wall clock efficiencies from a job report.
package stats

import (
	"fmt"
	"strconv"
	"strings"
)

// WrapperKey is the textual key of the wrapper wall clock entry.
const WrapperKey = "WM_wrapper"

// Kind tags a TimeTable entry.
type Kind int

const (
	// Wrapper is the total wall clock time measured by the job wrapper.
	Wrapper Kind = iota
	// Step is a step duration measured by the wrapper (stop - start).
	Step
	// SubprocessWallClock is the wall clock of the processing subprocess.
	SubprocessWallClock
	// TotalJobTime is the time reported by the processing program itself.
	TotalJobTime
)

func (k Kind) String() string {
	switch k {
	case Wrapper:
		return "wrapper"
	case Step:
		return "step"
	case SubprocessWallClock:
		return "subprocess"
	case TotalJobTime:
		return "total-job-time"
	default:
		return "unknown"
	}
}

// Key identifies one entry of a TimeTable.
type Key struct {
	Step string
	Kind Kind
}

// String renders the key the way job reports name composite timings.
func (k Key) String() string {
	switch k.Kind {
	case Wrapper:
		return WrapperKey
	case SubprocessWallClock:
		return k.Step + "--WMCMSSWSubprocess"
	case TotalJobTime:
		return k.Step + "--TotalJobTime"
	default:
		return k.Step
	}
}

// Entry is a single named duration in seconds.
type Entry struct {
	Key     Key
	Seconds float64
}

// TimeTable is an insertion-ordered mapping from Key to duration.
type TimeTable struct {
	entries []Entry
	index   map[Key]int
}

// NewTimeTable returns an empty table.
func NewTimeTable() *TimeTable {
	return &TimeTable{index: make(map[Key]int)}
}

// Set stores a duration, keeping its existing position when the key exists.
func (t *TimeTable) Set(key Key, seconds float64) {
	if i, ok := t.index[key]; ok {
		t.entries[i].Seconds = seconds
		return
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, Entry{Key: key, Seconds: seconds})
}

// Get returns the duration stored under key.
func (t *TimeTable) Get(key Key) (float64, bool) {
	i, ok := t.index[key]
	if !ok {
		return 0, false
	}
	return t.entries[i].Seconds, true
}

// Entries returns a copy of the entries in insertion order.
func (t *TimeTable) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Len reports the number of entries.
func (t *TimeTable) Len() int {
	return len(t.entries)
}

// String renders the table as {key: value, ...}.
func (t *TimeTable) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range t.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", e.Key, FormatSeconds(e.Seconds))
	}
	b.WriteByte('}')
	return b.String()
}

// FormatSeconds prints a duration with the shortest exact representation.
func FormatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
