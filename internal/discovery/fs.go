// Package discovery finds job output archives under a workflow directory.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/bgricker/wmstats/internal/filter"
)

// DefaultSampleSize caps how many files are taken from one subdirectory.
const DefaultSampleSize = 10

// ErrRootNotFound indicates the root path does not exist.
var ErrRootNotFound = errors.New("path does not exist")

// Candidate is one file selected for extraction.
type Candidate struct {
	Subdir string `json:"subdir"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
}

// Warning captures a subdirectory that could not be scanned.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Options control sampling.
type Options struct {
	// SampleSize is the per-subdirectory cap; values <= 0 use DefaultSampleSize.
	SampleSize int
	// Rand drives sampling. A nil Rand uses the process-wide source.
	Rand   *rand.Rand
	Filter filter.Set
}

// Archives lists the immediate subdirectories of root and selects up to
// SampleSize regular files from each. Subdirectories are visited in name
// order; when a directory holds more files than the cap, a uniform random
// subset is taken without replacement. Unreadable subdirectories produce a
// warning and are skipped.
func Archives(root string, opts Options) ([]Candidate, []Warning, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%q: %w", root, ErrRootNotFound)
		}
		return nil, nil, fmt.Errorf("stat %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%q is not a directory", root)
	}

	subdirs, err := Subdirs(root)
	if err != nil {
		return nil, nil, err
	}

	size := opts.SampleSize
	if size <= 0 {
		size = DefaultSampleSize
	}

	var (
		candidates []Candidate
		warnings   []Warning
	)
	for _, name := range opts.Filter.Names(subdirs) {
		dir := filepath.Join(root, name)
		files, err := regularFiles(dir)
		if err != nil {
			warnings = append(warnings, Warning{Path: dir, Message: err.Error()})
			continue
		}
		for _, f := range Sample(opts.Rand, files, size) {
			candidates = append(candidates, Candidate{Subdir: name, Path: f.path, Size: f.size})
		}
	}
	return candidates, warnings, nil
}

// Subdirs returns the names of the directories directly under root, sorted.
// Symbolic links to directories count as directories.
func Subdirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", root, err)
	}
	var names []string
	for _, entry := range entries {
		info, err := resolve(root, entry)
		if err != nil {
			continue
		}
		if info.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

type file struct {
	path string
	size int64
}

func regularFiles(dir string) ([]file, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}
	files := make([]file, 0, len(entries))
	for _, entry := range entries {
		info, err := resolve(dir, entry)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() {
			files = append(files, file{path: filepath.Join(dir, entry.Name()), size: info.Size()})
		}
	}
	return files, nil
}

func resolve(dir string, entry fs.DirEntry) (fs.FileInfo, error) {
	if entry.Type()&fs.ModeSymlink != 0 {
		return os.Stat(filepath.Join(dir, entry.Name()))
	}
	return entry.Info()
}

// Sample returns n items drawn uniformly without replacement, or all items
// when there are no more than n.
func Sample[T any](r *rand.Rand, items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	var perm []int
	if r != nil {
		perm = r.Perm(len(items))
	} else {
		perm = rand.Perm(len(items))
	}
	out := make([]T, 0, n)
	for _, i := range perm[:n] {
		out = append(out, items[i])
	}
	return out
}
