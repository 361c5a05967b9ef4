// Package archive pulls the job report out of a job output tarball.
package archive

import (
	"archive/tar"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrMemberMissing indicates the archive does not contain the report member.
	ErrMemberMissing = errors.New("report member not found in archive")
	// ErrUnsupported indicates the file name carries no known archive suffix.
	ErrUnsupported = errors.New("unsupported archive type")
)

type codec int

const (
	codecNone codec = iota
	codecBzip2
	codecGzip
	codecZstd
)

// Compound suffixes are checked before the bare .tar suffix.
var suffixes = []struct {
	suffix string
	codec  codec
}{
	{".tar.bz2", codecBzip2},
	{".tar.gz", codecGzip},
	{".tar.zst", codecZstd},
	{".tbz2", codecBzip2},
	{".tgz", codecGzip},
	{".tar", codecNone},
}

// Supported reports whether path has an archive suffix Extract understands.
func Supported(path string) bool {
	_, _, ok := detect(path)
	return ok
}

// JobName returns the archive base name with its archive suffix removed.
// Job output tarballs store their report under a directory of that name.
func JobName(archivePath string) string {
	base := filepath.Base(archivePath)
	if _, suffix, ok := detect(base); ok {
		return strings.TrimSuffix(base, suffix)
	}
	return base
}

// MemberPath is the in-archive path of the report for archivePath.
func MemberPath(archivePath, member string) string {
	return path.Join(JobName(archivePath), member)
}

func detect(name string) (codec, string, bool) {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.suffix) && len(name) > len(s.suffix) {
			return s.codec, name[len(name)-len(s.suffix):], true
		}
	}
	return codecNone, "", false
}

// Extract copies the <job>/<member> entry of archivePath into destDir,
// preserving the <job>/ directory, and returns the written file's path.
func Extract(archivePath, member, destDir string) (string, error) {
	c, _, ok := detect(filepath.Base(archivePath))
	if !ok {
		return "", fmt.Errorf("%q: %w", archivePath, ErrUnsupported)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	stream, err := decompress(f, c)
	if err != nil {
		return "", fmt.Errorf("read archive %q: %w", archivePath, err)
	}
	defer stream.Close()

	want := MemberPath(archivePath, member)
	tr := tar.NewReader(stream)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%s in %q: %w", want, archivePath, ErrMemberMissing)
		}
		if err != nil {
			return "", fmt.Errorf("read archive %q: %w", archivePath, err)
		}
		if path.Clean(strings.TrimPrefix(hdr.Name, "./")) != want {
			continue
		}
		if !hdr.FileInfo().Mode().IsRegular() {
			return "", fmt.Errorf("%s in %q is not a regular file", want, archivePath)
		}
		return writeMember(tr, destDir, want)
	}
}

func writeMember(r io.Reader, destDir, member string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(member))
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("member %q escapes %q", member, destDir)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create %q: %w", filepath.Dir(target), err)
	}

	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create %q: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return "", fmt.Errorf("write %q: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %q: %w", target, err)
	}
	return target, nil
}

func decompress(r io.Reader, c codec) (io.ReadCloser, error) {
	switch c {
	case codecBzip2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	case codecGzip:
		return gzip.NewReader(r)
	case codecZstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	default:
		return io.NopCloser(r), nil
	}
}
