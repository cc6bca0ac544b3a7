package decompose

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrManifestMalformed is returned by ReadManifest when a line is not a
// 64-character lowercase hex SHA-256 digest.
var ErrManifestMalformed = errors.New("decompose: malformed manifest")

// ManifestSuffix is appended to a source file's own name to derive its
// manifest path, e.g. "photo.psd" -> "photo.psd.decomposed".
const ManifestSuffix = ".decomposed"

// ManifestPath returns the manifest path for a source file.
func ManifestPath(sourcePath string) string {
	return sourcePath + ManifestSuffix
}

// Manifest is the ordered list of chunk hashes that reconstruct a file.
type Manifest struct {
	Hashes []string
}

// ReadManifest parses a manifest file: one lowercase hex SHA-256 digest
// per line, blank lines ignored.
func ReadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := &Manifest{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 256), 1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if len(line) != 64 || !isHex(line) {
			return nil, fmt.Errorf("%s:%d: malformed chunk hash %q: %w", path, lineNo, line, ErrManifestMalformed)
		}
		m.Hashes = append(m.Hashes, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteManifest writes hashes to path, one per line, via a temp file
// rename so a reader never observes a partially written manifest.
func WriteManifest(path string, hashes []string) error {
	var b strings.Builder
	for _, h := range hashes {
		b.WriteString(h)
		b.WriteByte('\n')
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-manifest-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
