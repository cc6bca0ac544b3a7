package psddiff

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/deepteams/psddiff/internal/decompose"
	"github.com/deepteams/psddiff/internal/diffengine"
)

// Measure reports how many bytes a diff from aPath to bPath would occupy,
// without materializing it.
func Measure(aPath, bPath string) (uint64, error) {
	a, aSize, err := openSized(aPath)
	if err != nil {
		return 0, wrapErr(err)
	}
	defer a.Close()
	b, bSize, err := openSized(bPath)
	if err != nil {
		return 0, wrapErr(err)
	}
	defer b.Close()

	n, err := diffengine.Measure(a, aSize, b, bSize)
	if err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}

// Create writes a PSDDIFF1 edit script describing how bPath derives from
// aPath to out.
func Create(aPath, bPath string, out io.Writer) error {
	a, aSize, err := openSized(aPath)
	if err != nil {
		return wrapErr(err)
	}
	defer a.Close()
	b, bSize, err := openSized(bPath)
	if err != nil {
		return wrapErr(err)
	}
	defer b.Close()

	if err := diffengine.Create(a, aSize, b, bSize, out); err != nil {
		return wrapErr(err)
	}
	return nil
}

// Apply reconstructs a file by applying diffPaths to aPath in order,
// writing the final result to out. A single diff is applied directly;
// multiple diffs are applied sequentially, each against the previous
// diff's output.
func Apply(aPath string, diffPaths []string, out io.Writer) error {
	if len(diffPaths) == 0 {
		return ErrApplyNeedsDiff
	}

	source, err := os.Open(aPath)
	if err != nil {
		return wrapErr(err)
	}
	defer source.Close()

	var current io.Reader = source
	for i, dp := range diffPaths {
		df, err := os.Open(dp)
		if err != nil {
			return wrapErr(err)
		}

		var dst io.Writer
		var buf *bytes.Buffer
		if i == len(diffPaths)-1 {
			dst = out
		} else {
			buf = &bytes.Buffer{}
			dst = buf
		}

		err = diffengine.Apply(current, df, dst)
		df.Close()
		if err != nil {
			return wrapErr(err)
		}
		if buf != nil {
			current = buf
		}
	}
	return nil
}

// Combine folds diffPaths left-to-right into a single equivalent diff,
// written to out. At least two diffs are required.
func Combine(diffPaths []string, out io.Writer) error {
	if len(diffPaths) < 2 {
		return ErrCombineNeedsTwoDiffs
	}

	readers := make([]io.Reader, 0, len(diffPaths))
	var files []*os.File
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, dp := range diffPaths {
		f, err := os.Open(dp)
		if err != nil {
			return wrapErr(err)
		}
		files = append(files, f)
		readers = append(readers, f)
	}

	if err := diffengine.Combine(readers, out); err != nil {
		return wrapErr(err)
	}
	return nil
}

// Decompose splits each PSD at paths into content-addressed chunks,
// writing a manifest and a sibling decomposed_objects pool next to each.
func Decompose(paths []string) error {
	for _, p := range paths {
		if err := decompose.Decompose(p); err != nil {
			return wrapErr(err)
		}
	}
	return nil
}

// Restore reconstructs the files named by manifestPaths. If out is
// non-nil, exactly one manifest path is expected and its restored bytes
// are written to out, ignoring prefix/postfix. Otherwise each manifest is
// restored to a file named prefix+<basename without the manifest
// suffix>+postfix, alongside the manifest.
func Restore(manifestPaths []string, prefix, postfix string, out io.Writer) error {
	if out != nil {
		if len(manifestPaths) != 1 {
			return ErrRestoreNeedsSingleWriter
		}
		if err := decompose.Restore(manifestPaths[0], out); err != nil {
			return wrapErr(err)
		}
		return nil
	}

	for _, mp := range manifestPaths {
		base := strings.TrimSuffix(filepath.Base(mp), decompose.ManifestSuffix)
		outPath := filepath.Join(filepath.Dir(mp), prefix+base+postfix)
		f, err := os.Create(outPath)
		if err != nil {
			return wrapErr(err)
		}
		err = decompose.Restore(mp, f)
		closeErr := f.Close()
		if err != nil {
			return wrapErr(err)
		}
		if closeErr != nil {
			return wrapErr(closeErr)
		}
	}
	return nil
}

// Sha reports the SHA-256 digest each manifest in paths would restore to,
// in the same order as paths, without writing the restored bytes anywhere.
func Sha(paths []string) ([]string, error) {
	hashes := make([]string, 0, len(paths))
	for _, p := range paths {
		h, err := decompose.Sha(p)
		if err != nil {
			return nil, wrapErr(err)
		}
		hashes = append(hashes, h)
	}
	return hashes, nil
}

// Remove deletes the given manifests and garbage-collects any pool
// chunks no remaining manifest in their directory references.
func Remove(manifests []string) error {
	if err := decompose.Remove(manifests); err != nil {
		return wrapErr(err)
	}
	return nil
}

// Cleanup garbage-collects dir's chunk pool against every manifest
// currently present in dir.
func Cleanup(dir string) error {
	if err := decompose.Cleanup(dir); err != nil {
		return wrapErr(err)
	}
	return nil
}

func openSized(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}
