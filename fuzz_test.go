package psddiff_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/deepteams/psddiff"
)

// addSeedCorpus adds every file under testdata/ to the fuzz corpus.
func addSeedCorpus(f *testing.F) {
	f.Helper()
	entries, err := os.ReadDir("testdata")
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join("testdata", e.Name()))
		if err != nil {
			continue
		}
		f.Add(data)
	}
}

// fuzzPSD turns arbitrary fuzzer bytes into a structurally valid PSD whose
// trailing image data is the fuzzer input, so the fuzz targets below spend
// their budget on the diff/apply machinery rather than rejecting malformed
// headers outright.
func fuzzPSD(tail []byte) []byte {
	return buildPSD(tail)
}

// FuzzCreateApplyRoundTrip ensures that for any two byte strings, diffing
// the PSDs they produce and applying the result always reconstructs the
// second PSD exactly, and that neither Create nor Apply ever panics on
// arbitrary image-data payloads.
func FuzzCreateApplyRoundTrip(f *testing.F) {
	addSeedCorpus(f)
	f.Add([]byte("a"), []byte("bb"))
	f.Add([]byte(""), []byte(""))
	f.Add([]byte("same"), []byte("same"))
	f.Add([]byte("short"), []byte("a much longer replacement payload"))

	f.Fuzz(func(t *testing.T, aTail, bTail []byte) {
		dir := t.TempDir()
		a := fuzzPSD(aTail)
		b := fuzzPSD(bTail)

		aPath := filepath.Join(dir, "a.psd")
		bPath := filepath.Join(dir, "b.psd")
		if err := os.WriteFile(aPath, a, 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(bPath, b, 0o644); err != nil {
			t.Fatal(err)
		}

		var diff bytes.Buffer
		if err := psddiff.Create(aPath, bPath, &diff); err != nil {
			t.Fatalf("create: %v", err)
		}

		diffPath := filepath.Join(dir, "a-to-b.diff")
		if err := os.WriteFile(diffPath, diff.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}

		var out bytes.Buffer
		if err := psddiff.Apply(aPath, []string{diffPath}, &out); err != nil {
			t.Fatalf("apply: %v", err)
		}
		if !bytes.Equal(out.Bytes(), b) {
			t.Fatalf("roundtrip mismatch: got %d bytes, want %d bytes", out.Len(), len(b))
		}
	})
}

// FuzzCombineAssociativity ensures that combining a-to-b and b-to-c and
// applying the result against a matches applying the two diffs
// sequentially, for any three byte strings.
func FuzzCombineAssociativity(f *testing.F) {
	f.Add([]byte("v1"), []byte("v2 longer"), []byte("v3"))
	f.Add([]byte(""), []byte("x"), []byte(""))

	f.Fuzz(func(t *testing.T, aTail, bTail, cTail []byte) {
		dir := t.TempDir()
		a := fuzzPSD(aTail)
		b := fuzzPSD(bTail)
		c := fuzzPSD(cTail)

		aPath := writePath(t, dir, "a.psd", a)
		bPath := writePath(t, dir, "b.psd", b)
		cPath := writePath(t, dir, "c.psd", c)

		d1Path := filepath.Join(dir, "a-to-b.diff")
		f1, err := os.Create(d1Path)
		if err != nil {
			t.Fatal(err)
		}
		if err := psddiff.Create(aPath, bPath, f1); err != nil {
			f1.Close()
			t.Fatalf("create a-to-b: %v", err)
		}
		f1.Close()

		d2Path := filepath.Join(dir, "b-to-c.diff")
		f2, err := os.Create(d2Path)
		if err != nil {
			t.Fatal(err)
		}
		if err := psddiff.Create(bPath, cPath, f2); err != nil {
			f2.Close()
			t.Fatalf("create b-to-c: %v", err)
		}
		f2.Close()

		combinedPath := filepath.Join(dir, "a-to-c.diff")
		fc, err := os.Create(combinedPath)
		if err != nil {
			t.Fatal(err)
		}
		if err := psddiff.Combine([]string{d1Path, d2Path}, fc); err != nil {
			fc.Close()
			t.Fatalf("combine: %v", err)
		}
		fc.Close()

		var sequential bytes.Buffer
		if err := psddiff.Apply(aPath, []string{d1Path, d2Path}, &sequential); err != nil {
			t.Fatalf("sequential apply: %v", err)
		}

		var combined bytes.Buffer
		if err := psddiff.Apply(aPath, []string{combinedPath}, &combined); err != nil {
			t.Fatalf("combined apply: %v", err)
		}

		if !bytes.Equal(sequential.Bytes(), combined.Bytes()) {
			t.Fatalf("combine associativity broken: sequential %d bytes, combined %d bytes",
				sequential.Len(), combined.Len())
		}
		if !bytes.Equal(combined.Bytes(), c) {
			t.Fatalf("combined result does not match c: got %d bytes, want %d bytes", combined.Len(), len(c))
		}
	})
}

func writePath(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
