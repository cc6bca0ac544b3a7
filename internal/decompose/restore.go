package decompose

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Decompose reads the PSD file at sourcePath, writes its unique chunks
// into the pool directory sibling to the manifest, and writes the
// manifest itself. It is idempotent: re-decomposing the same file
// reproduces the same manifest and never duplicates pool entries.
func Decompose(sourcePath string) error {
	f, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer f.Close()

	ranges, err := Plan(f)
	if err != nil {
		return err
	}

	manifestPath := ManifestPath(sourcePath)
	pool, err := OpenPool(PoolDir(manifestPath))
	if err != nil {
		return err
	}

	hashes := make([]string, 0, len(ranges))
	buf := make([]byte, 0, 1<<20)
	for _, rg := range ranges {
		if int64(cap(buf)) < rg.Length {
			buf = make([]byte, rg.Length)
		}
		chunk := buf[:rg.Length]
		if _, err := f.ReadAt(chunk, rg.Offset); err != nil {
			return err
		}
		hash, err := pool.Put(chunk)
		if err != nil {
			return err
		}
		hashes = append(hashes, hash)
	}

	return WriteManifest(manifestPath, hashes)
}

// Restore reconstructs a source file from its manifest, writing the
// concatenated chunk bytes to out in manifest order.
func Restore(manifestPath string, out io.Writer) error {
	m, err := ReadManifest(manifestPath)
	if err != nil {
		return err
	}
	pool, err := OpenPool(PoolDir(manifestPath))
	if err != nil {
		return err
	}
	for _, hash := range m.Hashes {
		if err := copyChunk(pool, hash, out); err != nil {
			return err
		}
	}
	return nil
}

// Sha streams the chunk bodies a manifest resolves to through a SHA-256
// hasher without writing the restored file anywhere, returning the hex
// digest of what restoring manifestPath would produce.
func Sha(manifestPath string) (string, error) {
	h := sha256.New()
	if err := Restore(manifestPath, h); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyChunk(pool *Pool, hash string, out io.Writer) error {
	r, err := pool.Open(hash)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(out, r)
	return err
}
