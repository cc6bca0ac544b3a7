package decompose

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecomposeThenRestoreRoundTrips(t *testing.T) {
	dir := t.TempDir()
	data := buildPSD([]byte("resource payload"), []byte("channel payload"), []byte("trailing image data"))
	srcPath := filepath.Join(dir, "photo.psd")
	require.NoError(t, os.WriteFile(srcPath, data, 0o644))

	require.NoError(t, Decompose(srcPath))

	manifestPath := ManifestPath(srcPath)
	require.FileExists(t, manifestPath)
	require.DirExists(t, filepath.Join(dir, "decomposed_objects"))

	var out bytes.Buffer
	require.NoError(t, Restore(manifestPath, &out))
	require.Equal(t, data, out.Bytes())
}

func TestDecomposeIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	data := buildPSD([]byte("r"), []byte("c"), []byte("image bytes here"))
	srcPath := filepath.Join(dir, "photo.psd")
	require.NoError(t, os.WriteFile(srcPath, data, 0o644))

	require.NoError(t, Decompose(srcPath))
	m1, err := ReadManifest(ManifestPath(srcPath))
	require.NoError(t, err)

	require.NoError(t, Decompose(srcPath))
	m2, err := ReadManifest(ManifestPath(srcPath))
	require.NoError(t, err)

	require.Equal(t, m1.Hashes, m2.Hashes)
}

func TestShaMatchesDirectHashOfOriginal(t *testing.T) {
	dir := t.TempDir()
	data := buildPSD([]byte("r"), []byte("c"), []byte("some trailing data"))
	srcPath := filepath.Join(dir, "photo.psd")
	require.NoError(t, os.WriteFile(srcPath, data, 0o644))
	require.NoError(t, Decompose(srcPath))

	got, err := Sha(ManifestPath(srcPath))
	require.NoError(t, err)

	want := sha256.Sum256(data)
	require.Equal(t, hex.EncodeToString(want[:]), got)
}

func TestRestoreReportsMissingChunk(t *testing.T) {
	dir := t.TempDir()
	data := buildPSD([]byte("r"), []byte("c"), []byte("trailing"))
	srcPath := filepath.Join(dir, "photo.psd")
	require.NoError(t, os.WriteFile(srcPath, data, 0o644))
	require.NoError(t, Decompose(srcPath))

	manifestPath := ManifestPath(srcPath)
	m, err := ReadManifest(manifestPath)
	require.NoError(t, err)
	require.NotEmpty(t, m.Hashes)
	require.NoError(t, os.Remove(filepath.Join(PoolDir(manifestPath), m.Hashes[0])))

	var out bytes.Buffer
	err = Restore(manifestPath, &out)
	require.Error(t, err)
	var missing ErrMissingChunk
	require.ErrorAs(t, err, &missing)
}
