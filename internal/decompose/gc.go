package decompose

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Remove deletes the manifests at manifestPaths and then garbage-collects
// every distinct directory they lived in, so a chunk still referenced by
// some other manifest sharing the same pool is never deleted.
func Remove(manifestPaths []string) error {
	dirs := make(map[string]struct{})
	for _, mp := range manifestPaths {
		if err := os.Remove(mp); err != nil && !os.IsNotExist(err) {
			return err
		}
		dirs[filepath.Dir(mp)] = struct{}{}
	}
	for dir := range dirs {
		if err := Cleanup(dir); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup scans dir for every remaining *.decomposed manifest, unions the
// hashes they still reference, and deletes any chunk in dir's pool that
// no manifest references anymore. It is safe to call on a directory
// holding manifests for several unrelated source files, since they all
// share one decomposed_objects pool.
func Cleanup(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var manifests []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ManifestSuffix) {
			manifests = append(manifests, filepath.Join(dir, e.Name()))
		}
	}

	live := make([]map[string]struct{}, len(manifests))
	var g errgroup.Group
	for i, mp := range manifests {
		i, mp := i, mp
		g.Go(func() error {
			m, err := ReadManifest(mp)
			if err != nil {
				return err
			}
			set := make(map[string]struct{}, len(m.Hashes))
			for _, h := range m.Hashes {
				set[h] = struct{}{}
			}
			live[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	referenced := make(map[string]struct{})
	for _, set := range live {
		for h := range set {
			referenced[h] = struct{}{}
		}
	}

	pool, err := OpenPool(filepath.Join(dir, poolDirName))
	if err != nil {
		return err
	}
	hashes, err := pool.List()
	if err != nil {
		return err
	}
	for _, h := range hashes {
		if _, ok := referenced[h]; !ok {
			if err := pool.Remove(h); err != nil {
				return err
			}
		}
	}
	return nil
}
