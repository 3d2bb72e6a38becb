package validate

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// archiveHash computes the structural hash of an archive-artifact directory:
// a canonical serialization of (relative_path, per-file-hash) pairs,
// independent of how the directory was tar-packed. A symlink's contribution
// is the hash of its link-target string rather than its contents.
func archiveHash(alg Algorithm, dir string) (string, error) {
	entries := map[string]string{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			entries[rel] = hashBytes(alg, []byte(target))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		h, err := hashReader(alg, f)
		if err != nil {
			return err
		}
		entries[rel] = h
		return nil
	})
	if err != nil {
		return "", err
	}

	return serializeAndHash(alg, entries), nil
}

// serializeAndHash feeds the lexicographically-ordered "path\thash\n" stream
// to a fresh hasher and returns the resulting hex digest. An empty entry set
// yields the digest of the empty stream.
func serializeAndHash(alg Algorithm, entries map[string]string) string {
	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h := newHasher(alg)
	for _, p := range paths {
		h.Write([]byte(p))
		h.Write([]byte{'\t'})
		h.Write([]byte(entries[p]))
		h.Write([]byte{'\n'})
	}
	return hexSum(h)
}
