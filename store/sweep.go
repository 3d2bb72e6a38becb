package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nativestart-go/launcher/launcherrors"
)

// managedSet is the set of managed-path prefixes: artifact paths, the splash
// path, the reserved names, and the descriptor's unmanaged paths (which are
// "managed" only in the sense that the sweep must not descend past them —
// see DeleteUnusedFiles for how unmanaged differs from managed in practice).
type managedSet struct {
	managed   []string // forward-slash, no trailing slash
	unmanaged []string // forward-slash, no trailing slash
}

func normalizeRel(p string) string {
	p = filepath.ToSlash(p)
	return strings.TrimSuffix(p, "/")
}

// NewManagedSet builds the managed/unmanaged path sets from a descriptor's
// artifact paths, splash path, and unmanagedPaths, plus the store's own
// reserved names.
func NewManagedSet(artifactPaths []string, splashPath string, unmanagedPaths []string) *managedSet {
	m := &managedSet{}
	for _, p := range artifactPaths {
		m.managed = append(m.managed, normalizeRel(p))
	}
	m.managed = append(m.managed, normalizeRel(splashPath))
	for _, r := range ReservedNames {
		m.managed = append(m.managed, normalizeRel(r))
	}
	for _, p := range unmanagedPaths {
		m.unmanaged = append(m.unmanaged, normalizeRel(p))
	}
	sort.Strings(m.managed)
	sort.Strings(m.unmanaged)
	return m
}

// classify reports, for entry E (forward-slash relative path, no trailing
// slash), whether it exactly matches a managed or unmanaged path, is an
// ancestor of one (so the walk should descend into it), or is an orphan.
type verdict int

const (
	verdictOrphan verdict = iota
	verdictExactKeep
	verdictDescend
)

func (m *managedSet) classify(entry string) verdict {
	// Exact match beats ancestor match, and managed beats unmanaged for
	// exact-match entries per spec's boundary case.
	for _, p := range m.managed {
		if p == entry {
			return verdictExactKeep
		}
	}
	for _, p := range m.unmanaged {
		if p == entry {
			return verdictExactKeep
		}
	}
	for _, p := range m.managed {
		if strings.HasPrefix(p, entry+"/") {
			return verdictDescend
		}
	}
	for _, p := range m.unmanaged {
		if strings.HasPrefix(p, entry+"/") {
			return verdictDescend
		}
	}
	return verdictOrphan
}

// DeleteUnusedFiles is the orphan sweep: it recursively walks the
// installation root and deletes every entry that is neither an exact match
// for a managed/unmanaged path nor an ancestor of one.
func (s *Store) DeleteUnusedFiles(m *managedSet) error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "reading installation root")
	}
	for _, e := range entries {
		if err := s.sweepEntry(m, e.Name()); err != nil {
			return err
		}
	}
	return nil
}

// sweepEntry evaluates one top-level-relative entry and recurses into
// directories that are ancestors of a managed/unmanaged path.
func (s *Store) sweepEntry(m *managedSet, rel string) error {
	switch m.classify(rel) {
	case verdictExactKeep:
		return nil
	case verdictDescend:
		full := s.Path(rel)
		info, err := os.Stat(full)
		if err != nil {
			return launcherrors.Wrap(launcherrors.Storage, err, "statting %s during sweep", rel)
		}
		if !info.IsDir() {
			// An ancestor match implies a managed descendant lives under
			// this entry, which is only possible if it is a directory.
			return nil
		}
		children, err := os.ReadDir(full)
		if err != nil {
			return launcherrors.Wrap(launcherrors.Storage, err, "reading %s during sweep", rel)
		}
		for _, c := range children {
			if err := s.sweepEntry(m, rel+"/"+c.Name()); err != nil {
				return err
			}
		}
		return nil
	default:
		if err := os.RemoveAll(s.Path(rel)); err != nil {
			return launcherrors.Wrap(launcherrors.Storage, err, "deleting orphan %s", rel)
		}
		return nil
	}
}
