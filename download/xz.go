package download

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/nativestart-go/launcher/descriptor"
	"github.com/nativestart-go/launcher/launcherrors"
	"github.com/nativestart-go/launcher/progress"
)

// ErrPathTraversal indicates a tar entry attempted to escape the
// destination directory during archive extraction.
var ErrPathTraversal = errors.New("tar entry contains path traversal")

// fetchArchive streams an archive artifact's body through an XZ decoder and
// unpacks the resulting tar straight into target, which must not yet exist
// (store.PathForWrite guarantees this). Extraction happens into a sibling
// temp directory first, then is renamed into place atomically, so a failed
// extraction never leaves target partially populated — the trash mirror
// still holds the prior good version for restore_trash.
func (e *Engine) fetchArchive(ctx context.Context, a descriptor.Artifact, target string, counter *progress.Counter) error {
	resp, err := e.open(ctx, a.URL)
	if err != nil {
		return err
	}
	defer resp.Close()

	counted := &progressReader{r: resp, counter: counter}

	xzReader, err := xz.NewReader(counted)
	if err != nil {
		return launcherrors.Wrap(launcherrors.Download, err, "opening xz stream for %s", a.URL)
	}

	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "creating parent of %s", target)
	}

	tmpDir, err := os.MkdirTemp(parent, ".extract-*")
	if err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "creating extraction temp dir")
	}
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.RemoveAll(tmpDir)
		}
	}()

	if err := unpackTar(tar.NewReader(xzReader), tmpDir); err != nil {
		return err
	}

	if err := os.RemoveAll(target); err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "clearing extraction target %s", target)
	}
	if err := os.Rename(tmpDir, target); err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "renaming extracted archive into place")
	}
	cleanup = false

	return nil
}

// unpackTar extracts every entry from tr into dstDir, validating that no
// entry (regular file, directory, or symlink target) resolves outside it.
func unpackTar(tr *tar.Reader, dstDir string) error {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return launcherrors.Wrap(launcherrors.Download, err, "reading tar entry")
		}

		if err := validateTarEntry(hdr, dstDir); err != nil {
			return err
		}
		target := filepath.Join(dstDir, filepath.Clean(hdr.Name))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)&0o777|0o755); err != nil {
				return launcherrors.Wrap(launcherrors.Storage, err, "creating directory %s", hdr.Name)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return launcherrors.Wrap(launcherrors.Storage, err, "creating parent for %s", hdr.Name)
			}
			if err := extractFile(target, tr, hdr.FileInfo().Mode()); err != nil {
				return launcherrors.Wrap(launcherrors.Storage, err, "extracting %s", hdr.Name)
			}

		case tar.TypeSymlink:
			if err := validateSymlinkTarget(hdr, dstDir, target); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return launcherrors.Wrap(launcherrors.Storage, err, "creating symlink %s", hdr.Name)
			}
		}
	}
}

// validateTarEntry rejects absolute paths, ".." components, and entries
// that resolve outside dstDir once joined and cleaned.
func validateTarEntry(hdr *tar.Header, dstDir string) error {
	clean := filepath.Clean(hdr.Name)

	if filepath.IsAbs(clean) {
		return launcherrors.Wrap(launcherrors.Security, ErrPathTraversal, "absolute path %q", hdr.Name)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return launcherrors.Wrap(launcherrors.Security, ErrPathTraversal, "%q escapes destination", hdr.Name)
	}

	resolved := filepath.Join(dstDir, clean)
	rel, err := filepath.Rel(dstDir, resolved)
	if err != nil || strings.HasPrefix(rel, "..") {
		return launcherrors.Wrap(launcherrors.Security, ErrPathTraversal, "%q resolves outside destination", hdr.Name)
	}
	return nil
}

// validateSymlinkTarget rejects symlinks whose target resolves outside
// dstDir, whether the link is absolute or relative.
func validateSymlinkTarget(hdr *tar.Header, dstDir, target string) error {
	linkTarget := hdr.Linkname
	if !filepath.IsAbs(linkTarget) {
		linkTarget = filepath.Join(filepath.Dir(target), linkTarget)
	}
	linkTarget = filepath.Clean(linkTarget)

	relToDst, err := filepath.Rel(dstDir, linkTarget)
	if err != nil || strings.HasPrefix(relToDst, "..") {
		return launcherrors.Wrap(launcherrors.Security, ErrPathTraversal, "symlink %s -> %s escapes destination", hdr.Name, hdr.Linkname)
	}
	return nil
}

// extractFile writes a tar entry to disk atomically: write to a sibling
// ".tmp" path, then rename into place.
func extractFile(target string, r io.Reader, mode os.FileMode) error {
	tmp := target + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode&0o777|0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, target)
}

// progressReader wraps an io.Reader, fanning in each chunk's byte count to
// a shared progress.Counter's in-flight accumulation as the compressed
// stream is read (progress is reported against the compressed/download
// size, matching downloadSize's "compressed bytes" semantics).
type progressReader struct {
	r       io.Reader
	counter *progress.Counter
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.counter.Add(uint64(n))
	}
	return n, err
}
