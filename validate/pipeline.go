package validate

// Target is the minimal capability list a validator needs: a resolved
// filesystem path, the declared size and checksum, and whether the entry is
// an archive (recursive size/structural hash) or a file (direct size/hash).
// Kept as a small closed struct rather than an artifact interface, since the
// validator set itself is closed (existence, size, checksum).
type Target struct {
	Path      string
	Size      uint64
	Checksum  string
	IsArchive bool
}

// Validate runs the existence → size → checksum chain as an AND
// short-circuit: the first failing stage stops evaluation and reports
// failure without running the later, more expensive stages.
func Validate(alg Algorithm, t Target) (bool, error) {
	if !exists(t.Path) {
		return false, nil
	}

	var size uint64
	var err error
	if t.IsArchive {
		size, err = archiveSize(t.Path)
	} else {
		size, err = fileSize(t.Path)
	}
	if err != nil {
		return false, err
	}
	if size != t.Size {
		return false, nil
	}

	return checksum(alg, t.Path, t.IsArchive, t.Checksum)
}
