package validate

import (
	"os"
	"strings"
)

// checksum returns true when path's digest, computed the way dictated by
// artifact.IsArchive, equals wantHex. File artifacts are hashed by content;
// archive artifacts by their structural hash (see archive.go).
func checksum(alg Algorithm, path string, isArchive bool, wantHex string) (bool, error) {
	var got string
	var err error

	if isArchive {
		got, err = archiveHash(alg, path)
	} else {
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return false, err
		}
		defer f.Close()
		got, err = hashReader(alg, f)
	}
	if err != nil {
		return false, err
	}

	return strings.EqualFold(got, wantHex), nil
}
