package store

import (
	"github.com/nativestart-go/launcher/descriptor"
	"github.com/nativestart-go/launcher/validate"
)

// GetFilesToDownload restores any pending trash for each artifact (to
// collapse state left by an interrupted prior run), then returns the subset
// that still fails validation.
func (s *Store) GetFilesToDownload(alg validate.Algorithm, artifacts []descriptor.Artifact) ([]descriptor.Artifact, error) {
	var missing []descriptor.Artifact
	for _, a := range artifacts {
		if err := s.RestoreTrash(a.Path); err != nil {
			return nil, err
		}

		ok, err := validate.Validate(alg, s.ValidateTarget(a))
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, a)
		}
	}
	return missing, nil
}

// ValidateTarget resolves a descriptor artifact to a validate.Target rooted
// at this store.
func (s *Store) ValidateTarget(a descriptor.Artifact) validate.Target {
	return validate.Target{
		Path:      s.Path(a.Path),
		Size:      a.Size,
		Checksum:  a.Checksum,
		IsArchive: a.IsArchive(),
	}
}
