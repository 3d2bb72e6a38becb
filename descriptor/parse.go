package descriptor

import (
	"encoding/json"
	"strings"

	"github.com/nativestart-go/launcher/launcherrors"
)

// Parse deserializes raw descriptor JSON and, when trustAnchorHex is
// non-empty, verifies its signature. trustAnchorHex is the hex-encoded
// Ed25519 public key the caller trusts; pass "" when the launcher was
// started without a trust anchor.
//
// Path safety is enforced unconditionally: any artifact whose path contains
// ".." is a fatal, non-recoverable Security error regardless of signature
// outcome.
func Parse(raw []byte, trustAnchorHex string) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, launcherrors.Wrap(launcherrors.InvalidJSON, err, "decoding descriptor")
	}

	for _, a := range d.AllArtifacts() {
		if strings.Contains(a.Path, "..") {
			return nil, launcherrors.New(launcherrors.Security, "artifact path %q contains \"..\"", a.Path)
		}
	}

	hasAnchor := trustAnchorHex != ""
	hasSignature := d.Signature != ""

	switch {
	case !hasAnchor && !hasSignature:
		// accept
	case !hasAnchor && hasSignature:
		return nil, signatureErrorNotSupported()
	case hasAnchor && !hasSignature:
		return nil, signatureErrorMissing()
	default:
		if err := verifySignature(raw, d.Signature, trustAnchorHex); err != nil {
			return nil, err
		}
	}

	return &d, nil
}
