package descriptor

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"

	"github.com/nativestart-go/launcher/launcherrors"
)

// verifySignature checks sigHex (the hex-encoded Ed25519 signature found in
// the descriptor's "signature" field) against raw, after excising the first
// textual occurrence of sigHex from raw, using trustAnchorHex (the hex-encoded
// Ed25519 public key) as the verification key.
//
// Canonicalization excises only the first occurrence, not every occurrence:
// replacing all occurrences (as the original implementation this was ported
// from does) risks corrupting unrelated content if the signature's hex digits
// happen to reoccur elsewhere in the document.
func verifySignature(raw []byte, sigHex, trustAnchorHex string) error {
	pub, err := hex.DecodeString(trustAnchorHex)
	if err != nil {
		return launcherrors.Wrap(launcherrors.Signature, err, "trust anchor is not valid hex")
	}
	if len(pub) != ed25519.PublicKeySize {
		return launcherrors.New(launcherrors.Signature, "trust anchor has wrong length: got %d, want %d", len(pub), ed25519.PublicKeySize)
	}

	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return launcherrors.Wrap(launcherrors.Signature, err, "signature is not valid hex")
	}
	if len(sig) != ed25519.SignatureSize {
		return launcherrors.New(launcherrors.Signature, "signature has wrong length: got %d, want %d", len(sig), ed25519.SignatureSize)
	}

	canonical := excinFirstOccurrence(raw, sigHex)

	if !ed25519.Verify(ed25519.PublicKey(pub), canonical, sig) {
		return launcherrors.New(launcherrors.Signature, "signature does not match descriptor content")
	}
	return nil
}

// excinFirstOccurrence returns raw with the first textual occurrence of
// needle removed. If needle is absent, raw is returned unchanged.
func excinFirstOccurrence(raw []byte, needle string) []byte {
	idx := bytes.Index(raw, []byte(needle))
	if idx < 0 {
		return raw
	}
	out := make([]byte, 0, len(raw)-len(needle))
	out = append(out, raw[:idx]...)
	out = append(out, raw[idx+len(needle):]...)
	return out
}

// signatureErrorNotSupported is returned when a descriptor declares a
// signature but the launcher was started without a trust anchor.
func signatureErrorNotSupported() error {
	return launcherrors.New(launcherrors.Signature, "not supported by launcher")
}

// signatureErrorMissing is returned when a trust anchor was supplied but the
// descriptor carries no signature field.
func signatureErrorMissing() error {
	return launcherrors.New(launcherrors.Signature, "missing")
}
