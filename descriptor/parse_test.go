package descriptor

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nativestart-go/launcher/launcherrors"
)

func samplePayload(signature string) Descriptor {
	return Descriptor{
		Name:      "acme-app",
		Version:   "1.0.0",
		Signature: signature,
		Splash:    Artifact{URL: "https://example.test/splash.tar.xz", Size: 0, Checksum: "", Path: "splash/"},
		JvmParams: JvmParameters{
			JvmPath:    "jvm",
			JvmLibrary: "libjvm.so",
			MainClass:  "com/acme/Main",
			Options:    []string{"-Xmx512m"},
		},
		Artifacts: []Artifact{
			{URL: "https://example.test/app.jar", Size: 0, Checksum: "", Path: "bin/app.jar"},
		},
	}
}

// signDescriptor marshals d with a placeholder in the signature field, signs
// those bytes with the placeholder removed (so the field reads ""), then
// hex-encodes the result into d.Signature and re-marshals, so excising the
// signature text from the returned bytes yields exactly the signed bytes.
// Marshalling with an empty Signature would not do: omitempty drops the field.
func signDescriptor(t *testing.T, d Descriptor, priv ed25519.PrivateKey) []byte {
	t.Helper()
	const placeholder = "SIGNATURE-PLACEHOLDER"
	d.Signature = placeholder
	withPlaceholder, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal unsigned: %v", err)
	}
	unsigned := []byte(strings.Replace(string(withPlaceholder), placeholder, "", 1))
	sig := ed25519.Sign(priv, unsigned)
	d.Signature = hex.EncodeToString(sig)
	signed, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal signed: %v", err)
	}
	return signed
}

func TestParseNoAnchorNoSignatureAccepts(t *testing.T) {
	raw, err := json.Marshal(samplePayload(""))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	d, err := Parse(raw, "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Name != "acme-app" {
		t.Errorf("Name = %q", d.Name)
	}
}

func TestParseNoAnchorWithSignatureRejects(t *testing.T) {
	raw, err := json.Marshal(samplePayload("deadbeef"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = Parse(raw, "")
	if !launcherrors.Is(err, launcherrors.Signature) {
		t.Fatalf("expected Signature error, got %v", err)
	}
}

func TestParseAnchorNoSignatureRejects(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	raw, err := json.Marshal(samplePayload(""))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = Parse(raw, hex.EncodeToString(pub))
	if !launcherrors.Is(err, launcherrors.Signature) {
		t.Fatalf("expected Signature error, got %v", err)
	}
}

func TestParseValidSignatureAccepts(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signed := signDescriptor(t, samplePayload(""), priv)

	d, err := Parse(signed, hex.EncodeToString(pub))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Name != "acme-app" {
		t.Errorf("Name = %q", d.Name)
	}
}

func TestParseMutatedContentRejects(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signed := signDescriptor(t, samplePayload(""), priv)

	mutated := strings.Replace(string(signed), "acme-app", "acme-app2", 1)

	_, err = Parse([]byte(mutated), hex.EncodeToString(pub))
	if !launcherrors.Is(err, launcherrors.Signature) {
		t.Fatalf("expected Signature error, got %v", err)
	}
}

func TestParseWrongKeyRejects(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signed := signDescriptor(t, samplePayload(""), priv)

	_, err = Parse(signed, hex.EncodeToString(otherPub))
	if !launcherrors.Is(err, launcherrors.Signature) {
		t.Fatalf("expected Signature error, got %v", err)
	}
}

func TestParsePathTraversalRejectsRegardlessOfSignature(t *testing.T) {
	d := samplePayload("")
	d.Artifacts[0].Path = "../evil"
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = Parse(raw, "")
	if !launcherrors.Is(err, launcherrors.Security) {
		t.Fatalf("expected Security error, got %v", err)
	}
}

func TestParseSplashPathTraversalRejects(t *testing.T) {
	d := samplePayload("")
	d.Splash.Path = "../../etc/splash/"
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = Parse(raw, "")
	if !launcherrors.Is(err, launcherrors.Security) {
		t.Fatalf("expected Security error, got %v", err)
	}
}

func TestParseInvalidJSONRejects(t *testing.T) {
	_, err := Parse([]byte("{not json"), "")
	if !launcherrors.Is(err, launcherrors.InvalidJSON) {
		t.Fatalf("expected InvalidJSON error, got %v", err)
	}
}

func TestAllArtifactsIncludesSplash(t *testing.T) {
	d := samplePayload("")
	all := d.AllArtifacts()
	if len(all) != len(d.Artifacts)+1 {
		t.Fatalf("AllArtifacts returned %d entries, want %d", len(all), len(d.Artifacts)+1)
	}
	if all[len(all)-1].Path != d.Splash.Path {
		t.Errorf("last entry should be splash, got %q", all[len(all)-1].Path)
	}
}

func TestIsArchive(t *testing.T) {
	file := Artifact{Path: "bin/app.jar"}
	archive := Artifact{Path: "lib/"}
	if file.IsArchive() {
		t.Error("file artifact reported as archive")
	}
	if !archive.IsArchive() {
		t.Error("archive artifact not reported as archive")
	}
}

func TestEffectiveDownloadSize(t *testing.T) {
	withDownload := Artifact{Size: 100, DownloadSize: 40}
	withoutDownload := Artifact{Size: 100}
	if got := withDownload.EffectiveDownloadSize(); got != 40 {
		t.Errorf("EffectiveDownloadSize = %d, want 40", got)
	}
	if got := withoutDownload.EffectiveDownloadSize(); got != 100 {
		t.Errorf("EffectiveDownloadSize = %d, want 100", got)
	}
}
