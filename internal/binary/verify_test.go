package binary

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// newTestKeyring generates a signing key and writes its public half to dir.
func newTestKeyring(t *testing.T, dir string, armored bool) (*openpgp.Entity, string) {
	t.Helper()

	entity, err := openpgp.NewEntity("exinstall test", "", "test@example.com", nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	var buf bytes.Buffer
	if armored {
		w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := entity.Serialize(w); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	} else if err := entity.Serialize(&buf); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "keyring.gpg")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return entity, path
}

// signFile writes a detached signature of path next to it.
func signFile(t *testing.T, signer *openpgp.Entity, path string, armored bool) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var sig bytes.Buffer
	sigPath := path + ".sig"
	if armored {
		sigPath = path + ".asc"
		err = openpgp.ArmoredDetachSign(&sig, signer, bytes.NewReader(data), nil)
	} else {
		err = openpgp.DetachSign(&sig, signer, bytes.NewReader(data), nil)
	}
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if err := os.WriteFile(sigPath, sig.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return sigPath
}

func writeTestFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func sha256Hex(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestVerifyGPG(t *testing.T) {
	tmpDir := t.TempDir()
	signer, keyringPath := newTestKeyring(t, tmpDir, true)
	other, _ := newTestKeyring(t, t.TempDir(), true)

	archive := writeTestFile(t, filepath.Join(tmpDir, "tool.tar.gz"), "archive bytes")
	tampered := writeTestFile(t, filepath.Join(tmpDir, "tampered.tar.gz"), "archive bytes!")

	armoredSig := signFile(t, signer, archive, true)
	binarySig := signFile(t, signer, archive, false)
	foreignSig := signFile(t, other, tampered, true)

	verifier := NewVerifier(keyringPath)

	tests := []struct {
		name          string
		archivePath   string
		signaturePath string
		wantSuccess   bool
	}{
		{name: "valid_armored_signature", archivePath: archive, signaturePath: armoredSig, wantSuccess: true},
		{name: "valid_binary_signature", archivePath: archive, signaturePath: binarySig, wantSuccess: true},
		{name: "tampered_archive", archivePath: tampered, signaturePath: armoredSig, wantSuccess: false},
		{name: "unknown_signer", archivePath: tampered, signaturePath: foreignSig, wantSuccess: false},
		{name: "missing_signature", archivePath: archive, signaturePath: filepath.Join(tmpDir, "nonexistent.asc"), wantSuccess: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := verifier.verifyGPG(tt.archivePath, tt.signaturePath)

			if tt.wantSuccess {
				if err != nil {
					t.Errorf("expected success, got error: %v", err)
				}
				if result == nil || !result.Success {
					t.Error("expected successful verification")
				}
				if result != nil && result.Method != VerificationGPG {
					t.Errorf("expected GPG method, got %v", result.Method)
				}
				return
			}

			if err == nil {
				t.Error("expected error but got none")
			}
			if result == nil || result.Success {
				t.Error("expected verification to fail")
			}
		})
	}
}

func TestVerifySHA256(t *testing.T) {
	tmpDir := t.TempDir()
	archive := writeTestFile(t, filepath.Join(tmpDir, "tool_Linux_64bit.tar.gz"), "archive bytes")
	checksums := writeTestFile(t, filepath.Join(tmpDir, "checksums.txt"), fmt.Sprintf(
		"%s  tool_Windows_64bit.zip\n%s *tool_Linux_64bit.tar.gz\n", sha256Hex("other"), sha256Hex("archive bytes")))
	wrong := writeTestFile(t, filepath.Join(tmpDir, "wrong.txt"), sha256Hex("nope")+"  tool_Linux_64bit.tar.gz\n")

	verifier := NewVerifier("")

	tests := []struct {
		name         string
		archivePath  string
		checksumPath string
		wantSuccess  bool
	}{
		{name: "valid_checksum", archivePath: archive, checksumPath: checksums, wantSuccess: true},
		{name: "checksum_mismatch", archivePath: archive, checksumPath: wrong, wantSuccess: false},
		{name: "checksum_not_found", archivePath: filepath.Join(tmpDir, "checksums.txt"), checksumPath: checksums, wantSuccess: false},
		{name: "missing_checksum_file", archivePath: archive, checksumPath: filepath.Join(tmpDir, "nonexistent.txt"), wantSuccess: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := verifier.verifySHA256(tt.archivePath, tt.checksumPath)

			if tt.wantSuccess {
				if err != nil {
					t.Errorf("expected success, got error: %v", err)
				}
				if result == nil || !result.Success || result.Method != VerificationSHA256 {
					t.Errorf("result = %+v, want SHA256 success", result)
				}
				return
			}

			if err == nil {
				t.Error("expected error but got none")
			}
			if result == nil || result.Success {
				t.Error("expected verification to fail")
			}
		})
	}
}

func TestVerifyFile(t *testing.T) {
	tmpDir := t.TempDir()
	signer, keyringPath := newTestKeyring(t, tmpDir, false)
	archive := writeTestFile(t, filepath.Join(tmpDir, "tool.zip"), "zip bytes")
	sig := signFile(t, signer, archive, true)
	checksums := writeTestFile(t, filepath.Join(tmpDir, "checksums.txt"), sha256Hex("zip bytes")+"  tool.zip\n")

	tests := []struct {
		name       string
		keyring    string
		signature  string
		checksum   string
		wantMethod VerificationMethod
		wantErr    bool
	}{
		{name: "nothing_configured", wantMethod: VerificationNone},
		{name: "checksum_only", checksum: checksums, wantMethod: VerificationSHA256},
		{name: "signature_preferred", keyring: keyringPath, signature: sig, checksum: checksums, wantMethod: VerificationGPG},
		{name: "signature_without_keyring", signature: sig, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewVerifier(tt.keyring).VerifyFile(archive, tt.signature, tt.checksum)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("VerifyFile() error = %v", err)
			}
			if result.Method != tt.wantMethod || !result.Success {
				t.Errorf("result = %+v, want %s success", result, tt.wantMethod)
			}
		})
	}
}

func TestLoadKeyring(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("armored", func(t *testing.T) {
		_, path := newTestKeyring(t, t.TempDir(), true)
		keyring, err := LoadKeyring(path)
		if err != nil || len(keyring) != 1 {
			t.Errorf("LoadKeyring() = %d keys, %v", len(keyring), err)
		}
	})

	t.Run("binary", func(t *testing.T) {
		_, path := newTestKeyring(t, t.TempDir(), false)
		keyring, err := LoadKeyring(path)
		if err != nil || len(keyring) != 1 {
			t.Errorf("LoadKeyring() = %d keys, %v", len(keyring), err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		path := writeTestFile(t, filepath.Join(tmpDir, "garbage.gpg"), "not a key")
		if _, err := LoadKeyring(path); err == nil {
			t.Error("expected error for garbage keyring")
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := LoadKeyring(filepath.Join(tmpDir, "missing.gpg")); err == nil {
			t.Error("expected error for missing keyring")
		}
	})
}

func TestFindChecksum(t *testing.T) {
	path := writeTestFile(t, filepath.Join(t.TempDir(), "checksums.txt"), strings.Join([]string{
		"# comment line",
		"",
		"aaa  dist/tool_Linux_64bit.tar.gz",
		"bbb *tool_macOS_ARM64.tar.gz",
		"malformed",
	}, "\n"))

	tests := []struct {
		name     string
		filename string
		want     string
		wantErr  bool
	}{
		{name: "path_prefixed_entry", filename: "tool_Linux_64bit.tar.gz", want: "aaa"},
		{name: "binary_mode_entry", filename: "tool_macOS_ARM64.tar.gz", want: "bbb"},
		{name: "absent", filename: "tool_Windows_32bit.zip", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findChecksum(path, tt.filename)
			if (err != nil) != tt.wantErr {
				t.Fatalf("findChecksum() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("findChecksum() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCalculateSHA256(t *testing.T) {
	path := writeTestFile(t, filepath.Join(t.TempDir(), "f"), "hello")
	got, err := calculateSHA256(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != sha256Hex("hello") {
		t.Errorf("calculateSHA256() = %s", got)
	}

	if _, err := calculateSHA256(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestVerificationMethodString(t *testing.T) {
	tests := []struct {
		method VerificationMethod
		want   string
	}{
		{VerificationNone, "None"},
		{VerificationGPG, "GPG"},
		{VerificationSHA256, "SHA256"},
		{VerificationMethod(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.method.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.method, got, tt.want)
		}
	}

	ok := &VerificationResult{Method: VerificationSHA256, Success: true}
	if ok.String() != "SHA256: ok" {
		t.Errorf("String() = %q", ok.String())
	}
}
