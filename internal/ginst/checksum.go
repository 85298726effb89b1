package ginst

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"lukechampine.com/blake3"
)

// hashString returns the BLAKE3 digest of s (32-byte output, no key).
func hashString(s string) string {
	h := blake3.New(32, nil)
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}

// fileDigest computes the BLAKE3 digest of a file's contents.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// digestSidecar is where a verified archive's digest is recorded so a
// cached download can be trusted on the next run.
func digestSidecar(archivePath string) string {
	return archivePath + ".b3"
}

// recordDigest hashes the archive and writes the sidecar file.
func recordDigest(archivePath string) (string, error) {
	sum, err := fileDigest(archivePath)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(digestSidecar(archivePath), []byte(sum+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("writing digest sidecar: %w", err)
	}
	return sum, nil
}

// cachedArchiveValid reports whether archivePath exists and matches the
// digest recorded alongside it.
func cachedArchiveValid(archivePath string) bool {
	want, err := os.ReadFile(digestSidecar(archivePath))
	if err != nil {
		return false
	}
	got, err := fileDigest(archivePath)
	if err != nil {
		return false
	}
	return got == string(trimNewline(want))
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
