// Package cryptox provides content hashing used to recognise files that were
// already uploaded in the current session.
package cryptox

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// FileDigest streams the file at path through BLAKE2b-256 and returns the
// hex-encoded sum.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return ReaderDigest(f)
}

// ReaderDigest hashes everything readable from r with BLAKE2b-256.
func ReaderDigest(r io.Reader) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ReferenceKey combines a remote path and a content digest into a single
// fixed-size key. Two uploads collide only when both the derived name and the
// bytes are the same.
func ReferenceKey(remotePath, digest string) string {
	sum := blake2b.Sum256([]byte(remotePath + "\x00" + digest))
	return hex.EncodeToString(sum[:])
}
