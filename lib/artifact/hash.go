// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 keyed hash of a file's content.
type Digest [32]byte

// fileDomainKey keys every output digest. Changing it changes every
// digest in every existing manifest. ASCII, zero-padded to 32 bytes.
var fileDomainKey = [32]byte{
	'f', 'a', 'b', 'r', 'u', 'n', '.', 'a', 'r', 't', 'i', 'f', 'a', 'c', 't', '.',
	'f', 'i', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

func newHasher() *blake3.Hasher {
	hasher, err := blake3.NewKeyed(fileDomainKey[:])
	if err != nil {
		panic("artifact: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

// HashBytes returns the digest of data.
func HashBytes(data []byte) Digest {
	hasher := newHasher()
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// HashFile streams the file at path through the hasher and returns its
// digest and size.
func HashFile(path string) (Digest, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, 0, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := newHasher()
	size, err := io.Copy(hasher, file)
	if err != nil {
		return Digest{}, 0, fmt.Errorf("hashing %s: %w", path, err)
	}
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, size, nil
}

// String returns the hex encoding used in manifests and logs.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest parses a 64-character hex digest.
func ParseDigest(text string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return digest, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(digest) {
		return digest, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(digest))
	}
	copy(digest[:], decoded)
	return digest, nil
}
