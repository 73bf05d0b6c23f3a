package layerdocx

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

func (a DigestAlgorithm) String() string {
	switch a {
	case DigestSHA256:
		return "SHA256"
	case DigestBLAKE3:
		return "BLAKE3"
	default:
		return "unknown"
	}
}

// ParseDigestAlgorithm accepts the names produced by DigestAlgorithm.String,
// case-insensitively.
func ParseDigestAlgorithm(s string) (DigestAlgorithm, error) {
	switch strings.ToUpper(strings.ReplaceAll(s, "-", "")) {
	case "SHA256":
		return DigestSHA256, nil
	case "BLAKE3":
		return DigestBLAKE3, nil
	}
	return 0, fmt.Errorf("%w: unknown digest algorithm %q", ErrValidation, s)
}

func computeDigest(a DigestAlgorithm, data []byte) ([32]byte, error) {
	switch a {
	case DigestSHA256:
		return sha256.Sum256(data), nil
	case DigestBLAKE3:
		return blake3.Sum256(data), nil
	}
	return [32]byte{}, fmt.Errorf("%w: unknown digest algorithm %d", ErrValidation, a)
}

func digestEqual(a, b [32]byte) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
