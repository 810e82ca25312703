package circuit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainCircuit is the domain prefix for content-addressed circuit identity.
// The version suffix enables future algorithm migration.
const DomainCircuit = "paradox/circuit/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents domain/data
// boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash computes the content-addressed identity of a circuit: the SHA-256 of
// its canonical JSON body under DomainCircuit. Two circuits hash identically
// iff they have the same label, register shape, and op sequence (angles
// compared by exact float64 value). The hash is stable across process
// restarts and map iteration order.
func Hash(c *Circuit) (string, error) {
	canonical, err := MarshalCanonical(canonicalBody(c))
	if err != nil {
		return "", fmt.Errorf("circuit %q: failed to marshal: %w", c.Label, err)
	}
	return hashWithDomain(DomainCircuit, canonical), nil
}

// MustHash is like Hash but panics on error. Use only in tests or when the
// circuit is known to be valid.
func MustHash(c *Circuit) string {
	h, err := Hash(c)
	if err != nil {
		panic(err)
	}
	return h
}

// CanonicalBody returns the canonical JSON encoding of the circuit body,
// the exact bytes Hash digests. The store persists these bytes so a stored
// circuit can be re-verified against its hash.
func CanonicalBody(c *Circuit) ([]byte, error) {
	return MarshalCanonical(canonicalBody(c))
}
