// Package hash derives the content-addressed identifiers used across the
// build pipeline. Two digests serve two purposes: SHA-256 for version
// fingerprints of raw source text, SHA-1 for the shorter correlation IDs
// stamped onto agents, evals and routes.
//
// The argument order of every call site is part of the ID contract: the same
// parts in the same order always produce the same digest, and reordering
// silently changes every downstream ID.
package hash

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// separator keeps ("ab","c") and ("a","bc") from hashing identically.
const separator = "\x00"

// Content returns the SHA-256 hex digest of the parts joined in argument
// order. Used for version fingerprints.
func Content(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, separator)))
	return hex.EncodeToString(sum[:])
}

// ID returns the SHA-1 hex digest of the parts joined in argument order.
// Used for agent, eval and route correlation IDs and trigger path suffixes.
func ID(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, separator)))
	return hex.EncodeToString(sum[:])
}
