// Package swhid models Software Heritage persistent identifiers: stable,
// store-independent references to archived artifacts, derived from an
// object-kind tag and a cryptographic content hash.
package swhid

import (
	"encoding/hex"
	"fmt"
)

// HashSize is the byte length of the sha1/sha1_git digests the archive
// keys its objects on.
const HashSize = 20

// ObjectType tags the kind of archived artifact an identifier points at.
type ObjectType int

const (
	// Content is a single file's byte content.
	Content ObjectType = iota
	// Revision is a source revision (a git commit or equivalent).
	Revision
)

// String returns the three-letter tag used in the textual encoding.
func (t ObjectType) String() string {
	switch t {
	case Content:
		return "cnt"
	case Revision:
		return "rev"
	default:
		return "???"
	}
}

// SWHID is an opaque value type wrapping an object kind and the object's
// canonical hash. The zero value is not a valid identifier.
type SWHID struct {
	Type ObjectType
	Hash [HashSize]byte
}

// New builds an identifier from an object type and a raw digest.
func New(t ObjectType, hash []byte) (SWHID, error) {
	if len(hash) != HashSize {
		return SWHID{}, fmt.Errorf("swhid: hash is %d bytes, want %d", len(hash), HashSize)
	}
	id := SWHID{Type: t}
	copy(id.Hash[:], hash)
	return id, nil
}

// FromHex builds an identifier from a 40-character hexadecimal digest.
func FromHex(t ObjectType, hexDigest string) (SWHID, error) {
	raw, err := hex.DecodeString(hexDigest)
	if err != nil {
		return SWHID{}, fmt.Errorf("swhid: decode digest %q: %w", hexDigest, err)
	}
	return New(t, raw)
}

// String renders the identifier in its stable external encoding,
// e.g. "swh:1:cnt:d81cc0710eb6cf9efd5b920a8453e1e07157b6cd".
func (id SWHID) String() string {
	return fmt.Sprintf("swh:1:%s:%s", id.Type, hex.EncodeToString(id.Hash[:]))
}

// IsSHA1Hex reports whether s is a well-formed 40-character hexadecimal
// sha1 digest. Definition revision fields that fail this check are
// ignored rather than resolved.
func IsSHA1Hex(s string) bool {
	if len(s) != 2*HashSize {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
