// Package archive resolves content and revision hashes against the
// Software Heritage archive. The archive is a read-only collaborator: an
// existence check keyed by hash, and a canonical-hash lookup for file
// contents.
package archive

import (
	"context"
	"encoding/hex"

	"github.com/swhbridge/clearcode-mapper/internal/swhid"
)

// Archive is the minimal read surface of the content-addressable store.
type Archive interface {
	// ContentSHA1Git looks up a file content by its sha1 and returns the
	// content's canonical sha1_git digest, or nil when no such content
	// is archived. The lookup keys on the input hash but the returned
	// digest is the archive's own primary hash; the two are distinct
	// representations of the same artifact.
	ContentSHA1Git(ctx context.Context, sha1 []byte) ([]byte, error)

	// RevisionMissing returns the subset of ids that are not archived.
	RevisionMissing(ctx context.Context, ids [][]byte) ([][]byte, error)
}

// ResolveContent maps a sha1 hex digest to the content's global
// identifier. An empty or malformed digest resolves to nil without
// touching the archive, as does a digest the archive has never seen.
func ResolveContent(ctx context.Context, a Archive, sha1Hex string) (*swhid.SWHID, error) {
	if sha1Hex == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(sha1Hex)
	if err != nil {
		return nil, nil
	}

	sha1Git, err := a.ContentSHA1Git(ctx, raw)
	if err != nil {
		return nil, err
	}
	if sha1Git == nil {
		return nil, nil
	}

	id, err := swhid.New(swhid.Content, sha1Git)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// RevisionExists reports whether the archive holds the revision with the
// given sha1_git hex digest. The digest must already be validated as a
// well-formed sha1.
func RevisionExists(ctx context.Context, a Archive, sha1GitHex string) (bool, error) {
	raw, err := hex.DecodeString(sha1GitHex)
	if err != nil {
		return false, nil
	}
	missing, err := a.RevisionMissing(ctx, [][]byte{raw})
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}
