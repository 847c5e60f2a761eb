package mapper

import (
	"encoding/json"
	"fmt"

	"github.com/swhbridge/clearcode-mapper/internal/identifier"
)

// fileEntry is one file a harvest reports: the file's content sha1 (may
// be empty when the tool recorded none) and the raw per-file sub-record,
// which becomes the metadata entry's payload.
type fileEntry struct {
	sha1 string
	raw  json.RawMessage
}

// harvestFiles extracts the per-file records from a harvest payload,
// reading the tool-specific nested path. Missing intermediate objects
// yield an empty list, not an error. Output order follows the input
// array order.
func harvestFiles(tool identifier.ToolKind, payload []byte) ([]fileEntry, error) {
	switch tool {
	case identifier.ToolScanCode:
		return scanCodeFiles(payload)
	case identifier.ToolLicensee:
		return licenseeFiles(payload)
	case identifier.ToolClearlyDefined:
		return clearlyDefinedFiles(payload)
	default:
		return nil, fmt.Errorf("no extractor for tool %s", tool)
	}
}

// ScanCode lists files under content.files[], hashed by "sha1".
func scanCodeFiles(payload []byte) ([]fileEntry, error) {
	var doc struct {
		Content struct {
			Files []json.RawMessage `json:"files"`
		} `json:"content"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	return collect(doc.Content.Files, func(raw json.RawMessage) (string, error) {
		var f struct {
			Sha1 string `json:"sha1"`
		}
		err := json.Unmarshal(raw, &f)
		return f.Sha1, err
	})
}

// Licensee lists files under licensee.output.content.matched_files[],
// hashed by "content_hash".
func licenseeFiles(payload []byte) ([]fileEntry, error) {
	var doc struct {
		Licensee struct {
			Output struct {
				Content struct {
					MatchedFiles []json.RawMessage `json:"matched_files"`
				} `json:"content"`
			} `json:"output"`
		} `json:"licensee"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	return collect(doc.Licensee.Output.Content.MatchedFiles, func(raw json.RawMessage) (string, error) {
		var f struct {
			ContentHash string `json:"content_hash"`
		}
		err := json.Unmarshal(raw, &f)
		return f.ContentHash, err
	})
}

// ClearlyDefined lists files under files[], hashed by "hashes.sha1".
func clearlyDefinedFiles(payload []byte) ([]fileEntry, error) {
	var doc struct {
		Files []json.RawMessage `json:"files"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	return collect(doc.Files, func(raw json.RawMessage) (string, error) {
		var f struct {
			Hashes struct {
				Sha1 string `json:"sha1"`
			} `json:"hashes"`
		}
		err := json.Unmarshal(raw, &f)
		return f.Hashes.Sha1, err
	})
}

func collect(raws []json.RawMessage, hashOf func(json.RawMessage) (string, error)) ([]fileEntry, error) {
	var files []fileEntry
	for _, raw := range raws {
		sha1, err := hashOf(raw)
		if err != nil {
			return nil, err
		}
		files = append(files, fileEntry{sha1: sha1, raw: raw})
	}
	return files, nil
}
