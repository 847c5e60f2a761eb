// Package identifier parses ClearlyDefined coordinate paths into their
// semantic shape: a package definition or a tool harvest.
package identifier

import (
	"fmt"
	"strings"
)

// ToolKind enumerates the harvest tools ClearlyDefined runs against a
// package revision. Fossology harvests are recognized but never mapped.
type ToolKind int

const (
	ToolUnknown ToolKind = iota
	ToolScanCode
	ToolLicensee
	ToolClearlyDefined
	ToolFossology
)

// String returns the tool name as it appears in coordinate paths.
func (t ToolKind) String() string {
	switch t {
	case ToolScanCode:
		return "scancode"
	case ToolLicensee:
		return "licensee"
	case ToolClearlyDefined:
		return "clearlydefined"
	case ToolFossology:
		return "fossology"
	default:
		return "unknown"
	}
}

// parseTool maps a coordinate path component to a ToolKind.
func parseTool(name string) (ToolKind, bool) {
	switch name {
	case "scancode":
		return ToolScanCode, true
	case "licensee":
		return ToolLicensee, true
	case "clearlydefined":
		return ToolClearlyDefined, true
	case "fossology":
		return ToolFossology, true
	default:
		return ToolUnknown, false
	}
}

// Kind distinguishes the two coordinate path shapes.
type Kind int

const (
	// KindDefinition is a 6-component path describing the package's own
	// declared provenance metadata.
	KindDefinition Kind = iota
	// KindHarvest is a 9-component path describing a tool-produced
	// analysis artifact attached to a package revision.
	KindHarvest
)

// Identifier is a parsed coordinate path.
//
// Definition shape: <pkgmgr>/<provider>/<namespace>/<name>/revision/<version>.json
// Harvest shape:    …/revision/<version>/tool/<toolname>/<toolversion>.json
type Identifier struct {
	Kind           Kind
	PackageManager string
	Provider       string
	Namespace      string
	Name           string
	Version        string

	// Harvest only.
	Tool        ToolKind
	ToolVersion string
}

const (
	definitionComponents = 6
	harvestComponents    = 9

	revisionIndex = 4
	toolIndex     = 6
	toolNameIndex = 7
)

// Parse validates path and classifies it as a definition or a harvest.
// Validation rules run in a fixed order: the revision token check, the
// .json extension check, then the component-count dispatch. The first
// failing rule wins, so a short malformed path can surface
// ErrRevisionNotFound before its length is ever considered.
func Parse(path string) (Identifier, error) {
	parts := strings.Split(path, "/")

	if len(parts) <= revisionIndex || parts[revisionIndex] != "revision" {
		return Identifier{}, fmt.Errorf("%q: %w", path, ErrRevisionNotFound)
	}
	if !strings.HasSuffix(parts[len(parts)-1], ".json") {
		return Identifier{}, fmt.Errorf("%q: %w", path, ErrNoJSONExtension)
	}

	switch len(parts) {
	case harvestComponents:
		if parts[toolIndex] != "tool" {
			return Identifier{}, fmt.Errorf("%q: %w", path, ErrToolNotFound)
		}
		tool, ok := parseTool(parts[toolNameIndex])
		if !ok {
			return Identifier{}, fmt.Errorf("%q: tool %q: %w", path, parts[toolNameIndex], ErrToolNotSupported)
		}
		return Identifier{
			Kind:           KindHarvest,
			PackageManager: parts[0],
			Provider:       parts[1],
			Namespace:      parts[2],
			Name:           parts[3],
			Version:        parts[5],
			Tool:           tool,
			ToolVersion:    strings.TrimSuffix(parts[8], ".json"),
		}, nil
	case definitionComponents:
		return Identifier{
			Kind:           KindDefinition,
			PackageManager: parts[0],
			Provider:       parts[1],
			Namespace:      parts[2],
			Name:           parts[3],
			Version:        strings.TrimSuffix(parts[5], ".json"),
		}, nil
	default:
		return Identifier{}, fmt.Errorf("%q: %d components: %w", path, len(parts), ErrInvalidComponents)
	}
}
