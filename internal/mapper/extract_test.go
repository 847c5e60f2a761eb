package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swhbridge/clearcode-mapper/internal/identifier"
)

func TestHarvestFilesMissingIntermediatesAreEmpty(t *testing.T) {
	tests := []struct {
		name    string
		tool    identifier.ToolKind
		payload string
	}{
		{"scancode no content", identifier.ToolScanCode, `{}`},
		{"scancode no files", identifier.ToolScanCode, `{"content": {}}`},
		{"licensee no output", identifier.ToolLicensee, `{"licensee": {}}`},
		{"licensee no matched files", identifier.ToolLicensee, `{"licensee": {"output": {"content": {}}}}`},
		{"clearlydefined no files", identifier.ToolClearlyDefined, `{"summaryInfo": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := harvestFiles(tt.tool, []byte(tt.payload))
			require.NoError(t, err)
			assert.Empty(t, files)
		})
	}
}

func TestHarvestFilesPreservesOrder(t *testing.T) {
	payload := []byte(`{"content": {"files": [
		{"path": "a", "sha1": "1111111111111111111111111111111111111111"},
		{"path": "b"},
		{"path": "c", "sha1": "3333333333333333333333333333333333333333"}
	]}}`)

	files, err := harvestFiles(identifier.ToolScanCode, payload)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "1111111111111111111111111111111111111111", files[0].sha1)
	assert.Equal(t, "", files[1].sha1)
	assert.Equal(t, "3333333333333333333333333333333333333333", files[2].sha1)
}

func TestHarvestFilesNoExtractorForFossology(t *testing.T) {
	_, err := harvestFiles(identifier.ToolFossology, []byte(`{}`))
	assert.Error(t, err)
}
