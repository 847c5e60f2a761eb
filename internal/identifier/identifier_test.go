package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefinition(t *testing.T) {
	id, err := Parse("maven/mavencentral/za.co.absa.cobrix/cobol-parser/revision/0.4.0.json")
	require.NoError(t, err)

	assert.Equal(t, KindDefinition, id.Kind)
	assert.Equal(t, "maven", id.PackageManager)
	assert.Equal(t, "mavencentral", id.Provider)
	assert.Equal(t, "za.co.absa.cobrix", id.Namespace)
	assert.Equal(t, "cobol-parser", id.Name)
	assert.Equal(t, "0.4.0", id.Version)
}

func TestParseHarvest(t *testing.T) {
	tests := []struct {
		path string
		tool ToolKind
	}{
		{"npm/npmjs/@ngtools/webpack/revision/10.2.1/tool/scancode/3.2.2.json", ToolScanCode},
		{"npm/npmjs/@fluidframework/replay-driver/revision/0.31.0/tool/licensee/9.13.0.json", ToolLicensee},
		{"npm/npmjs/@pixi/mesh-extras/revision/5.3.5/tool/clearlydefined/1.3.4.json", ToolClearlyDefined},
		{"npm/npmjs/@pixi/mesh-extras/revision/5.3.5/tool/fossology/1.3.4.json", ToolFossology},
	}
	for _, tt := range tests {
		t.Run(tt.tool.String(), func(t *testing.T) {
			id, err := Parse(tt.path)
			require.NoError(t, err)
			assert.Equal(t, KindHarvest, id.Kind)
			assert.Equal(t, tt.tool, id.Tool)
		})
	}
}

func TestParseHarvestFields(t *testing.T) {
	id, err := Parse("npm/npmjs/@ngtools/webpack/revision/10.2.1/tool/scancode/3.2.2.json")
	require.NoError(t, err)

	assert.Equal(t, "npm", id.PackageManager)
	assert.Equal(t, "npmjs", id.Provider)
	assert.Equal(t, "@ngtools", id.Namespace)
	assert.Equal(t, "webpack", id.Name)
	assert.Equal(t, "10.2.1", id.Version)
	assert.Equal(t, "3.2.2", id.ToolVersion)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		want error
	}{
		{
			"revision token missing",
			"maven/mavencentral/za.co.absa.cobrix/cobol-parser/abc/0.4.0.json",
			ErrRevisionNotFound,
		},
		{
			"revision checked at fixed index even for short paths",
			"a/b/c/abc/d.json",
			ErrRevisionNotFound,
		},
		{
			"too short for revision index",
			"a/b.json",
			ErrRevisionNotFound,
		},
		{
			"no json extension",
			"maven/mavencentral/za.co.absa.cobrix/cobol-parser/revision/0.4.0.txt",
			ErrNoJSONExtension,
		},
		{
			"seven components",
			"maven/mavencentral/cobol-parser/abc/revision/def/0.4.0.json",
			ErrInvalidComponents,
		},
		{
			"eight components",
			"npm/npmjs/@ngtools/webpack/revision/10.2.1/tool/3.2.2.json",
			ErrInvalidComponents,
		},
		{
			"tool token missing",
			"npm/npmjs/@ngtools/webpack/revision/10.2.1/abc/scancode/3.2.2.json",
			ErrToolNotFound,
		},
		{
			"unknown tool",
			"npm/npmjs/@ngtools/webpack/revision/10.2.1/tool/abc/3.2.2.json",
			ErrToolNotSupported,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.path)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// Rule order is fixed: a malformed short path surfaces the revision check
// before the component-count check ever runs.
func TestParseRuleOrder(t *testing.T) {
	_, err := Parse("a/b/c/revision/d.json")
	assert.ErrorIs(t, err, ErrRevisionNotFound)

	_, err = Parse("a/b/c/d/revision/e/f/g.json")
	assert.ErrorIs(t, err, ErrInvalidComponents)
}
