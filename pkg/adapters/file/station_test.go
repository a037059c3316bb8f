package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/setpoint/pkg/adapters/file"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stationYAML = `
axes:
  - name: furnace
    profile: thermal
    bounds: {lower: 0, upper: 1200}
    secondary_bounds: {lower: 0, upper: 100}
    baseline_fallback: 20
    recipes:
      - name: anneal
        loop: 1
        records: ["60;200;r;10", "120;200;s"]
  - name: stage
    profile: linear
    bounds: {lower: -50, upper: 50}
    position_bounds: {lower: 0, upper: 300}
    return_to: 0
    recipes:
      - name: sweep
        records:
          - "10;6;s"
          - "10;-6;s"
`

const stationTOML = `
[[axes]]
name = "furnace"
profile = "thermal"
bounds = { lower = 0, upper = 1200 }

[[axes.recipes]]
name = "anneal"
loop = 1
records = ["60;200;r;10", "120;200;s"]
`

const stationJSON = `{
  "axes": [
    {
      "name": "furnace",
      "profile": "thermal",
      "bounds": {"lower": 0, "upper": 1200},
      "recipes": [{"name": "anneal", "loop": 1, "records": ["60;200;r;10", "120;200;s"]}]
    }
  ]
}`

func writeStation(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDecode_Formats(t *testing.T) {
	for name, content := range map[string]string{
		"station.yaml": stationYAML,
		"station.toml": stationTOML,
		"station.json": stationJSON,
	} {
		t.Run(name, func(t *testing.T) {
			st, err := file.Decode(writeStation(t, name, content))
			require.NoError(t, err)

			furnace, ok := st.Axis("furnace")
			require.True(t, ok)
			assert.Equal(t, "thermal", furnace.Profile)
			require.NotNil(t, furnace.Bounds)
			assert.Equal(t, domain.Bounds{Lower: 0, Upper: 1200}, *furnace.Bounds)
			require.Len(t, furnace.Recipes, 1)
			assert.Equal(t, domain.Recipe{Name: "anneal", LoopCount: 1, Records: []string{"60;200;r;10", "120;200;s"}}, furnace.Recipes[0])

			caps, err := furnace.Capabilities()
			require.NoError(t, err)
			assert.True(t, caps.SupportsNativeRamp())
		})
	}
}

func TestDecode_YAMLDetails(t *testing.T) {
	st, err := file.Decode(writeStation(t, "station.yml", stationYAML))
	require.NoError(t, err)

	furnace, _ := st.Axis("furnace")
	require.NotNil(t, furnace.BaselineFallback)
	assert.Equal(t, 20.0, *furnace.BaselineFallback)
	assert.Nil(t, furnace.PositionBounds)

	stage, _ := st.Axis("stage")
	require.NotNil(t, stage.ReturnTo)
	assert.Equal(t, 0.0, *stage.ReturnTo)
	assert.Equal(t, []string{"10;6;s", "10;-6;s"}, stage.Recipes[0].Records)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"Unknown Extension", "station.ini", "axes = 1"},
		{"Unknown Key", "s.yaml", "axes:\n  - name: a\n    colour: red\n"},
		{"Missing Name", "s.yaml", "axes:\n  - profile: gas\n"},
		{"Duplicate Axis", "s.yaml", "axes:\n  - name: a\n  - name: a\n"},
		{"Unknown Profile", "s.yaml", "axes:\n  - name: a\n    profile: plasma\n"},
		{"Inverted Bounds", "s.yaml", "axes:\n  - name: a\n    bounds: {lower: 10, upper: 0}\n"},
		{"Duplicate Recipe", "s.yaml", "axes:\n  - name: a\n    recipes:\n      - {name: r, records: []}\n      - {name: r, records: []}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := file.Decode(writeStation(t, tt.file, tt.content))
			assert.ErrorIs(t, err, file.ErrInvalidStation)
		})
	}

	t.Run("Syntax", func(t *testing.T) {
		_, err := file.Decode(writeStation(t, "s.yaml", "axes: [\n"))
		assert.Error(t, err)
	})
}

func TestStore_RecipeLoaderContract(t *testing.T) {
	store, err := file.Open(writeStation(t, "station.yaml", stationYAML))
	require.NoError(t, err)

	st := store.Station()
	furnace, _ := st.Axis("furnace")
	stage, _ := st.Axis("stage")
	tests.RecipeLoaderContractTest(t, store, map[string][]domain.Recipe{
		"furnace": furnace.Recipes,
		"stage":   stage.Recipes,
	})

	_, err = store.ListRecipes("nope")
	assert.ErrorIs(t, err, domain.ErrAxisNotFound)
}
