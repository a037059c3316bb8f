package memory_test

import (
	"testing"

	"github.com/aretw0/setpoint/pkg/adapters/memory"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLoader_Contract(t *testing.T) {
	anneal := domain.Recipe{Name: "anneal", Records: []string{"60;200;r;10", "120;200;s"}, LoopCount: 1}
	purge := domain.Recipe{Name: "purge", Records: []string{"30;5;s"}}

	loader, err := memory.NewFromRecipes("furnace", anneal)
	require.NoError(t, err)
	require.NoError(t, loader.Add("mfc", purge))

	tests.RecipeLoaderContractTest(t, loader, map[string][]domain.Recipe{
		"furnace": {anneal},
		"mfc":     {purge},
	})
}

func TestMemoryLoader_RejectsUnnamedRecipe(t *testing.T) {
	_, err := memory.NewFromRecipes("furnace", domain.Recipe{Records: []string{"1;1;s"}})
	assert.Error(t, err)
}

func TestMemoryLoader_CopiesRecords(t *testing.T) {
	records := []string{"5;10;s"}
	loader, err := memory.NewFromRecipes("stage", domain.Recipe{Name: "r", Records: records})
	require.NoError(t, err)

	records[0] = "5;99;s"
	got, err := loader.GetRecipe("stage", "r")
	require.NoError(t, err)
	assert.Equal(t, "5;10;s", got.Records[0])
}
