package tests

import (
	"testing"

	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RecipeLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.RecipeLoader.
// The loader must already contain want (axis -> recipes).
func RecipeLoaderContractTest(t *testing.T, loader ports.RecipeLoader, want map[string][]domain.Recipe) {
	t.Helper()

	t.Run("GetRecipe_Success", func(t *testing.T) {
		for axis, recipes := range want {
			for _, expected := range recipes {
				got, err := loader.GetRecipe(axis, expected.Name)
				require.NoError(t, err, "axis %s recipe %s", axis, expected.Name)
				assert.Equal(t, expected.Records, got.Records)
				assert.Equal(t, expected.LoopCount, got.LoopCount)
			}
		}
	})

	t.Run("GetRecipe_NotFound", func(t *testing.T) {
		for axis := range want {
			_, err := loader.GetRecipe(axis, "non-existent-recipe")
			assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
		}
	})

	t.Run("ListRecipes", func(t *testing.T) {
		for axis, recipes := range want {
			names, err := loader.ListRecipes(axis)
			require.NoError(t, err)
			for _, r := range recipes {
				assert.Contains(t, names, r.Name)
			}
		}
	})
}
