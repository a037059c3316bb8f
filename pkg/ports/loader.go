package ports

import (
	"context"

	"github.com/aretw0/setpoint/pkg/domain"
)

// RecipeLoader defines how authored recipes are retrieved.
// This allows the configuration layer (file, memory) to be decoupled.
type RecipeLoader interface {
	// GetRecipe returns the recipe named name on axis.
	// It returns domain.ErrRecipeNotFound if it does not exist.
	GetRecipe(axis, name string) (domain.Recipe, error)

	// ListRecipes returns the recipe names available on axis.
	ListRecipes(axis string) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is used to reload limits and recipes while the panel is running.
type Watchable interface {
	// Watch returns a channel that is signaled after the backing configuration changed
	// and was reloaded.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
