package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/setpoint/pkg/domain"
)

// Loader implements ports.RecipeLoader using an in-memory map.
// Safe for concurrent use.
type Loader struct {
	mu      sync.RWMutex
	recipes map[string]map[string]domain.Recipe
}

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{recipes: make(map[string]map[string]domain.Recipe)}
}

// NewFromRecipes creates a loader holding recipes for a single axis.
func NewFromRecipes(axis string, recipes ...domain.Recipe) (*Loader, error) {
	l := NewLoader()
	for _, r := range recipes {
		if err := l.Add(axis, r); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add registers recipe on axis, replacing any recipe with the same name.
func (l *Loader) Add(axis string, recipe domain.Recipe) error {
	if recipe.Name == "" {
		return fmt.Errorf("recipe missing name")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.recipes[axis] == nil {
		l.recipes[axis] = make(map[string]domain.Recipe)
	}
	records := make([]string, len(recipe.Records))
	copy(records, recipe.Records)
	recipe.Records = records
	l.recipes[axis][recipe.Name] = recipe
	return nil
}

// GetRecipe retrieves a recipe by axis and name.
func (l *Loader) GetRecipe(axis, name string) (domain.Recipe, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.recipes[axis][name]
	if !ok {
		return domain.Recipe{}, fmt.Errorf("%s/%s: %w", axis, name, domain.ErrRecipeNotFound)
	}
	return r, nil
}

// ListRecipes returns the recipe names of axis in sorted order.
func (l *Loader) ListRecipes(axis string) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.recipes[axis]))
	for name := range l.recipes[axis] {
		names = append(names, name)
	}
	sort.Strings(names) // Deterministic order
	return names, nil
}
