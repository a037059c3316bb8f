package file

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/setpoint/internal/logging"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 100 * time.Millisecond

// Store serves a station file as a RecipeLoader and as per-axis limit
// sources, and reloads it on demand or on change.
type Store struct {
	path     string
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.RWMutex
	station Station
	limits  map[string]*AxisLimits
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDebounce sets how long Watch waits for writes to settle before reloading.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		s.debounce = d
	}
}

// Open decodes the station file at path.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:     path,
		logger:   logging.NewNop(),
		debounce: defaultDebounce,
		limits:   make(map[string]*AxisLimits),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the station file path.
func (s *Store) Path() string { return s.path }

// Station returns the current configuration.
func (s *Store) Station() Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.station
}

// Reload decodes the file again. On failure the previous configuration stays
// in effect. Limit sources handed out earlier see the new bounds on their
// next read; runs already compiled are not affected.
func (s *Store) Reload() error {
	st, err := Decode(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range st.Axes {
		if l, ok := s.limits[a.Name]; ok {
			l.update(a)
		} else {
			s.limits[a.Name] = newAxisLimits(a)
		}
	}
	s.station = st
	return nil
}

// Limits returns the live limit source of axis.
func (s *Store) Limits(axis string) (*AxisLimits, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.limits[axis]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAxisNotFound, axis)
	}
	return l, nil
}

// GetRecipe implements ports.RecipeLoader.
func (s *Store) GetRecipe(axis, name string) (domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.station.Axis(axis)
	if !ok {
		return domain.Recipe{}, fmt.Errorf("%w: %s", domain.ErrAxisNotFound, axis)
	}
	for _, r := range a.Recipes {
		if r.Name == name {
			r.Records = append([]string(nil), r.Records...)
			return r, nil
		}
	}
	return domain.Recipe{}, fmt.Errorf("%s/%s: %w", axis, name, domain.ErrRecipeNotFound)
}

// ListRecipes implements ports.RecipeLoader.
func (s *Store) ListRecipes(axis string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.station.Axis(axis)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAxisNotFound, axis)
	}
	names := make([]string, 0, len(a.Recipes))
	for _, r := range a.Recipes {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Watch implements ports.Watchable. It watches the directory of the station
// file, so editors that replace the file on save are handled, reloads after
// changes settle and signals every successful reload. Invalid edits are
// logged and ignored.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	dir, base := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer watcher.Close()

		var settle <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				settle = time.After(s.debounce)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("station watcher error", "err", err)
			case <-settle:
				settle = nil
				if err := s.Reload(); err != nil {
					s.logger.Warn("station reload rejected", "path", s.path, "err", err)
					continue
				}
				s.logger.Info("station reloaded", "path", s.path)
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}
