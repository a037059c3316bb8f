package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidStation is returned when a station file decodes but does not make sense.
var ErrInvalidStation = errors.New("invalid station file")

// Station is the decoded configuration of a station: its axes, their bounds
// and the recipes they may run.
type Station struct {
	Axes []AxisConfig `mapstructure:"axes"`
}

// AxisConfig describes one axis of the station.
type AxisConfig struct {
	Name    string `mapstructure:"name"`
	Profile string `mapstructure:"profile"`

	Bounds          *domain.Bounds `mapstructure:"bounds"`
	PositionBounds  *domain.Bounds `mapstructure:"position_bounds"`
	SecondaryBounds *domain.Bounds `mapstructure:"secondary_bounds"`

	// BaselineFallback lets a recipe that starts with a ramp begin here when
	// the device reports no measurement.
	BaselineFallback *float64 `mapstructure:"baseline_fallback"`

	// ReturnTo is sent when a run completes instead of holding the last value.
	ReturnTo *float64 `mapstructure:"return_to"`

	Recipes []domain.Recipe `mapstructure:"recipes"`
}

// Capabilities resolves the axis profile. An empty profile is a plain signed axis.
func (a AxisConfig) Capabilities() (domain.Profile, error) {
	if a.Profile == "" {
		return domain.ProfileGas, nil
	}
	return domain.LookupProfile(a.Profile)
}

// Axis returns the configuration of the named axis.
func (s Station) Axis(name string) (AxisConfig, bool) {
	for _, a := range s.Axes {
		if a.Name == name {
			return a, true
		}
	}
	return AxisConfig{}, false
}

// Decode reads a station file. The format follows the extension:
// .yaml/.yml, .toml or .json.
func Decode(path string) (Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Station{}, fmt.Errorf("read station file: %w", err)
	}

	raw := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		return Station{}, fmt.Errorf("%w: unsupported extension %q", ErrInvalidStation, ext)
	}
	if err != nil {
		return Station{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	return DecodeMap(raw)
}

// DecodeMap decodes an already parsed document into a Station and validates it.
func DecodeMap(raw map[string]any) (Station, error) {
	var st Station
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &st,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Station{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Station{}, fmt.Errorf("%w: %v", ErrInvalidStation, err)
	}
	if err := st.validate(); err != nil {
		return Station{}, err
	}
	return st, nil
}

func (s Station) validate() error {
	seen := map[string]bool{}
	for i, a := range s.Axes {
		if a.Name == "" {
			return fmt.Errorf("%w: axis %d has no name", ErrInvalidStation, i)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: duplicate axis %q", ErrInvalidStation, a.Name)
		}
		seen[a.Name] = true

		if _, err := a.Capabilities(); err != nil {
			return fmt.Errorf("%w: axis %q: %v", ErrInvalidStation, a.Name, err)
		}
		for field, b := range map[string]*domain.Bounds{
			"bounds":           a.Bounds,
			"position_bounds":  a.PositionBounds,
			"secondary_bounds": a.SecondaryBounds,
		} {
			if b != nil && b.Lower > b.Upper {
				return fmt.Errorf("%w: axis %q: %s lower %g above upper %g", ErrInvalidStation, a.Name, field, b.Lower, b.Upper)
			}
		}

		names := map[string]bool{}
		for _, r := range a.Recipes {
			if r.Name == "" {
				return fmt.Errorf("%w: axis %q: recipe missing name", ErrInvalidStation, a.Name)
			}
			if names[r.Name] {
				return fmt.Errorf("%w: axis %q: duplicate recipe %q", ErrInvalidStation, a.Name, r.Name)
			}
			names[r.Name] = true
		}
	}
	return nil
}
