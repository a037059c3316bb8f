package domain

import (
	"fmt"
	"strings"
)

// Capabilities describes what a controlled device accepts.
// The engine branches on these, never on device type.
type Capabilities interface {
	// DirectionOnly is true when the device takes a magnitude plus an
	// Up/Down flag instead of a signed value.
	DirectionOnly() bool

	// TracksPosition enables cumulative position bound checks.
	TracksPosition() bool

	// SupportsNativeRamp allows "er" segments.
	SupportsNativeRamp() bool

	// SupportsSecondary allows "op" and "opr" segments.
	SupportsSecondary() bool
}

// Profile is a plain-value Capabilities implementation.
type Profile struct {
	Name       string
	Direction  bool
	Position   bool
	NativeRamp bool
	Secondary  bool
}

func (p Profile) DirectionOnly() bool      { return p.Direction }
func (p Profile) TracksPosition() bool     { return p.Position }
func (p Profile) SupportsNativeRamp() bool { return p.NativeRamp }
func (p Profile) SupportsSecondary() bool  { return p.Secondary }

var (
	ProfileLinearAxis = Profile{Name: "linear", Position: true}
	ProfilePIDAxis    = Profile{Name: "pid", Direction: true, Position: true}
	ProfileThermal    = Profile{Name: "thermal", NativeRamp: true, Secondary: true}
	ProfileGas        = Profile{Name: "gas"}
)

// LookupProfile resolves a preset by name.
func LookupProfile(name string) (Profile, error) {
	for _, p := range []Profile{ProfileLinearAxis, ProfilePIDAxis, ProfileThermal, ProfileGas} {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("unknown device profile %q", name)
}
