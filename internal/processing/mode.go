package processing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownInputMode is returned for an input mode outside the known set
var ErrUnknownInputMode = errors.New("unknown input mode")

// InputMode selects how a source row is turned into spectra
type InputMode int

const (
	// ModeReference emits a fixed reference level on every band
	ModeReference InputMode = iota + 1
	// ModeDirect reads per-band day, evening and night levels from the row
	ModeDirect
	// ModeTraffic evaluates the road model from traffic counts
	ModeTraffic
	// ModeRail evaluates the rail model from train counts
	ModeRail
)

// ReferenceLevel is the level in dB(A) emitted on every band in reference mode
const ReferenceLevel = 90.0

func (m InputMode) String() string {
	switch m {
	case ModeReference:
		return "reference"
	case ModeDirect:
		return "direct"
	case ModeTraffic:
		return "traffic"
	case ModeRail:
		return "rail"
	}
	return fmt.Sprintf("InputMode(%d)", int(m))
}

// ParseInputMode resolves a configured mode name
func ParseInputMode(s string) (InputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reference", "proba":
		return ModeReference, nil
	case "direct", "lw_den":
		return ModeDirect, nil
	case "traffic", "traffic_flow":
		return ModeTraffic, nil
	case "rail", "rail_flow":
		return ModeRail, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownInputMode, s)
}

// RailFormat selects the column layout of rail source tables
type RailFormat string

const (
	// RailFormatAuto picks the full layout when ENGMOTEUR is present
	RailFormatAuto RailFormat = "auto"
	// RailFormatFull reads ENGMOTEUR, TYPVOITWAG, NBVOITWAG and VMAXINFRA
	RailFormatFull RailFormat = "full"
	// RailFormatShort reads NAME, Q and SPEED
	RailFormatShort RailFormat = "short"
)

// ParseRailFormat resolves a configured rail layout, defaulting to auto
func ParseRailFormat(s string) (RailFormat, error) {
	switch f := RailFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", RailFormatAuto:
		return RailFormatAuto, nil
	case RailFormatFull, "geostandard":
		return RailFormatFull, nil
	case RailFormatShort:
		return RailFormatShort, nil
	}
	return "", fmt.Errorf("unknown rail format %q", s)
}
