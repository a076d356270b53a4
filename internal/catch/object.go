// Package catch implements the falling-object catch games: a per-frame
// engine that spawns objects, moves them, tests them against the player's
// catch window and keeps score.
package catch

import (
	"fmt"
	"strings"
)

// Kind identifies the visual/scoring variant of a falling object.
type Kind int

const (
	KindStar Kind = iota
	KindMeteor
	KindComet
)

var kindNames = map[Kind]string{
	KindStar:   "star",
	KindMeteor: "meteor",
	KindComet:  "comet",
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler so kinds read naturally in
// tuning files.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for kind, n := range kindNames {
		if n == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown kind %q", name)
}

// FallingObject is a transient entity moving down through the play field.
type FallingObject struct {
	ID     int64   // Creation timestamp in milliseconds, unique per engine
	X, Y   float64 // Current position in field units
	BaseX  float64 // Spawn column; X wobbles around it
	Phase  float64 // Wobble phase offset (radians)
	Age    float64 // Seconds since spawn
	Speed  float64 // Field units per second
	Kind   Kind
	Points int
}

// Field is the fixed logical coordinate space objects move in.
type Field struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}
