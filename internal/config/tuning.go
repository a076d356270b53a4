package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tomz197/starcatch/internal/catch"
)

// Tuning holds the parameters of every game variant.
type Tuning struct {
	Star  catch.Variant `yaml:"star"`
	Space catch.Variant `yaml:"space"`
}

// DefaultTuning returns the built-in variants.
func DefaultTuning() Tuning {
	return Tuning{
		Star:  catch.StarCatcher(),
		Space: catch.SpaceCatcher(),
	}
}

// Variant returns the variant registered under name.
func (t Tuning) Variant(name string) (catch.Variant, bool) {
	switch name {
	case catch.VariantStar:
		return t.Star, true
	case catch.VariantSpace:
		return t.Space, true
	}
	return catch.Variant{}, false
}

// LoadTuning reads a YAML file whose fields override the built-in variants.
// An empty path returns the defaults. Every variant is validated after the
// merge.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning: %w", err)
	}
	return ParseTuning(data)
}

// ParseTuning applies YAML overrides to the built-in variants.
func ParseTuning(data []byte) (Tuning, error) {
	t := DefaultTuning()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning: %w", err)
	}

	// The key decides the variant; a renamed one would break lookups.
	t.Star.Name = catch.VariantStar
	t.Space.Name = catch.VariantSpace

	if err := t.Star.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning %q: %w", catch.VariantStar, err)
	}
	if err := t.Space.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning %q: %w", catch.VariantSpace, err)
	}
	return t, nil
}
