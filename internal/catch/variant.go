package catch

import (
	"errors"
	"fmt"
	"time"
)

// Variant names.
const (
	VariantStar  = "star"
	VariantSpace = "space"
)

// KindSpec describes one spawnable kind: how much it is worth and how often
// it is drawn relative to the other kinds.
type KindSpec struct {
	Kind   Kind    `yaml:"kind"`
	Points int     `yaml:"points"`
	Weight float64 `yaml:"weight"`
}

// Variant holds every tunable of one catch game. Both games run on the same
// engine and differ only in these parameters.
type Variant struct {
	Name  string `yaml:"name"`
	Title string `yaml:"title"`

	Field          Field   `yaml:"field"`
	PlayerWidth    float64 `yaml:"player_width"`
	CatchTolerance float64 `yaml:"catch_tolerance"` // Max |object.X - player| for a catch
	CatchTop       float64 `yaml:"catch_top"`       // Catch band is (CatchTop, CatchBottom)
	CatchBottom    float64 `yaml:"catch_bottom"`

	Kinds []KindSpec `yaml:"kinds"`

	// Spawning
	SpawnBase     time.Duration `yaml:"spawn_base"` // Interval at level 1
	SpawnMin      time.Duration `yaml:"spawn_min"`  // Floor, keeps the game playable
	SpawnStep     time.Duration `yaml:"spawn_step"` // Reduction per level
	SpawnInset    float64       `yaml:"spawn_inset"`
	ClusterChance float64       `yaml:"cluster_chance"`
	ClusterOffset float64       `yaml:"cluster_offset"`

	// Motion
	BaseSpeed       float64       `yaml:"base_speed"` // Units per second at level 1
	SpeedPerLevel   float64       `yaml:"speed_per_level"`
	MaxSpeed        float64       `yaml:"max_speed"`
	WobbleAmplitude float64       `yaml:"wobble_amplitude"`
	WobbleHz        float64       `yaml:"wobble_hz"`
	MaxTickDelta    time.Duration `yaml:"max_tick_delta"`

	// Progression
	PointsPerLevel int `yaml:"points_per_level"`
	MaxMissed      int `yaml:"max_missed"` // 0 disables game over
}

// StarCatcher is the "page not found" game: one kind of star worth a single
// point, and the game ends after a handful of misses.
func StarCatcher() Variant {
	return Variant{
		Name:           VariantStar,
		Title:          "Star Catcher",
		Field:          Field{Width: 300, Height: 400},
		PlayerWidth:    40,
		CatchTolerance: 20,
		CatchTop:       360,
		CatchBottom:    380,
		Kinds: []KindSpec{
			{Kind: KindStar, Points: 1, Weight: 1},
		},
		SpawnBase:       1200 * time.Millisecond,
		SpawnMin:        400 * time.Millisecond,
		SpawnStep:       100 * time.Millisecond,
		SpawnInset:      20,
		BaseSpeed:       90,
		SpeedPerLevel:   15,
		MaxSpeed:        260,
		WobbleAmplitude: 6,
		WobbleHz:        0.5,
		MaxTickDelta:    100 * time.Millisecond,
		PointsPerLevel:  10,
		MaxMissed:       5,
	}
}

// SpaceCatcher is the secret-sequence game: stars and meteors, occasional
// clusters, no life cap.
func SpaceCatcher() Variant {
	return Variant{
		Name:           VariantSpace,
		Title:          "Space Catcher",
		Field:          Field{Width: 300, Height: 400},
		PlayerWidth:    40,
		CatchTolerance: 20,
		CatchTop:       360,
		CatchBottom:    380,
		Kinds: []KindSpec{
			{Kind: KindStar, Points: 10, Weight: 0.6},
			{Kind: KindMeteor, Points: 15, Weight: 0.4},
		},
		SpawnBase:       1000 * time.Millisecond,
		SpawnMin:        300 * time.Millisecond,
		SpawnStep:       80 * time.Millisecond,
		SpawnInset:      30,
		ClusterChance:   0.1,
		ClusterOffset:   40,
		BaseSpeed:       110,
		SpeedPerLevel:   20,
		MaxSpeed:        320,
		WobbleAmplitude: 4,
		WobbleHz:        0.8,
		MaxTickDelta:    100 * time.Millisecond,
		PointsPerLevel:  100,
		MaxMissed:       0,
	}
}

// Builtin returns the built-in variant with the given name.
func Builtin(name string) (Variant, bool) {
	switch name {
	case VariantStar:
		return StarCatcher(), true
	case VariantSpace:
		return SpaceCatcher(), true
	}
	return Variant{}, false
}

// Kind returns the spec for kind k, if the variant spawns it.
func (v Variant) Kind(k Kind) (KindSpec, bool) {
	for _, ks := range v.Kinds {
		if ks.Kind == k {
			return ks, true
		}
	}
	return KindSpec{}, false
}

// PlayerBounds returns the range the player's center is clamped to.
func (v Variant) PlayerBounds() (lo, hi float64) {
	half := v.PlayerWidth / 2
	return half, v.Field.Width - half
}

// Validate reports the first inconsistency in the variant.
func (v Variant) Validate() error {
	if v.Name == "" {
		return errors.New("variant name is empty")
	}
	if v.Field.Width <= 0 || v.Field.Height <= 0 {
		return fmt.Errorf("variant %s: field must be positive, got %gx%g", v.Name, v.Field.Width, v.Field.Height)
	}
	if v.PlayerWidth <= 0 || v.PlayerWidth > v.Field.Width {
		return fmt.Errorf("variant %s: player width %g outside (0, %g]", v.Name, v.PlayerWidth, v.Field.Width)
	}
	if v.CatchTolerance < 0 {
		return fmt.Errorf("variant %s: negative catch tolerance", v.Name)
	}
	if v.CatchTop >= v.CatchBottom || v.CatchTop < 0 || v.CatchBottom > v.Field.Height {
		return fmt.Errorf("variant %s: catch band (%g, %g) invalid for height %g", v.Name, v.CatchTop, v.CatchBottom, v.Field.Height)
	}
	if len(v.Kinds) == 0 {
		return fmt.Errorf("variant %s: no kinds", v.Name)
	}
	var total float64
	for _, k := range v.Kinds {
		if k.Weight < 0 {
			return fmt.Errorf("variant %s: negative weight for %s", v.Name, k.Kind)
		}
		total += k.Weight
	}
	if total <= 0 {
		return fmt.Errorf("variant %s: kind weights sum to zero", v.Name)
	}
	if v.SpawnBase <= 0 || v.SpawnMin <= 0 || v.SpawnMin > v.SpawnBase {
		return fmt.Errorf("variant %s: spawn interval base=%s min=%s invalid", v.Name, v.SpawnBase, v.SpawnMin)
	}
	if v.SpawnInset < 0 || 2*v.SpawnInset >= v.Field.Width {
		return fmt.Errorf("variant %s: spawn inset %g too large", v.Name, v.SpawnInset)
	}
	if v.ClusterChance < 0 || v.ClusterChance > 1 {
		return fmt.Errorf("variant %s: cluster chance %g outside [0, 1]", v.Name, v.ClusterChance)
	}
	if v.BaseSpeed <= 0 || v.SpeedPerLevel < 0 {
		return fmt.Errorf("variant %s: speed must be positive", v.Name)
	}
	if v.MaxSpeed > 0 && v.MaxSpeed < v.BaseSpeed {
		return fmt.Errorf("variant %s: max speed below base speed", v.Name)
	}
	if v.MaxMissed < 0 {
		return fmt.Errorf("variant %s: negative miss cap", v.Name)
	}
	return nil
}
