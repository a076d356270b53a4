package catch

import (
	"math"
	"math/rand/v2"
	"time"
)

// SpawnInterval returns the time between spawns at the given level. It
// shrinks by SpawnStep per level and never drops below SpawnMin.
func SpawnInterval(v Variant, level int) time.Duration {
	if level < 1 {
		level = 1
	}
	interval := v.SpawnBase - time.Duration(level-1)*v.SpawnStep
	if interval < v.SpawnMin {
		interval = v.SpawnMin
	}
	return interval
}

// ObjectSpeed returns the fall speed for objects spawned at the given level.
func ObjectSpeed(v Variant, level int) float64 {
	if level < 1 {
		level = 1
	}
	speed := v.BaseSpeed + float64(level-1)*v.SpeedPerLevel
	if v.MaxSpeed > 0 && speed > v.MaxSpeed {
		speed = v.MaxSpeed
	}
	return speed
}

// ChooseKind makes a weighted draw from kinds using rng.
func ChooseKind(rng *rand.Rand, kinds []KindSpec) KindSpec {
	if len(kinds) == 0 {
		return KindSpec{}
	}
	var total float64
	for _, k := range kinds {
		total += k.Weight
	}
	if total <= 0 {
		return kinds[0]
	}
	r := rng.Float64() * total
	for _, k := range kinds {
		if r < k.Weight {
			return k
		}
		r -= k.Weight
	}
	return kinds[len(kinds)-1]
}

// Spawner creates new falling objects for one engine. It owns the ID
// sequence so IDs never repeat, even when several objects share a timestamp.
type Spawner struct {
	variant Variant
	lastID  int64
}

// NewSpawner creates a spawner for the variant.
func NewSpawner(v Variant) *Spawner {
	return &Spawner{variant: v}
}

// Spawn returns the objects created at now: one object, or two when a
// cluster is rolled.
func (s *Spawner) Spawn(now time.Time, level int, rng *rand.Rand) []FallingObject {
	v := s.variant
	lo := v.SpawnInset
	hi := v.Field.Width - v.SpawnInset
	x := lo + rng.Float64()*(hi-lo)

	speed := ObjectSpeed(v, level)
	objs := []FallingObject{s.newObject(now, x, speed, rng)}

	if v.ClusterChance > 0 && rng.Float64() < v.ClusterChance {
		cx := x + v.ClusterOffset
		if cx > hi {
			cx = x - v.ClusterOffset
		}
		if cx >= lo && cx <= hi {
			objs = append(objs, s.newObject(now, cx, speed, rng))
		}
	}
	return objs
}

// nextID derives an ID from the timestamp, bumped past the last one issued.
func (s *Spawner) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Spawner) newObject(now time.Time, x, speed float64, rng *rand.Rand) FallingObject {
	spec := ChooseKind(rng, s.variant.Kinds)
	return FallingObject{
		ID:     s.nextID(now),
		X:      x,
		Y:      0,
		BaseX:  x,
		Phase:  rng.Float64() * 2 * math.Pi,
		Speed:  speed,
		Kind:   spec.Kind,
		Points: spec.Points,
	}
}
