package catch

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnIntervalShrinksWithLevelAndFloors(t *testing.T) {
	v := SpaceCatcher()

	assert.Equal(t, v.SpawnBase, SpawnInterval(v, 1))
	assert.Equal(t, v.SpawnBase, SpawnInterval(v, 0), "levels below 1 behave like level 1")
	assert.Less(t, SpawnInterval(v, 3), SpawnInterval(v, 1))
	assert.Equal(t, v.SpawnMin, SpawnInterval(v, 1000))

	prev := SpawnInterval(v, 1)
	for level := 2; level < 30; level++ {
		cur := SpawnInterval(v, level)
		require.LessOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestObjectSpeedGrowsWithLevelAndCaps(t *testing.T) {
	v := SpaceCatcher()
	assert.Equal(t, v.BaseSpeed, ObjectSpeed(v, 1))
	assert.Greater(t, ObjectSpeed(v, 3), ObjectSpeed(v, 1))
	assert.Equal(t, v.MaxSpeed, ObjectSpeed(v, 500))
}

func TestLevelThreeFromScore250(t *testing.T) {
	v := SpaceCatcher()
	level := LevelFor(250, v.PointsPerLevel)
	require.Equal(t, 3, level)
	assert.Less(t, SpawnInterval(v, level), SpawnInterval(v, 1))
	assert.Greater(t, ObjectSpeed(v, level), ObjectSpeed(v, 1))
}

func TestChooseKindWeights(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	kinds := SpaceCatcher().Kinds

	counts := map[Kind]int{}
	const draws = 20000
	for i := 0; i < draws; i++ {
		counts[ChooseKind(rng, kinds).Kind]++
	}
	meteorShare := float64(counts[KindMeteor]) / draws
	assert.InDelta(t, 0.4, meteorShare, 0.03)
	assert.Equal(t, draws, counts[KindStar]+counts[KindMeteor])
}

func TestChooseKindDegenerate(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	assert.Equal(t, KindSpec{}, ChooseKind(rng, nil))

	zero := []KindSpec{{Kind: KindComet, Points: 3}}
	assert.Equal(t, KindComet, ChooseKind(rng, zero).Kind)
}

func TestSpawnerPositionsWithinInset(t *testing.T) {
	v := SpaceCatcher()
	s := NewSpawner(v)
	rng := rand.New(rand.NewPCG(3, 4))

	for i := 0; i < 1000; i++ {
		for _, o := range s.Spawn(t0, 1, rng) {
			require.GreaterOrEqual(t, o.X, v.SpawnInset)
			require.LessOrEqual(t, o.X, v.Field.Width-v.SpawnInset)
			require.Zero(t, o.Y)
			require.Equal(t, o.X, o.BaseX)
			spec, ok := v.Kind(o.Kind)
			require.True(t, ok)
			require.Equal(t, spec.Points, o.Points)
		}
	}
}

func TestSpawnerClusterKeepsOffsetAndUniqueIDs(t *testing.T) {
	v := SpaceCatcher()
	v.ClusterChance = 1
	s := NewSpawner(v)
	rng := rand.New(rand.NewPCG(5, 6))

	ids := map[int64]bool{}
	for i := 0; i < 200; i++ {
		batch := s.Spawn(t0, 2, rng)
		require.Len(t, batch, 2)
		assert.InDelta(t, v.ClusterOffset, abs(batch[1].X-batch[0].X), 1e-9)
		for _, o := range batch {
			require.False(t, ids[o.ID], "duplicate id %d", o.ID)
			ids[o.ID] = true
		}
	}
}

func TestSpawnerIDsFollowTimestamps(t *testing.T) {
	s := NewSpawner(StarCatcher())
	rng := rand.New(rand.NewPCG(1, 1))

	a := s.Spawn(t0, 1, rng)[0]
	b := s.Spawn(t0, 1, rng)[0]
	c := s.Spawn(t0.Add(time.Second), 1, rng)[0]

	assert.Equal(t, t0.UnixMilli(), a.ID)
	assert.Equal(t, a.ID+1, b.ID)
	assert.Equal(t, t0.Add(time.Second).UnixMilli(), c.ID)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
