package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/starcatch/internal/catch"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("STARCATCH_TEST_STR", "hello")
	assert.Equal(t, "hello", GetEnv("STARCATCH_TEST_STR", "x"))
	assert.Equal(t, "x", GetEnv("STARCATCH_TEST_UNSET", "x"))

	t.Setenv("STARCATCH_TEST_EMPTY", "")
	assert.Empty(t, GetEnv("STARCATCH_TEST_EMPTY", "x"), "set but empty is still set")
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("STARCATCH_TEST_INT", "42")
	t.Setenv("STARCATCH_TEST_BAD", "forty")
	assert.Equal(t, 42, GetEnvInt("STARCATCH_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("STARCATCH_TEST_BAD", 1))
	assert.Equal(t, 1, GetEnvInt("STARCATCH_TEST_UNSET", 1))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("STARCATCH_TEST_DUR", "15s")
	t.Setenv("STARCATCH_TEST_BAD", "soon")
	assert.Equal(t, 15*time.Second, GetEnvDuration("STARCATCH_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, GetEnvDuration("STARCATCH_TEST_BAD", time.Second))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("STARCATCH_TEST_DOTENV=from-file\nSTARCATCH_TEST_KEEP=from-file\n"), 0o600))

	t.Setenv("STARCATCH_TEST_KEEP", "from-env")
	t.Setenv("STARCATCH_TEST_DOTENV", "")
	os.Unsetenv("STARCATCH_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("STARCATCH_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("STARCATCH_TEST_KEEP"), "existing variables win")
}

func TestLoadTuningDefaults(t *testing.T) {
	tuning, err := LoadTuning("")
	require.NoError(t, err)
	assert.Equal(t, catch.StarCatcher(), tuning.Star)
	assert.Equal(t, catch.SpaceCatcher(), tuning.Space)

	v, ok := tuning.Variant(catch.VariantSpace)
	require.True(t, ok)
	assert.Equal(t, "Space Catcher", v.Title)

	_, ok = tuning.Variant("nope")
	assert.False(t, ok)
}

func TestParseTuningOverrides(t *testing.T) {
	tuning, err := ParseTuning([]byte(`
star:
  name: renamed
  max_missed: 3
  spawn_base: 900ms
space:
  kinds:
    - kind: comet
      points: 50
      weight: 1
`))
	require.NoError(t, err)

	assert.Equal(t, catch.VariantStar, tuning.Star.Name)
	assert.Equal(t, 3, tuning.Star.MaxMissed)
	assert.Equal(t, 900*time.Millisecond, tuning.Star.SpawnBase)
	assert.Equal(t, catch.StarCatcher().SpawnMin, tuning.Star.SpawnMin, "unset fields keep defaults")

	require.Len(t, tuning.Space.Kinds, 1)
	assert.Equal(t, catch.KindSpec{Kind: catch.KindComet, Points: 50, Weight: 1}, tuning.Space.Kinds[0])
}

func TestParseTuningRejectsInvalid(t *testing.T) {
	_, err := ParseTuning([]byte("space:\n  player_width: -1\n"))
	assert.ErrorContains(t, err, `tuning "space"`)

	_, err = ParseTuning([]byte("star: [unclosed"))
	assert.ErrorContains(t, err, "parse tuning")

	_, err = ParseTuning([]byte("star:\n  kinds:\n    - kind: ufo\n"))
	assert.Error(t, err)
}

func TestLoadTuningFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("space:\n  points_per_level: 200\n"), 0o600))

	tuning, err := LoadTuning(path)
	require.NoError(t, err)
	assert.Equal(t, 200, tuning.Space.PointsPerLevel)

	_, err = LoadTuning(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read tuning")
}

func TestSampleTuningFileIsValid(t *testing.T) {
	_, err := LoadTuning(filepath.Join("..", "..", "configs", "tuning.yaml"))
	require.NoError(t, err)
}
