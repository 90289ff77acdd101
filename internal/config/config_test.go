package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 2010, cfg.FirstSeason)
	assert.Equal(t, "0 4 * * *", cfg.NightlyRebuildCron)

	fc, err := cfg.Features()
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7, 14, 41, 82}, fc.TeamWindows)
	assert.Equal(t, []int{10, 20, 41, 82}, fc.WinPctWindows)
	assert.Equal(t, 30.0, fc.GoalieRestCeiling)
	assert.Equal(t, 7.0, fc.TeamRestCeiling)
	assert.True(t, fc.DiffZeroFill)
	assert.True(t, fc.DropIncomplete)
}

func TestLoadRequiresPassword(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestFeaturesWindowOverride(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("TEAM_WINDOWS", "5, 10")
	t.Setenv("DIFF_MISSING_FILL", "propagate")

	cfg, err := Load()
	require.NoError(t, err)

	fc, err := cfg.Features()
	require.NoError(t, err)
	assert.Equal(t, []int{5, 10}, fc.TeamWindows)
	assert.False(t, fc.DiffZeroFill)
}

func TestFeaturesRejectsBadValues(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "secret")

	t.Setenv("TEAM_WINDOWS", "3,x")
	_, err := Load()
	assert.Error(t, err, "non-numeric window")

	t.Setenv("TEAM_WINDOWS", "3,7")
	t.Setenv("GOALIE_DEDUP_POLICY", "middle")
	_, err = Load()
	assert.Error(t, err, "unknown dedup policy")

	t.Setenv("GOALIE_DEDUP_POLICY", "last")
	t.Setenv("DIFF_MISSING_FILL", "sometimes")
	_, err = Load()
	assert.Error(t, err, "unknown fill policy")
}

func TestDSNAndRedisAddr(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.DatabaseDSN(), "dbname=nhl_wp")
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}
