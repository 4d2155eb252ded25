package tuning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	assert.Equal(t, 3, d.Farm.StartingPlots)
	assert.Equal(t, 4, d.Farm.PumpRate)
	assert.Equal(t, 10, d.Town.SeedPrice)
	assert.Equal(t, 20, d.Decisions.VictoryLevel)
	assert.Equal(t, 3, d.Decisions.BottleneckDays)
	assert.Equal(t, 20.0, d.Decisions.UrgencyNormal)
	assert.Equal(t, 0.25, d.Resources.EnergyRegen)
	assert.Equal(t, []int{100, 150, 225, 350}, d.Resources.EnergyTiers)
}

func TestLoad_FillsUnsetFieldsWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := "farm:\n  pump_rate: 8\ndecisions:\n  victory_level: 12\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	tun, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, tun.Farm.PumpRate)
	assert.Equal(t, 12, tun.Decisions.VictoryLevel)
	// Everything unset falls back to the documented defaults.
	assert.Equal(t, 3, tun.Farm.StartingPlots)
	assert.Equal(t, 500, tun.Town.HelperHireCost)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestApplyOverrides(t *testing.T) {
	tun := Defaults()
	err := tun.ApplyOverrides(map[string]any{
		"farm.pump_rate":                      8,
		"resources.energy_regen_per_minute":   0.5,
		"decisions.victory_level":             10,
		"resources.energy_tiers":              []int{50, 75},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, tun.Farm.PumpRate)
	assert.Equal(t, 0.5, tun.Resources.EnergyRegen)
	assert.Equal(t, 10, tun.Decisions.VictoryLevel)
	assert.Equal(t, []int{50, 75}, tun.Resources.EnergyTiers)
	// Untouched fields keep their values.
	assert.Equal(t, 3, tun.Farm.StartingPlots)
}

func TestApplyOverrides_RejectsUnknownPath(t *testing.T) {
	tun := Defaults()
	err := tun.ApplyOverrides(map[string]any{"farm.warp_speed": 9})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "farm.warp_speed")
	// The failed override must not have changed anything.
	assert.Equal(t, Defaults(), tun)
}

func TestApplyOverrides_RequiresGroupAndField(t *testing.T) {
	tun := Defaults()
	require.Error(t, tun.ApplyOverrides(map[string]any{"victory_level": 10}))
}
