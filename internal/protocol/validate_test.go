package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harvestsim.ai/internal/sim/state"
)

func loadTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := LoadValidator("../../schemas")
	require.NoError(t, err)
	return v
}

func TestValidate_Initialize(t *testing.T) {
	v := loadTestValidator(t)

	good := `{"type":"INITIALIZE","config":{"seed":42,"policy":"casual","speed":10}}`
	assert.NoError(t, v.Validate(TypeInitialize, []byte(good)))

	withCatalog := `{"type":"INITIALIZE","config":{"seed":1},
		"catalog":{"items":[{"id":"turnip_seed","name":"Turnip Seed","category":"seed"}]}}`
	assert.NoError(t, v.Validate(TypeInitialize, []byte(withCatalog)))

	cases := map[string]string{
		"missing config":  `{"type":"INITIALIZE"}`,
		"missing seed":    `{"type":"INITIALIZE","config":{"policy":"casual"}}`,
		"unknown policy":  `{"type":"INITIALIZE","config":{"seed":1,"policy":"speedrunner"}}`,
		"zero speed":      `{"type":"INITIALIZE","config":{"seed":1,"speed":0}}`,
		"stray field":     `{"type":"INITIALIZE","config":{"seed":1},"junk":true}`,
		"empty item id":   `{"type":"INITIALIZE","config":{"seed":1},"catalog":{"items":[{"id":"","name":"x","category":"seed"}]}}`,
		"not valid json":  `{"type":"INITIALIZE",`,
	}
	for name, raw := range cases {
		assert.Error(t, v.Validate(TypeInitialize, []byte(raw)), name)
	}
}

func TestValidate_StartAndSetSpeed(t *testing.T) {
	v := loadTestValidator(t)

	assert.NoError(t, v.Validate(TypeStart, []byte(`{"type":"START"}`)))
	assert.NoError(t, v.Validate(TypeStart, []byte(`{"type":"START","speed":100}`)))
	assert.Error(t, v.Validate(TypeStart, []byte(`{"type":"START","speed":-1}`)))
	assert.Error(t, v.Validate(TypeStart, []byte(`{"type":"PAUSE"}`)), "type mismatch")

	assert.NoError(t, v.Validate(TypeSetSpeed, []byte(`{"type":"SET_SPEED","speed":4}`)))
	assert.Error(t, v.Validate(TypeSetSpeed, []byte(`{"type":"SET_SPEED"}`)), "speed required")
}

func TestValidate_ControlMessages(t *testing.T) {
	v := loadTestValidator(t)
	for _, typ := range []string{TypePause, TypeStop, TypeGetState, TypeGetStats} {
		raw := `{"type":"` + typ + `"}`
		assert.NoError(t, v.Validate(typ, []byte(raw)), typ)
	}
	assert.Error(t, v.Validate(TypePause, []byte(`{"type":"PAUSE","extra":1}`)))
}

func TestValidate_UnknownType(t *testing.T) {
	v := loadTestValidator(t)
	assert.Error(t, v.Validate("DANCE", []byte(`{"type":"DANCE"}`)))
}

func TestDecodeBase(t *testing.T) {
	m, err := DecodeBase([]byte(`{"type":"START","protocol_version":"1.0","speed":2}`))
	require.NoError(t, err)
	assert.Equal(t, TypeStart, m.Type)
	assert.Equal(t, Version, m.ProtocolVersion)

	_, err = DecodeBase([]byte(`nope`))
	assert.Error(t, err)
}

func TestIsKnownCode(t *testing.T) {
	assert.True(t, IsKnownCode(ErrBadSpeed))
	assert.True(t, IsKnownCode(""))
	assert.False(t, IsKnownCode("E_TEAPOT"))
}

func TestNewStateView(t *testing.T) {
	w := state.NewWorld(state.InitialConfig{
		Energy: 80, EnergyMax: 100,
		Water: 5, WaterMax: 20,
		Gold: 75, GoldMax: 10000,
		FarmPlots: 3, PumpRate: 4,
		Seeds: map[string]int{"turnip_seed": 2, "carrot_seed": 1},
	})
	w.Clock.Tick = 10
	w.Clock.TotalMinutes = 10
	w.Progression.Level = 2
	w.Processes.Crops["P000001"] = &state.CropProcess{ID: "P000001", SeedID: "turnip_seed", GrowthRequired: 30}
	w.Farm.AvailablePlots = 2
	w.Processes.Mining = &state.MiningProcess{ID: "P000002"}

	view := NewStateView(w)
	assert.Equal(t, uint64(10), view.Tick)
	assert.Equal(t, 1, view.Day)
	assert.Equal(t, "farm", view.Location)
	assert.Equal(t, 2, view.Level)
	assert.Equal(t, 80, view.Energy)
	assert.Equal(t, 3, view.Seeds)
	assert.Equal(t, 2, view.PlotsFree)
	assert.Equal(t, 3, view.PlotsAll)
	assert.Equal(t, 2, view.Processes)
	assert.Equal(t, 0, view.Helpers)
}
