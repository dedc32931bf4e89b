// FilePath: internal/settings/settings_test.go
package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSettingsRepo struct {
	values map[string]string
	err    error
}

func (r *stubSettingsRepo) GetAll(ctx context.Context) (map[string]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.values, nil
}

func TestLoaderLoad(t *testing.T) {
	loader := NewLoader(&stubSettingsRepo{values: map[string]string{KeyEnabled: "false"}})

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Enabled())
}

func TestLoaderLoadError(t *testing.T) {
	loader := NewLoader(&stubSettingsRepo{err: assert.AnError})

	_, err := loader.Load(context.Background())
	require.Error(t, err)
}

func TestSnapshotBool(t *testing.T) {
	snap := NewSnapshot(map[string]string{
		"flag_true":  "true",
		"flag_false": "false",
		"flag_bad":   "not-a-bool",
	})

	assert.True(t, snap.Bool("flag_true", false))
	assert.False(t, snap.Bool("flag_false", true))
	assert.True(t, snap.Bool("flag_bad", true))
	assert.False(t, snap.Bool("missing", false))
	assert.True(t, snap.Bool("missing", true))
}

func TestSnapshotEnabledDefaultsOn(t *testing.T) {
	assert.True(t, NewSnapshot(nil).Enabled())
	assert.True(t, NewSnapshot(map[string]string{}).Enabled())
	assert.False(t, NewSnapshot(map[string]string{KeyEnabled: "false"}).Enabled())
}

func TestThresholdRules(t *testing.T) {
	snap := NewSnapshot(map[string]string{
		"threshold.COOLANT_TEMP.max":    "105",
		"threshold.BATTERY_VOLTAGE.min": "11.5",
		"threshold.ENGINE_RPM.min":      "500",
		"threshold.ENGINE_RPM.max":      "6500",
		"threshold.BROKEN.max":          "not-a-number",
		"threshold.dangling":            "1",
		"unrelated_key":                 "true",
	})

	rules := snap.ThresholdRules()
	require.Len(t, rules, 3)

	coolant := rules["COOLANT_TEMP"]
	assert.Nil(t, coolant.Min)
	require.NotNil(t, coolant.Max)
	assert.Equal(t, 105.0, *coolant.Max)

	battery := rules["BATTERY_VOLTAGE"]
	require.NotNil(t, battery.Min)
	assert.Equal(t, 11.5, *battery.Min)
	assert.Nil(t, battery.Max)

	rpm := rules["ENGINE_RPM"]
	require.NotNil(t, rpm.Min)
	require.NotNil(t, rpm.Max)
	assert.Equal(t, 500.0, *rpm.Min)
	assert.Equal(t, 6500.0, *rpm.Max)
}
