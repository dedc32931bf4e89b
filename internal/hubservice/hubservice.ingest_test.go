// FilePath: internal/hubservice/hubservice.ingest_test.go
package hubservice

import (
	"context"
	"testing"

	"github.com/gearlog/wican-hub/internal/database"
	"github.com/gearlog/wican-hub/internal/models"
	"github.com/gearlog/wican-hub/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusPayload(deviceID string, ecu models.ConnState, data map[string]models.ParamValue) *models.IngestPayload {
	if data == nil {
		data = map[string]models.ParamValue{}
	}
	return &models.IngestPayload{
		AutoPIDData: data,
		Status: &models.StatusBlock{
			DeviceID:  deviceID,
			FWVersion: "4.52",
			ECUStatus: ecu,
		},
	}
}

func TestIngestAutoDiscoversNewDevice(t *testing.T) {
	env := newTestEnv(t)

	result := env.svc.Ingest(context.Background(), "global-secret",
		statusPayload("wican_new1", models.StateOffline, nil))

	assert.Equal(t, models.IngestAccepted, result.Status)
	assert.Empty(t, result.ProcessingError)
	assert.Equal(t, "wican_new1", result.DeviceID)
	require.NotNil(t, result.DeviceNew)
	assert.True(t, *result.DeviceNew)
	require.NotNil(t, result.DeviceLinked)
	assert.False(t, *result.DeviceLinked)
	assert.Nil(t, result.ParametersStored)

	device, err := env.devices.Get(context.Background(), "wican_new1")
	require.NoError(t, err)
	assert.True(t, device.Enabled)
	assert.Nil(t, device.VIN)
}

func TestIngestLinkedDeviceStoresTelemetry(t *testing.T) {
	env := newTestEnv(t)
	env.addVehicle("WVIN0001")
	env.addDevice("wican_aa11", strPtr("WVIN0001"))

	payload := statusPayload("wican_aa11", models.StateOnline, map[string]models.ParamValue{
		"ENGINE_RPM":   {Kind: models.ParamNumber, Number: 1800},
		"COOLANT_TEMP": {Kind: models.ParamNumber, Number: 85},
	})

	result := env.svc.Ingest(context.Background(), "global-secret", payload)

	assert.Equal(t, models.IngestAccepted, result.Status)
	assert.Empty(t, result.ProcessingError)
	require.NotNil(t, result.DeviceNew)
	assert.False(t, *result.DeviceNew)
	require.NotNil(t, result.DeviceLinked)
	assert.True(t, *result.DeviceLinked)
	require.NotNil(t, result.ParametersStored)
	assert.Equal(t, 2, *result.ParametersStored)

	// ECU online opened a session.
	open, err := env.sessions.GetOpenByVIN(context.Background(), "WVIN0001")
	require.NoError(t, err)
	assert.Equal(t, "wican_aa11", open.DeviceID)
}

func TestIngestRecordsDTCs(t *testing.T) {
	env := newTestEnv(t)
	env.addVehicle("WVIN0001")
	env.addDevice("wican_aa11", strPtr("WVIN0001"))

	payload := statusPayload("wican_aa11", models.StateOnline, map[string]models.ParamValue{
		models.DTCParamKey: {Kind: models.ParamString, Str: "P0420,P0301"},
	})

	result := env.svc.Ingest(context.Background(), "global-secret", payload)

	assert.Equal(t, models.IngestAccepted, result.Status)
	require.NotNil(t, result.DTCsRecorded)
	assert.Equal(t, 2, *result.DTCsRecorded)
	require.NotNil(t, result.ParametersStored)
	assert.Equal(t, 0, *result.ParametersStored)
	assert.Len(t, env.dtcs.dtcs, 2)
}

func TestIngestUnlinkedDeviceOnlyRecordsStatus(t *testing.T) {
	env := newTestEnv(t)
	env.addDevice("wican_aa11", nil)

	payload := statusPayload("wican_aa11", models.StateOnline, map[string]models.ParamValue{
		"ENGINE_RPM": {Kind: models.ParamNumber, Number: 1800},
	})

	result := env.svc.Ingest(context.Background(), "global-secret", payload)

	assert.Equal(t, models.IngestAccepted, result.Status)
	require.NotNil(t, result.DeviceLinked)
	assert.False(t, *result.DeviceLinked)
	assert.Nil(t, result.ParametersStored)
	assert.Empty(t, env.telemetry.readings)
	assert.Empty(t, env.sessions.sessions)
}

func TestIngestDisabledByMasterFlag(t *testing.T) {
	env := newTestEnv(t)
	env.settings.values[settings.KeyEnabled] = "false"

	result := env.svc.Ingest(context.Background(), "global-secret",
		statusPayload("wican_aa11", models.StateOnline, nil))

	assert.Equal(t, models.IngestDisabled, result.Status)
	assert.Empty(t, env.devices.devices)
}

func TestIngestDisabledDevice(t *testing.T) {
	env := newTestEnv(t)
	device := env.addDevice("wican_aa11", nil)
	device.Enabled = false

	result := env.svc.Ingest(context.Background(), "global-secret",
		statusPayload("wican_aa11", models.StateOnline, nil))

	assert.Equal(t, models.IngestDisabled, result.Status)
	assert.Equal(t, "wican_aa11", result.DeviceID)
}

func TestIngestTelemetryOnlyResolvesByToken(t *testing.T) {
	env := newTestEnv(t)
	env.addVehicle("WVIN0001")
	device := env.addDevice("wican_aa11", strPtr("WVIN0001"))
	device.DeviceToken = "device-secret"

	payload := &models.IngestPayload{
		AutoPIDData: map[string]models.ParamValue{
			"ENGINE_RPM": {Kind: models.ParamNumber, Number: 2100},
		},
	}

	result := env.svc.Ingest(context.Background(), "device-secret", payload)

	assert.Equal(t, models.IngestAccepted, result.Status)
	assert.Equal(t, "wican_aa11", result.DeviceID)
	assert.Nil(t, result.DeviceNew)
	require.NotNil(t, result.ParametersStored)
	assert.Equal(t, 1, *result.ParametersStored)
}

func TestIngestTelemetryOnlyUnknownTokenRejected(t *testing.T) {
	env := newTestEnv(t)

	payload := &models.IngestPayload{
		AutoPIDData: map[string]models.ParamValue{
			"ENGINE_RPM": {Kind: models.ParamNumber, Number: 2100},
		},
	}

	result := env.svc.Ingest(context.Background(), "global-secret", payload)

	assert.Equal(t, models.IngestRejected, result.Status)
	assert.Contains(t, result.Message, "send a status payload first")
	assert.Empty(t, env.telemetry.readings)
}

func TestIngestSettingsFailureIsAbsorbed(t *testing.T) {
	env := newTestEnv(t)
	env.settings.err = assert.AnError

	result := env.svc.Ingest(context.Background(), "global-secret",
		statusPayload("wican_aa11", models.StateOnline, nil))

	assert.Equal(t, models.IngestAccepted, result.Status)
	assert.Equal(t, "settings unavailable", result.ProcessingError)
}

func TestIngestWritesRunInsideTransaction(t *testing.T) {
	env := newTestEnv(t)
	env.addVehicle("WVIN0001")
	env.addDevice("wican_aa11", strPtr("WVIN0001"))

	payload := statusPayload("wican_aa11", models.StateOnline, map[string]models.ParamValue{
		"ENGINE_RPM": {Kind: models.ParamNumber, Number: 1800},
	})

	result := env.svc.Ingest(context.Background(), "global-secret", payload)
	require.Equal(t, models.IngestAccepted, result.Status)
	require.NotNil(t, env.telemetry.lastCtx)

	// The repository saw a context carrying the unit-of-work transaction.
	_, ok := database.TxFromContext(env.telemetry.lastCtx)
	assert.True(t, ok)
}
