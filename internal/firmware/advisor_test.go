// FilePath: internal/firmware/advisor_test.go
package firmware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gearlog/wican-hub/internal/config"
	"github.com/gearlog/wican-hub/internal/database"
	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	values map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{values: map[string][]byte{}}
}

func (c *memCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) SetJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

type stubDeviceRepo struct {
	devices []*models.Device
}

func (r *stubDeviceRepo) BeginTx(ctx context.Context) (database.Transaction, error) { return nil, nil }
func (r *stubDeviceRepo) Create(ctx context.Context, device *models.Device) error   { return nil }
func (r *stubDeviceRepo) Get(ctx context.Context, deviceID string) (*models.Device, error) {
	return nil, errors.NewNotFoundError("device not found", nil)
}
func (r *stubDeviceRepo) GetByToken(ctx context.Context, token string) (*models.Device, error) {
	return nil, errors.NewNotFoundError("device not found", nil)
}
func (r *stubDeviceRepo) UpdateStatus(ctx context.Context, device *models.Device) error { return nil }
func (r *stubDeviceRepo) TouchHeartbeat(ctx context.Context, deviceID string, seenAt time.Time) error {
	return nil
}
func (r *stubDeviceRepo) SetVIN(ctx context.Context, deviceID string, vin *string) error {
	return nil
}
func (r *stubDeviceRepo) List(ctx context.Context, offset, limit int) ([]*models.Device, error) {
	return r.devices, nil
}
func (r *stubDeviceRepo) MarkOfflineOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Device, error) {
	return nil, nil
}

func newTestAdvisor(t *testing.T, feedURL string, devices []*models.Device) (*Advisor, *memCache) {
	t.Helper()
	releaseCache := newMemCache()
	advisor := NewAdvisor(config.FirmwareConfig{
		FeedURL:             feedURL,
		PollTimeout:         2 * time.Second,
		MinSupportedVersion: "4.40",
	}, releaseCache, &stubDeviceRepo{devices: devices})
	return advisor, releaseCache
}

func TestCheckFirmwareUpdates(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tag_name":"v4.52","html_url":"https://example.com/rel","body":"notes"}`))
	}))
	t.Cleanup(feed.Close)

	advisor, _ := newTestAdvisor(t, feed.URL, nil)

	release, err := advisor.CheckFirmwareUpdates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4.52", release.LatestVersion)
	assert.Equal(t, "v4.52", release.LatestTag)
	assert.Equal(t, "https://example.com/rel", release.ReleaseURL)

	cached, found, err := advisor.GetLatest(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "4.52", cached.LatestVersion)
}

func TestCheckFirmwareUpdatesUpstreamFailureKeepsCache(t *testing.T) {
	calls := 0
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tag_name":"v4.50"}`))
	}))
	t.Cleanup(feed.Close)

	advisor, _ := newTestAdvisor(t, feed.URL, nil)

	_, err := advisor.CheckFirmwareUpdates(context.Background())
	require.NoError(t, err)

	_, err = advisor.CheckFirmwareUpdates(context.Background())
	require.Error(t, err)

	// The earlier release survives the failed poll.
	cached, found, err := advisor.GetLatest(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "4.50", cached.LatestVersion)
}

func TestGetLatestEmptyCache(t *testing.T) {
	advisor, _ := newTestAdvisor(t, "http://unused.invalid", nil)

	_, found, err := advisor.GetLatest(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIsFirmwareCompatible(t *testing.T) {
	advisor, _ := newTestAdvisor(t, "http://unused.invalid", nil)

	assert.True(t, advisor.IsFirmwareCompatible("4.40"))
	assert.True(t, advisor.IsFirmwareCompatible("4.52"))
	assert.False(t, advisor.IsFirmwareCompatible("4.39"))
}

func TestGetDevicesNeedingUpdate(t *testing.T) {
	vin := "WVIN0001"
	devices := []*models.Device{
		{DeviceID: "wican_old", FWVersion: "4.45", VIN: &vin},
		{DeviceID: "wican_new", FWVersion: "4.52"},
		{DeviceID: "wican_mute", FWVersion: ""},
	}
	advisor, releaseCache := newTestAdvisor(t, "http://unused.invalid", devices)

	// No advice before the first successful poll.
	outdated, err := advisor.GetDevicesNeedingUpdate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, outdated)

	require.NoError(t, releaseCache.SetJSON(context.Background(), CacheKeyLatest, &models.FirmwareRelease{
		LatestVersion: "4.52",
		ReleaseURL:    "https://example.com/rel",
	}))

	outdated, err = advisor.GetDevicesNeedingUpdate(context.Background())
	require.NoError(t, err)
	require.Len(t, outdated, 1)
	assert.Equal(t, "wican_old", outdated[0].DeviceID)
	assert.Equal(t, "4.45", outdated[0].CurrentVersion)
	assert.Equal(t, "4.52", outdated[0].LatestVersion)
	require.NotNil(t, outdated[0].VIN)
	assert.Equal(t, vin, *outdated[0].VIN)
}
