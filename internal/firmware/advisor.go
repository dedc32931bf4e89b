// FilePath: internal/firmware/advisor.go
// Package firmware polls the upstream WiCAN release feed, caches the
// latest release descriptor and compares fleet firmware versions
// against it.
package firmware

import (
	"context"
	"fmt"
	"time"

	"github.com/gearlog/wican-hub/internal/config"
	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/models"
	"github.com/gearlog/wican-hub/internal/repository"
	"github.com/go-resty/resty/v2"
	nuts "github.com/vaudience/go-nuts"
)

// CacheKeyLatest is the cache key holding the newest release descriptor.
const CacheKeyLatest = "firmware:latest"

// ReleaseCache is the keyed JSON cache the advisor stores releases in.
type ReleaseCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}) error
}

// releaseFeed is the GitHub-releases shaped upstream response.
type releaseFeed struct {
	TagName     string `json:"tag_name"`
	HTMLURL     string `json:"html_url"`
	Body        string `json:"body"`
	PublishedAt string `json:"published_at"`
}

// Advisor owns upstream polling and version advice.
type Advisor struct {
	client     *resty.Client
	feedURL    string
	minVersion string
	cache      ReleaseCache
	devices    repository.DeviceRepository
}

func NewAdvisor(cfg config.FirmwareConfig, releaseCache ReleaseCache, devices repository.DeviceRepository) *Advisor {
	client := resty.New().
		SetTimeout(cfg.PollTimeout).
		SetHeader("Accept", "application/json")

	return &Advisor{
		client:     client,
		feedURL:    cfg.FeedURL,
		minVersion: cfg.MinSupportedVersion,
		cache:      releaseCache,
		devices:    devices,
	}
}

// CheckFirmwareUpdates polls the upstream feed and overwrites the cached
// release on success. Any upstream failure is returned as an upstream
// error and leaves the cache untouched; callers log and move on.
func (a *Advisor) CheckFirmwareUpdates(ctx context.Context) (*models.FirmwareRelease, error) {
	feed := &releaseFeed{}
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(feed).
		Get(a.feedURL)
	if err != nil {
		return nil, errors.NewUpstreamError("firmware feed unreachable", err)
	}
	if resp.IsError() {
		return nil, errors.NewUpstreamError("firmware feed returned error status", fmt.Errorf("status %d", resp.StatusCode()))
	}

	version := ExtractVersion(feed.TagName)
	if version == "" {
		return nil, errors.NewUpstreamError("firmware feed tag carries no version", fmt.Errorf("tag %q", feed.TagName))
	}

	release := &models.FirmwareRelease{
		LatestVersion: version,
		LatestTag:     feed.TagName,
		ReleaseURL:    feed.HTMLURL,
		ReleaseNotes:  feed.Body,
		CheckedAt:     time.Now(),
	}

	if err := a.cache.SetJSON(ctx, CacheKeyLatest, release); err != nil {
		return nil, errors.NewInternalError("failed to cache firmware release", err)
	}

	nuts.L.Infof("[Firmware] Latest upstream release %s (tag %s)", release.LatestVersion, release.LatestTag)
	return release, nil
}

// GetLatest returns the cached release; found is false when no check has
// ever succeeded.
func (a *Advisor) GetLatest(ctx context.Context) (*models.FirmwareRelease, bool, error) {
	release := &models.FirmwareRelease{}
	found, err := a.cache.GetJSON(ctx, CacheKeyLatest, release)
	if err != nil {
		return nil, false, errors.NewInternalError("failed to read firmware cache", err)
	}
	return release, found, nil
}

// IsFirmwareCompatible reports whether a device firmware version meets
// the minimum the hub supports.
func (a *Advisor) IsFirmwareCompatible(version string) bool {
	return CompareVersions(version, a.minVersion) >= 0
}

// GetDevicesNeedingUpdate cross-references all known devices against the
// cached latest release. With an empty cache there is nothing to advise.
func (a *Advisor) GetDevicesNeedingUpdate(ctx context.Context) ([]*models.DeviceFirmwareStatus, error) {
	release, found, err := a.GetLatest(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	devices, err := a.devices.List(ctx, 0, 1000)
	if err != nil {
		return nil, err
	}

	outdated := []*models.DeviceFirmwareStatus{}
	for _, device := range devices {
		if device.FWVersion == "" {
			continue
		}
		if CompareVersions(device.FWVersion, release.LatestVersion) < 0 {
			outdated = append(outdated, &models.DeviceFirmwareStatus{
				DeviceID:       device.DeviceID,
				VIN:            device.VIN,
				CurrentVersion: device.FWVersion,
				LatestVersion:  release.LatestVersion,
				UpdateURL:      release.ReleaseURL,
			})
		}
	}
	return outdated, nil
}
