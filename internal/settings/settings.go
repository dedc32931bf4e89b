// FilePath: internal/settings/settings.go
// Package settings materializes the key/value feature-flag store into an
// immutable snapshot fetched once per request or job run, so a single
// unit of work never observes two different flag states.
package settings

import (
	"context"
	"strconv"
	"strings"

	"github.com/gearlog/wican-hub/internal/repository"
)

// Well-known setting keys
const (
	KeyEnabled         = "wican_enabled"
	KeyOfflineNotify   = "wican_offline_notify"
	KeyFirmwareNotify  = "wican_firmware_notify"
	thresholdKeyPrefix = "threshold."
	thresholdMinSuffix = ".min"
	thresholdMaxSuffix = ".max"
)

// ThresholdRule bounds a telemetry parameter. A nil bound is unchecked.
type ThresholdRule struct {
	ParameterKey string
	Min          *float64
	Max          *float64
}

// Snapshot is a point-in-time copy of the settings table.
type Snapshot struct {
	values map[string]string
}

// Loader fetches snapshots from the settings repository.
type Loader struct {
	repo repository.SettingsRepository
}

func NewLoader(repo repository.SettingsRepository) *Loader {
	return &Loader{repo: repo}
}

// Load fetches the current settings state. A missing table or empty
// result yields an all-defaults snapshot, not an error for callers.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	values, err := l.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(values), nil
}

// NewSnapshot wraps a raw key/value map. Used directly in tests.
func NewSnapshot(values map[string]string) *Snapshot {
	if values == nil {
		values = map[string]string{}
	}
	return &Snapshot{values: values}
}

// Bool returns the boolean value of key, or fallback when absent or
// unparseable.
func (s *Snapshot) Bool(key string, fallback bool) bool {
	raw, ok := s.values[key]
	if !ok {
		return fallback
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return val
}

// Enabled reports the master feature flag. Ingestion defaults to on.
func (s *Snapshot) Enabled() bool {
	return s.Bool(KeyEnabled, true)
}

// ThresholdRules collects all configured per-parameter bounds from keys
// of the form threshold.<PARAM>.min / threshold.<PARAM>.max.
func (s *Snapshot) ThresholdRules() map[string]ThresholdRule {
	rules := map[string]ThresholdRule{}
	for key, raw := range s.values {
		if !strings.HasPrefix(key, thresholdKeyPrefix) {
			continue
		}
		rest := strings.TrimPrefix(key, thresholdKeyPrefix)
		var param string
		var isMin bool
		switch {
		case strings.HasSuffix(rest, thresholdMinSuffix):
			param = strings.TrimSuffix(rest, thresholdMinSuffix)
			isMin = true
		case strings.HasSuffix(rest, thresholdMaxSuffix):
			param = strings.TrimSuffix(rest, thresholdMaxSuffix)
		default:
			continue
		}
		bound, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		rule := rules[param]
		rule.ParameterKey = param
		if isMin {
			rule.Min = &bound
		} else {
			rule.Max = &bound
		}
		rules[param] = rule
	}
	return rules
}
