// FilePath: internal/hubservice/hubservice_test.go
package hubservice

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/gearlog/wican-hub/internal/database"
	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/models"
	"github.com/gearlog/wican-hub/internal/notify"
	"github.com/gearlog/wican-hub/internal/repository"
	"github.com/gearlog/wican-hub/internal/settings"
)

// In-memory fakes mirroring the postgres repositories' error contract:
// lookups miss with a not-found API error, unique-constraint violations
// surface as repository.ErrDuplicate.

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }
func (fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

type fakeDeviceRepo struct {
	devices map[string]*models.Device
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: map[string]*models.Device{}}
}

func (r *fakeDeviceRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return fakeTx{}, nil
}

func (r *fakeDeviceRepo) Create(ctx context.Context, device *models.Device) error {
	if _, ok := r.devices[device.DeviceID]; ok {
		return repository.ErrDuplicate
	}
	copied := *device
	r.devices[device.DeviceID] = &copied
	return nil
}

func (r *fakeDeviceRepo) Get(ctx context.Context, deviceID string) (*models.Device, error) {
	device, ok := r.devices[deviceID]
	if !ok {
		return nil, errors.NewNotFoundError("device not found", nil)
	}
	copied := *device
	return &copied, nil
}

func (r *fakeDeviceRepo) GetByToken(ctx context.Context, token string) (*models.Device, error) {
	var newest *models.Device
	for _, device := range r.devices {
		if device.DeviceToken == "" || device.DeviceToken != token {
			continue
		}
		if newest == nil || device.LastSeen.After(newest.LastSeen) {
			newest = device
		}
	}
	if newest == nil {
		return nil, errors.NewNotFoundError("no device owns this token", nil)
	}
	copied := *newest
	return &copied, nil
}

func (r *fakeDeviceRepo) UpdateStatus(ctx context.Context, device *models.Device) error {
	stored, ok := r.devices[device.DeviceID]
	if !ok {
		return errors.NewNotFoundError("device not found", nil)
	}
	vin, token := stored.VIN, stored.DeviceToken
	copied := *device
	copied.VIN = vin
	copied.DeviceToken = token
	r.devices[device.DeviceID] = &copied
	return nil
}

func (r *fakeDeviceRepo) TouchHeartbeat(ctx context.Context, deviceID string, seenAt time.Time) error {
	device, ok := r.devices[deviceID]
	if !ok {
		return errors.NewNotFoundError("device not found", nil)
	}
	device.LastSeen = seenAt
	device.DeviceStatus = models.StateOnline
	return nil
}

func (r *fakeDeviceRepo) SetVIN(ctx context.Context, deviceID string, vin *string) error {
	device, ok := r.devices[deviceID]
	if !ok {
		return errors.NewNotFoundError("device not found", nil)
	}
	device.VIN = vin
	return nil
}

func (r *fakeDeviceRepo) List(ctx context.Context, offset, limit int) ([]*models.Device, error) {
	all := []*models.Device{}
	for _, device := range r.devices {
		copied := *device
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LastSeen.After(all[j].LastSeen) })
	if offset >= len(all) {
		return []*models.Device{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeDeviceRepo) MarkOfflineOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Device, error) {
	flipped := []*models.Device{}
	for _, device := range r.devices {
		if device.DeviceStatus == models.StateOnline && device.LastSeen.Before(cutoff) {
			device.DeviceStatus = models.StateOffline
			copied := *device
			flipped = append(flipped, &copied)
		}
	}
	return flipped, nil
}

type fakeVehicleRepo struct {
	vehicles map[string]*models.Vehicle
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: map[string]*models.Vehicle{}}
}

func (r *fakeVehicleRepo) GetByVIN(ctx context.Context, vin string) (*models.Vehicle, error) {
	vehicle, ok := r.vehicles[vin]
	if !ok {
		return nil, errors.NewNotFoundError("vehicle not found", nil)
	}
	return vehicle, nil
}

type fakeSessionRepo struct {
	sessions map[string]*models.DriveSession
	devices  *fakeDeviceRepo

	// beforeCreate runs at the top of Create; tests use it to slip a
	// concurrent writer in between the open-session lookup and the insert.
	beforeCreate func(*models.DriveSession)
}

func newFakeSessionRepo(devices *fakeDeviceRepo) *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*models.DriveSession{}, devices: devices}
}

func (r *fakeSessionRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return fakeTx{}, nil
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *models.DriveSession) error {
	if r.beforeCreate != nil {
		r.beforeCreate(session)
	}
	for _, existing := range r.sessions {
		if existing.VIN == session.VIN && existing.EndTime == nil {
			return repository.ErrDuplicate
		}
	}
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) GetOpenByVIN(ctx context.Context, vin string) (*models.DriveSession, error) {
	for _, session := range r.sessions {
		if session.VIN == vin && session.EndTime == nil {
			copied := *session
			return &copied, nil
		}
	}
	return nil, errors.NewNotFoundError("no open session", nil)
}

func (r *fakeSessionRepo) Close(ctx context.Context, id string, endTime time.Time) error {
	session, ok := r.sessions[id]
	if !ok || session.EndTime != nil {
		return errors.NewNotFoundError("open session not found", nil)
	}
	t := endTime
	session.EndTime = &t
	return nil
}

func (r *fakeSessionRepo) ListByVIN(ctx context.Context, vin string, filters models.SessionFilters) ([]*models.DriveSession, error) {
	result := []*models.DriveSession{}
	for _, session := range r.sessions {
		if session.VIN != vin {
			continue
		}
		if filters.OpenOnly && session.EndTime != nil {
			continue
		}
		copied := *session
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.After(result[j].StartTime) })
	return result, nil
}

func (r *fakeSessionRepo) ListOpenStale(ctx context.Context, cutoff time.Time) ([]*models.DriveSession, error) {
	stale := []*models.DriveSession{}
	for _, session := range r.sessions {
		if session.EndTime != nil {
			continue
		}
		device, ok := r.devices.devices[session.DeviceID]
		if !ok || !device.LastSeen.Before(cutoff) {
			continue
		}
		copied := *session
		stale = append(stale, &copied)
	}
	return stale, nil
}

type fakeTelemetryRepo struct {
	readings  []*models.TelemetryReading
	summaries []*models.TelemetryDailySummary

	// lastCtx records the context of the most recent insert so tests can
	// assert writes run inside the ingest transaction.
	lastCtx context.Context
}

func newFakeTelemetryRepo() *fakeTelemetryRepo {
	return &fakeTelemetryRepo{}
}

func (r *fakeTelemetryRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return fakeTx{}, nil
}

func (r *fakeTelemetryRepo) InsertReading(ctx context.Context, reading *models.TelemetryReading) error {
	r.lastCtx = ctx
	copied := *reading
	r.readings = append(r.readings, &copied)
	return nil
}

func (r *fakeTelemetryRepo) ListReadings(ctx context.Context, vin string, filters models.ReadingFilters) ([]*models.TelemetryReading, error) {
	result := []*models.TelemetryReading{}
	for _, reading := range r.readings {
		if reading.VIN != vin {
			continue
		}
		if filters.ParameterKey != "" && reading.ParameterKey != filters.ParameterKey {
			continue
		}
		copied := *reading
		result = append(result, &copied)
	}
	return result, nil
}

func (r *fakeTelemetryRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	kept := []*models.TelemetryReading{}
	var deleted int64
	for _, reading := range r.readings {
		if reading.Timestamp.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, reading)
	}
	r.readings = kept
	return deleted, nil
}

func (r *fakeTelemetryRepo) UpsertDailySummaries(ctx context.Context, day time.Time) (int64, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	type bucket struct {
		min, max, sum float64
		count         int
	}
	type key struct{ vin, param string }
	buckets := map[key]*bucket{}
	for _, reading := range r.readings {
		if reading.ValueText != nil {
			continue
		}
		ts := reading.Timestamp.UTC()
		if ts.Before(dayStart) || !ts.Before(dayStart.AddDate(0, 0, 1)) {
			continue
		}
		k := key{reading.VIN, reading.ParameterKey}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{min: reading.Value, max: reading.Value}
			buckets[k] = b
		}
		if reading.Value < b.min {
			b.min = reading.Value
		}
		if reading.Value > b.max {
			b.max = reading.Value
		}
		b.sum += reading.Value
		b.count++
	}

	kept := r.summaries[:0]
	for _, summary := range r.summaries {
		if !summary.Day.Equal(dayStart) {
			kept = append(kept, summary)
		}
	}
	r.summaries = kept
	for k, b := range buckets {
		r.summaries = append(r.summaries, &models.TelemetryDailySummary{
			ID:           dayStart.Format("2006-01-02") + "_" + k.vin + "_" + k.param,
			VIN:          k.vin,
			ParameterKey: k.param,
			Day:          dayStart,
			MinValue:     b.min,
			MaxValue:     b.max,
			AvgValue:     b.sum / float64(b.count),
			ReadingCount: b.count,
		})
	}
	return int64(len(buckets)), nil
}

func (r *fakeTelemetryRepo) ListSummaries(ctx context.Context, vin string, filters models.SummaryFilters) ([]*models.TelemetryDailySummary, error) {
	result := []*models.TelemetryDailySummary{}
	for _, summary := range r.summaries {
		if summary.VIN != vin {
			continue
		}
		if filters.ParameterKey != "" && summary.ParameterKey != filters.ParameterKey {
			continue
		}
		copied := *summary
		result = append(result, &copied)
	}
	return result, nil
}

type fakeDTCRepo struct {
	dtcs        map[string]*models.VehicleDTC
	definitions map[string]*models.DTCDefinition

	// beforeCreate runs at the top of Create, mirroring the session fake.
	beforeCreate func(*models.VehicleDTC)
}

func newFakeDTCRepo() *fakeDTCRepo {
	return &fakeDTCRepo{
		dtcs:        map[string]*models.VehicleDTC{},
		definitions: map[string]*models.DTCDefinition{},
	}
}

func (r *fakeDTCRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return fakeTx{}, nil
}

func (r *fakeDTCRepo) Get(ctx context.Context, id string) (*models.VehicleDTC, error) {
	dtc, ok := r.dtcs[id]
	if !ok {
		return nil, errors.NewNotFoundError("trouble code not found", nil)
	}
	copied := *dtc
	return &copied, nil
}

func (r *fakeDTCRepo) GetActive(ctx context.Context, vin, code string) (*models.VehicleDTC, error) {
	for _, dtc := range r.dtcs {
		if dtc.VIN == vin && dtc.Code == code && dtc.IsActive {
			copied := *dtc
			return &copied, nil
		}
	}
	return nil, errors.NewNotFoundError("no active record", nil)
}

func (r *fakeDTCRepo) Create(ctx context.Context, dtc *models.VehicleDTC) error {
	if r.beforeCreate != nil {
		r.beforeCreate(dtc)
	}
	for _, existing := range r.dtcs {
		if existing.VIN == dtc.VIN && existing.Code == dtc.Code && existing.IsActive {
			return repository.ErrDuplicate
		}
	}
	copied := *dtc
	r.dtcs[dtc.ID] = &copied
	return nil
}

func (r *fakeDTCRepo) Touch(ctx context.Context, id string, seenAt time.Time) error {
	dtc, ok := r.dtcs[id]
	if !ok {
		return errors.NewNotFoundError("trouble code not found", nil)
	}
	dtc.LastSeen = seenAt
	dtc.IsActive = true
	dtc.ClearedAt = nil
	return nil
}

func (r *fakeDTCRepo) Clear(ctx context.Context, id string, clearedAt time.Time, notes string) error {
	dtc, ok := r.dtcs[id]
	if !ok || !dtc.IsActive {
		return errors.NewNotFoundError("active trouble code not found", nil)
	}
	t := clearedAt
	dtc.ClearedAt = &t
	dtc.IsActive = false
	if notes != "" {
		dtc.UserNotes = notes
	}
	return nil
}

func (r *fakeDTCRepo) ListByVIN(ctx context.Context, vin string, activeOnly bool) ([]*models.VehicleDTC, error) {
	result := []*models.VehicleDTC{}
	for _, dtc := range r.dtcs {
		if dtc.VIN != vin {
			continue
		}
		if activeOnly && !dtc.IsActive {
			continue
		}
		copied := *dtc
		result = append(result, &copied)
	}
	return result, nil
}

func (r *fakeDTCRepo) GetDefinition(ctx context.Context, code string) (*models.DTCDefinition, error) {
	def, ok := r.definitions[code]
	if !ok {
		return nil, errors.NewNotFoundError("unknown trouble code", nil)
	}
	return def, nil
}

func (r *fakeDTCRepo) SearchDefinitions(ctx context.Context, query string, limit int) ([]*models.DTCDefinition, error) {
	result := []*models.DTCDefinition{}
	for _, def := range r.definitions {
		result = append(result, def)
	}
	return result, nil
}

type fakeSettingsRepo struct {
	values map[string]string
	err    error
}

func (r *fakeSettingsRepo) GetAll(ctx context.Context) (map[string]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.values, nil
}

// testEnv bundles a wired service with its fakes for state assertions.
type testEnv struct {
	svc       *HubService
	devices   *fakeDeviceRepo
	vehicles  *fakeVehicleRepo
	sessions  *fakeSessionRepo
	telemetry *fakeTelemetryRepo
	dtcs      *fakeDTCRepo
	settings  *fakeSettingsRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	devices := newFakeDeviceRepo()
	env := &testEnv{
		devices:   devices,
		vehicles:  newFakeVehicleRepo(),
		sessions:  newFakeSessionRepo(devices),
		telemetry: newFakeTelemetryRepo(),
		dtcs:      newFakeDTCRepo(),
		settings:  &fakeSettingsRepo{values: map[string]string{}},
	}
	env.svc = New(
		env.devices, env.vehicles, env.sessions, env.telemetry, env.dtcs,
		settings.NewLoader(env.settings),
		notify.NewDispatcher(),
		nil,
		"global-secret",
	)
	return env
}

func (e *testEnv) addVehicle(vin string) {
	e.vehicles.vehicles[vin] = &models.Vehicle{VIN: vin, DisplayName: "test " + vin}
}

func (e *testEnv) addDevice(deviceID string, vin *string) *models.Device {
	device := &models.Device{
		DeviceID:     deviceID,
		DeviceStatus: models.StateOnline,
		VIN:          vin,
		Enabled:      true,
		LastSeen:     time.Now(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	e.devices.devices[deviceID] = device
	return device
}
