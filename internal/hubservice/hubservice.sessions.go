// FilePath: internal/hubservice/hubservice.sessions.go
package hubservice

import (
	"context"
	"time"

	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/models"
	"github.com/gearlog/wican-hub/internal/notify"
	"github.com/gearlog/wican-hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// HandleECUOnline opens a drive session for the vehicle if none is open.
// Duplicate online events are no-ops; a concurrent double-open loses the
// insert race against the open-session unique index and resolves to the
// winner's row.
func (s *HubService) HandleECUOnline(ctx context.Context, vin, deviceID string, at time.Time) (*models.DriveSession, error) {
	session, err := s.Sessions.GetOpenByVIN(ctx, vin)
	if err == nil {
		return session, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	session = &models.DriveSession{
		ID:        nuts.NID("drv", 12),
		VIN:       vin,
		DeviceID:  deviceID,
		StartTime: at,
		CreatedAt: at,
	}
	err = s.Sessions.Create(ctx, session)
	if err == repository.ErrDuplicate {
		return s.Sessions.GetOpenByVIN(ctx, vin)
	}
	if err != nil {
		return nil, err
	}

	nuts.L.Infof("[Sessions] Opened session %s for vin %s (device %s)", session.ID, vin, deviceID)
	return session, nil
}

// HandleECUOffline closes the open session, if any. Idempotent: a
// vehicle already closed stays closed.
func (s *HubService) HandleECUOffline(ctx context.Context, vin string, at time.Time) (*models.DriveSession, error) {
	session, err := s.Sessions.GetOpenByVIN(ctx, vin)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	if err := s.Sessions.Close(ctx, session.ID, at); err != nil {
		// Lost a close race: treat as already closed.
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	session.EndTime = &at
	nuts.L.Infof("[Sessions] Closed session %s for vin %s", session.ID, vin)
	return session, nil
}

// CheckSessionTimeouts force-closes every open session whose owning
// device has been silent longer than the timeout. Covers devices that
// lose power without ever reporting an ECU offline event. Returns the
// sessions closed this way.
func (s *HubService) CheckSessionTimeouts(ctx context.Context, timeout time.Duration) ([]*models.DriveSession, error) {
	now := time.Now()
	stale, err := s.Sessions.ListOpenStale(ctx, now.Add(-timeout))
	if err != nil {
		return nil, err
	}

	closed := []*models.DriveSession{}
	for _, session := range stale {
		if err := s.Sessions.Close(ctx, session.ID, now); err != nil {
			if errors.IsNotFound(err) {
				continue // closed by a racing offline event
			}
			return closed, err
		}
		session.EndTime = &now
		closed = append(closed, session)

		s.Notify.Emit(notify.AlertEvent{
			Name:     notify.EventSessionTimeout,
			VIN:      session.VIN,
			DeviceID: session.DeviceID,
			Message:  "drive session closed by timeout sweep",
		})
	}
	return closed, nil
}

// ListSessions returns the drive-session history of a vehicle.
func (s *HubService) ListSessions(ctx context.Context, vin string, filters models.SessionFilters) ([]*models.DriveSession, error) {
	return s.Sessions.ListByVIN(ctx, vin, filters)
}
