// FilePath: internal/hubservice/hubservice.auth.go
package hubservice

import (
	"context"
	"crypto/subtle"

	"github.com/gearlog/wican-hub/internal/errors"
	"github.com/gearlog/wican-hub/internal/models"
)

// ValidateToken authorizes a bearer token. When a device id is supplied
// and the device carries its own token, that token is checked first and
// overrides the global one, so mixed fleets can rotate per-device
// credentials. Without a device id, a token owned by any known device
// passes. The global token is the fallback. Fails closed: no match
// means a 401-shaped auth error, and the error never says which check
// failed.
func (s *HubService) ValidateToken(ctx context.Context, token, deviceID string) error {
	if token == "" {
		return errors.NewAuthError("invalid or missing token", nil)
	}

	if deviceID != "" {
		device, err := s.Devices.Get(ctx, deviceID)
		if err == nil && device.DeviceToken != "" {
			if tokenEqual(token, device.DeviceToken) {
				return nil
			}
		}
		// Unknown device or no per-device token: fall through to the
		// global check so first-contact auto-discovery still works.
	} else if _, err := s.Devices.GetByToken(ctx, token); err == nil {
		// Telemetry-only payloads carry no device id. A token any
		// known device owns authorizes them; resolution to the actual
		// sender happens later in the ingest flow.
		return nil
	}

	if tokenEqual(token, s.globalToken) {
		return nil
	}
	return errors.NewAuthError("invalid or missing token", nil)
}

// ResolveDeviceByToken maps a bearer token to the most recently active
// device owning it. Used for telemetry-only payloads without a status
// block.
func (s *HubService) ResolveDeviceByToken(ctx context.Context, token string) (*models.Device, error) {
	device, err := s.Devices.GetByToken(ctx, token)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewUnresolvedDeviceError(
				"no device known for this token; send a status payload first", err)
		}
		return nil, err
	}
	return device, nil
}

func tokenEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
