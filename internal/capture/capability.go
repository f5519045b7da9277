package capture

import (
	"context"

	"github.com/tradeos/fieldsync/internal/apperrors"
)

// CapabilityState is the outcome of probing a device capability.
type CapabilityState string

const (
	CapabilityGranted     CapabilityState = "granted"
	CapabilityDenied      CapabilityState = "denied"
	CapabilityUnavailable CapabilityState = "unavailable"
)

// Prober negotiates device capabilities with the platform. The
// concrete probe (browser permission API, OS entitlement check) is an
// external collaborator.
type Prober interface {
	Camera(ctx context.Context) CapabilityState
	Location(ctx context.Context) CapabilityState
}

// SelectSource picks the live camera source when the camera
// capability is granted and otherwise falls back to the file picker.
// Both converge on the same Photo shape downstream.
func SelectSource(ctx context.Context, p Prober, live, fallback FrameSource) (FrameSource, error) {
	if p.Camera(ctx) == CapabilityGranted && live != nil {
		return live, nil
	}
	if fallback == nil {
		return nil, apperrors.New(apperrors.ErrNoCapability, "no camera access and no file fallback")
	}
	return fallback, nil
}
