package goIdentity

import (
	"context"

	"github.com/MrEthical07/goIdentity/fingerprint"
)

// Device is the client context a session is bound to.
type Device = fingerprint.Device

// WithDevice attaches the caller's device to ctx. Every session operation
// (Login, ConfirmMultifactor, Refresh, Logout) keys the session by this
// device; a context without one is rejected with fingerprint.ErrNoDevice.
func WithDevice(ctx context.Context, d Device) context.Context {
	return fingerprint.WithDevice(ctx, d)
}

// WithClient is shorthand for WithDevice from the usual HTTP inputs.
func WithClient(ctx context.Context, ip, userAgent, platform string) context.Context {
	return fingerprint.WithDevice(ctx, Device{IP: ip, UserAgent: userAgent, Platform: platform})
}

// DeviceFromContext returns the device attached with WithDevice.
func DeviceFromContext(ctx context.Context) (Device, bool) {
	return fingerprint.FromContext(ctx)
}
