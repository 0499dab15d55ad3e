package internaldefs

import (
	goIdentity "github.com/MrEthical07/goIdentity"
)

// CounterDef names one Engine counter for exporters.
type CounterDef struct {
	ID   goIdentity.MetricID
	Name string
	Help string
}

// HistogramDef names one Engine histogram for exporters.
type HistogramDef struct {
	ID   goIdentity.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: goIdentity.MetricRegisterSuccess, Name: "identity_register_success_total", Help: "Accounts registered."},
	{ID: goIdentity.MetricRegisterDuplicate, Name: "identity_register_duplicate_total", Help: "Registrations rejected because the email is taken."},
	{ID: goIdentity.MetricLoginSuccess, Name: "identity_login_success_total", Help: "Logins that issued a session."},
	{ID: goIdentity.MetricLoginFailure, Name: "identity_login_failure_total", Help: "Failed login attempts."},
	{ID: goIdentity.MetricLoginBlocked, Name: "identity_login_blocked_total", Help: "Logins refused because the account is blocked."},
	{ID: goIdentity.MetricInvalidCredentials, Name: "identity_invalid_credentials_total", Help: "Password checks that failed."},
	{ID: goIdentity.MetricMFARequired, Name: "identity_mfa_required_total", Help: "Logins paused for a multifactor code."},
	{ID: goIdentity.MetricMFASuccess, Name: "identity_mfa_success_total", Help: "Multifactor confirmations that issued a session."},
	{ID: goIdentity.MetricMFAFailure, Name: "identity_mfa_failure_total", Help: "Rejected multifactor confirmations."},
	{ID: goIdentity.MetricRefreshSuccess, Name: "identity_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: goIdentity.MetricRefreshFailure, Name: "identity_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: goIdentity.MetricRefreshReuseDetected, Name: "identity_refresh_reuse_detected_total", Help: "Replayed refresh tokens that revoked a session."},
	{ID: goIdentity.MetricSessionCreated, Name: "identity_session_created_total", Help: "Sessions created."},
	{ID: goIdentity.MetricSessionInvalidated, Name: "identity_session_invalidated_total", Help: "Sessions revoked by account changes."},
	{ID: goIdentity.MetricLogout, Name: "identity_logout_total", Help: "Single-device logouts."},
	{ID: goIdentity.MetricLogoutAll, Name: "identity_logout_all_total", Help: "Logouts of every device."},
	{ID: goIdentity.MetricVerificationRequest, Name: "identity_verification_request_total", Help: "Verification codes issued."},
	{ID: goIdentity.MetricVerificationSuccess, Name: "identity_verification_success_total", Help: "Accounts verified."},
	{ID: goIdentity.MetricVerificationFailure, Name: "identity_verification_failure_total", Help: "Rejected verification codes."},
	{ID: goIdentity.MetricAccountBlocked, Name: "identity_account_blocked_total", Help: "Accounts blocked after repeated failures."},
	{ID: goIdentity.MetricAccountUnblocked, Name: "identity_account_unblocked_total", Help: "Accounts unblocked."},
	{ID: goIdentity.MetricAccountDeactivated, Name: "identity_account_deactivated_total", Help: "Accounts deactivated."},
	{ID: goIdentity.MetricAccountDeleted, Name: "identity_account_deleted_total", Help: "Accounts deleted."},
	{ID: goIdentity.MetricNotificationFailure, Name: "identity_notification_failure_total", Help: "Codes the notifier failed to deliver."},
	{ID: goIdentity.MetricEventHandlerFailure, Name: "identity_event_handler_failure_total", Help: "Event handlers that returned an error."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goIdentity.MetricValidateLatency, Name: "identity_validate_latency_seconds", Help: "ValidateAccess latency histogram."},
}

// EventsDroppedName is the counter of events discarded by the async sink.
const (
	EventsDroppedName = "identity_events_dropped_total"
	EventsDroppedHelp = "Events discarded by the async sink under backpressure."
)

// Session backend gauges, exported when the source reports health.
const (
	BackendUpName      = "identity_session_backend_up"
	BackendUpHelp      = "Whether the session backend answered its last ping."
	BackendLatencyName = "identity_session_backend_ping_seconds"
	BackendLatencyHelp = "Round trip of the last session backend ping."
)

// HistogramBounds are the upper bounds, in seconds, of the latency buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds in instrument-name form.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
