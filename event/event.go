// Package event carries identity domain events from the aggregates that
// record them to the handlers that react to them.
//
// Aggregates queue events on an embedded [Recorder] while an operation runs.
// The orchestrator drains the queue once the operation has returned and
// publishes it through a [Bus], which invokes subscribed handlers in order
// and mirrors every event to an optional asynchronous [Dispatcher].
package event

// Name identifies an event type.
type Name string

const (
	NameUserStatusChanged           Name = "user.status_changed"
	NameUserBlocked                 Name = "user.blocked"
	NameUserUnblocked               Name = "user.unblocked"
	NameUserAuthenticated           Name = "user.authenticated"
	NameUserInvalidCredentials      Name = "user.invalid_credentials"
	NameMultifactorInitialized      Name = "user.multifactor_initialized"
	NameInitializedUserVerification Name = "user.verification_requested"
)

// Event is a fact recorded by an aggregate.
type Event interface {
	EventName() Name
	AggregateID() string
}

// UserStatusChanged is recorded whenever an account status is replaced.
type UserStatusChanged struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

func (UserStatusChanged) EventName() Name       { return NameUserStatusChanged }
func (e UserStatusChanged) AggregateID() string { return e.UserID }

// UserBlocked is recorded when the login throttle limit blocks an account.
type UserBlocked struct {
	UserID string `json:"user_id"`
}

func (UserBlocked) EventName() Name       { return NameUserBlocked }
func (e UserBlocked) AggregateID() string { return e.UserID }

// UserUnblocked is recorded when a block is lifted.
type UserUnblocked struct {
	UserID string `json:"user_id"`
}

func (UserUnblocked) EventName() Name       { return NameUserUnblocked }
func (e UserUnblocked) AggregateID() string { return e.UserID }

// UserAuthenticated is recorded when a login completes.
type UserAuthenticated struct {
	UserID string `json:"user_id"`
}

func (UserAuthenticated) EventName() Name       { return NameUserAuthenticated }
func (e UserAuthenticated) AggregateID() string { return e.UserID }

// UserInvalidCredentials is recorded when a presented password does not match.
type UserInvalidCredentials struct {
	UserID string `json:"user_id"`
}

func (UserInvalidCredentials) EventName() Name       { return NameUserInvalidCredentials }
func (e UserInvalidCredentials) AggregateID() string { return e.UserID }

// MultifactorInitialized is recorded when a login challenge code was issued
// on a multifactor channel.
type MultifactorInitialized struct {
	UserID        string `json:"user_id"`
	Method        string `json:"method"`
	MultifactorID string `json:"multifactor_id"`
}

func (MultifactorInitialized) EventName() Name       { return NameMultifactorInitialized }
func (e MultifactorInitialized) AggregateID() string { return e.UserID }

// InitializedUserVerification is recorded when an account asked for an
// email verification code. It carries the address, never the code.
type InitializedUserVerification struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (InitializedUserVerification) EventName() Name       { return NameInitializedUserVerification }
func (e InitializedUserVerification) AggregateID() string { return e.UserID }

// Recorder queues events during a single aggregate operation. The zero
// value is ready to use. It is not safe for concurrent use, matching the
// request-scoped lifetime of the aggregates that embed it.
type Recorder struct {
	pending []Event
}

// Record appends e to the queue.
func (r *Recorder) Record(e Event) {
	r.pending = append(r.pending, e)
}

// Pending returns a copy of the queued events without draining them.
func (r *Recorder) Pending() []Event {
	if len(r.pending) == 0 {
		return nil
	}
	return append([]Event(nil), r.pending...)
}

// Pull drains and returns the queued events.
func (r *Recorder) Pull() []Event {
	out := r.pending
	r.pending = nil
	return out
}
