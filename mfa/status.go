package mfa

// Status is the login-challenge state of a method.
type Status string

const (
	StatusNotStarted    Status = "notstarted"
	StatusInitialized   Status = "initialized"
	StatusAuthenticated Status = "authenticated"
	StatusFailed        Status = "failed"
	StatusExpired       Status = "expired"
)

// SupportedStatuses lists every status in a stable order.
var SupportedStatuses = []Status{
	StatusNotStarted,
	StatusInitialized,
	StatusAuthenticated,
	StatusFailed,
	StatusExpired,
}

// ParseStatus maps a stored value back to a Status.
func ParseStatus(s string) (Status, error) {
	for _, st := range SupportedStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrUnknownStatus
}
