package user

// Status is the account lifecycle state. An account holds exactly one.
type Status string

const (
	StatusUnverified Status = "unverified"
	StatusVerified   Status = "verified"
	StatusInactive   Status = "inactive"
	StatusBlocked    Status = "blocked"
	StatusDeleted    Status = "deleted"
)

// SupportedStatuses lists every status in a stable order.
var SupportedStatuses = []Status{
	StatusUnverified,
	StatusVerified,
	StatusInactive,
	StatusBlocked,
	StatusDeleted,
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

func (s Status) String() string {
	return string(s)
}
