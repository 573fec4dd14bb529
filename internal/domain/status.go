package domain

// Status is the last known reachability classification of an App.
//
// There are exactly three values. There is no "removed" status:
// removal is a destructive delete, not a state.
type Status string

const (
	// StatusUnknown means the App has never been checked, or the last
	// check hit an ambiguous transport error on a known non-HTTP port.
	StatusUnknown Status = "unknown"

	// StatusOnline means the last check received an HTTP response of
	// any status class (1xx-5xx). Server and client errors are
	// app-is-reachable signals, not failures.
	StatusOnline Status = "online"

	// StatusOffline means the last check was refused, timed out, or
	// failed with an unambiguous transport error.
	StatusOffline Status = "offline"
)

// Valid reports whether s is one of the three enumerated values.
func (s Status) Valid() bool {
	switch s {
	case StatusUnknown, StatusOnline, StatusOffline:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }
