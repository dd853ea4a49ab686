package match

// Status is the lifecycle state of a fixture.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusFinished  Status = "finished"
	StatusPostponed Status = "postponed"
	StatusCancelled Status = "cancelled"
	StatusUnknown   Status = "unknown"
)

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{StatusLive, StatusScheduled, StatusFinished, StatusPostponed, StatusCancelled, StatusUnknown}
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusFinished, StatusPostponed, StatusCancelled, StatusUnknown:
		return true
	default:
		return false
	}
}

// ParseStatus accepts a stored or user supplied status; ok is false for anything else.
func ParseStatus(value string) (Status, bool) {
	s := Status(value)
	return s, s.Valid()
}
