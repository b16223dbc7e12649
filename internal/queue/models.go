package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an episode in the pipeline.
type Status string

const (
	StatusPending      Status = "pending"
	StatusFetching     Status = "fetching"
	StatusFetched      Status = "fetched"
	StatusTranscribing Status = "transcribing"
	StatusChaptered    Status = "chaptered"
	StatusSkipped      Status = "skipped"
	StatusFailed       Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusFetching,
	StatusFetched,
	StatusTranscribing,
	StatusChaptered,
	StatusSkipped,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// inFlightStatuses are states a crashed run can strand an episode in.
var inFlightStatuses = map[Status]struct{}{
	StatusFetching:     {},
	StatusFetched:      {},
	StatusTranscribing: {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends episode processing.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusChaptered, StatusSkipped, StatusFailed:
		return true
	default:
		return false
	}
}

// IsInFlight reports whether a status reflects an interrupted operation.
func (s Status) IsInFlight() bool {
	_, ok := inFlightStatuses[s]
	return ok
}

// Item represents one episode's persisted pipeline state.
type Item struct {
	ID           int64
	EpisodeKey   string
	Title        string
	Published    time.Time
	AudioURL     string
	AudioPath    string
	Transcript   string
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
}

// Summary aggregates episode counts per lifecycle state.
type Summary struct {
	Total     int
	Pending   int
	InFlight  int
	Chaptered int
	Skipped   int
	Failed    int
}
