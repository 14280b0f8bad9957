package watcher

import "time"

// EventType represents the type of file system event
type EventType int

const (
	// EventReady is emitted once a new or rewritten file has settled
	EventReady EventType = iota
	// EventRemoved is emitted when a file is deleted
	EventRemoved
)

// String returns the string representation of the event type
func (t EventType) String() string {
	switch t {
	case EventReady:
		return "ready"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event represents a file system event
type Event struct {
	Type    EventType
	Path    string
	Size    int64
	ModTime time.Time
}
