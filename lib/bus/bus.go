// Package bus carries the events that decouple fetching from parsing.
// A sweep that downloads a byte-identical workbook publishes only
// Fetched; a workbook that actually changed publishes FileUpdated and
// the parser picks it up from there.
package bus

import "time"

type FileUpdated struct {
	Path       string `json:"path"`
	CourseCode string `json:"course_code"`
	Grade      int    `json:"grade"`
	GroupLabel string `json:"group_label"`
}

type Fetched struct {
	Timestamp  time.Time `json:"timestamp"`
	CourseCode string    `json:"course_code"`
	Grade      int       `json:"grade"`
}

// Handler receives events. Implementations must be safe for concurrent
// calls, different courses' events may be delivered at the same time.
type Handler interface {
	HandleFileUpdated(ev FileUpdated)
	HandleFetched(ev Fetched)
}

type Bus interface {
	PublishFileUpdated(ev FileUpdated) error
	PublishFetched(ev Fetched) error
	// Subscribe registers h and returns an unsubscribe func.
	Subscribe(h Handler) (func(), error)
	Close() error
}
