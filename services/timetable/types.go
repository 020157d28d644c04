package timetable

import "time"

// Target is one (course, grade, project) tuple to fetch and parse,
// plus the group label whose sessions we keep from the worksheet.
type Target struct {
	CourseCode string `json:"course_code"`
	Grade      int    `json:"grade"`
	Project    string `json:"project"`
	GroupLabel string `json:"group_label"`
}

type SessionType string

const (
	Lecture          SessionType = "lecture"
	ComputerExercise SessionType = "computer_exercise"
	SeminarExercise  SessionType = "seminar_exercise"
	LabExercise      SessionType = "lab_exercise"
	Other            SessionType = "other"
)

// SessionTypeFromCode maps the worksheet's short codes onto session
// types. Unknown codes are kept as Other rather than dropped, the
// faculty invents new ones without telling anyone.
func SessionTypeFromCode(code string) SessionType {
	switch code {
	case "PR":
		return Lecture
	case "RV":
		return ComputerExercise
	case "SV":
		return SeminarExercise
	case "LV":
		return LabExercise
	default:
		return Other
	}
}

// SessionRecord is one extracted class session, in terms of natural
// keys. Database ids are resolved at persist time.
type SessionRecord struct {
	ClassName  string
	GroupName  string
	Room       string
	Instructor string
	StartAt    time.Time // UTC
	FinishAt   time.Time // UTC
	Type       SessionType
}

// Stats summarizes one worksheet pass for diagnostics.
type Stats struct {
	Sessions            int
	Classes             int
	RowErrors           int
	SkippedNoClass      int
	SkippedUnrecognized int
}
