package timetable

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"urnik-backend/lib/timezone"
)

// fixed zero-based offsets of a session row after normalization
const (
	colWeekday = iota
	colDate
	colTimeRange
	colRoom
	colType
	colGroups
	colInstructor
)

type ExtractConfig struct {
	// MarkerToken is the first cell of the repeating per-class header
	// row; the row above it carries the class name.
	MarkerToken string `json:"marker_token"`
	// Weekdays are the locale's day names as the export spells them.
	Weekdays []string `json:"weekdays"`
	// DateTimeLayout parses "<date cell> <one side of the time range>".
	DateTimeLayout string `json:"datetime_layout"`
	// FirstDataRow is where scanning starts.
	FirstDataRow int `json:"first_data_row"`
}

func DefaultExtractConfig() ExtractConfig {
	return ExtractConfig{
		MarkerToken: "DAN",
		Weekdays: []string{
			"PONEDELJEK", "TOREK", "SREDA", "ČETRTEK", "PETEK", "SOBOTA", "NEDELJA",
		},
		DateTimeLayout: "2.1.2006 15:04",
		FirstDataRow:   0,
	}
}

func (c ExtractConfig) withDefaults() ExtractConfig {
	def := DefaultExtractConfig()
	if c.MarkerToken == "" {
		c.MarkerToken = def.MarkerToken
	}
	if len(c.Weekdays) == 0 {
		c.Weekdays = def.Weekdays
	}
	if c.DateTimeLayout == "" {
		c.DateTimeLayout = def.DateTimeLayout
	}
	return c
}

type Extractor struct {
	cfg ExtractConfig
}

func NewExtractor(cfg ExtractConfig) Extractor {
	return Extractor{cfg: cfg.withDefaults()}
}

// parse state threaded through one worksheet pass
type parseState struct {
	currentClass string
	stats        Stats
}

// Extract walks a normalized worksheet top to bottom and returns the
// session records relevant to the target's group, plus a tally of what
// was skipped. Row-level problems are logged and counted, they never
// abort the pass; the caller persists the result only once the whole
// sheet has been walked.
func (e Extractor) Extract(ctx context.Context, rows [][]string, target Target) ([]SessionRecord, Stats) {
	var records []SessionRecord
	state := parseState{}

	for i := e.cfg.FirstDataRow; i < len(rows); i++ {
		first := cellAt(rows[i], 0)

		switch {
		case first == e.cfg.MarkerToken:
			name := ""
			if i > 0 {
				name = cellAt(rows[i-1], 0)
			}
			if name == "" {
				slog.WarnContext(ctx, "class header without a name above it", "row", i)
				state.stats.RowErrors++
				// don't let following session rows attach to the
				// previous class block
				state.currentClass = ""
				continue
			}
			state.currentClass = name
			state.stats.Classes++

		case e.isWeekday(first):
			if state.currentClass == "" {
				state.stats.SkippedNoClass++
				continue
			}
			sessions, err := e.parseSessionRow(rows[i], state.currentClass, target)
			if err != nil {
				slog.WarnContext(ctx, "unparseable session row", "row", i, "err", err)
				state.stats.RowErrors++
				continue
			}
			records = append(records, sessions...)
			state.stats.Sessions += len(sessions)

		default:
			state.stats.SkippedUnrecognized++
		}
	}

	return records, state.stats
}

func (e Extractor) isWeekday(cell string) bool {
	for _, day := range e.cfg.Weekdays {
		if strings.EqualFold(cell, day) {
			return true
		}
	}
	return false
}

func (e Extractor) parseSessionRow(row []string, className string, target Target) ([]SessionRecord, error) {
	date := cellAt(row, colDate)
	timeRange := cellAt(row, colTimeRange)
	room := cellAt(row, colRoom)
	typeCode := cellAt(row, colType)
	instructor := cellAt(row, colInstructor)

	if date == "" {
		return nil, fmt.Errorf("missing date")
	}
	if timeRange == "" {
		return nil, fmt.Errorf("missing time range")
	}
	if room == "" {
		return nil, fmt.Errorf("missing room")
	}
	if typeCode == "" {
		return nil, fmt.Errorf("missing type code")
	}
	if instructor == "" {
		return nil, fmt.Errorf("missing instructor")
	}

	startAt, finishAt, err := e.parseTimeRange(date, timeRange)
	if err != nil {
		return nil, err
	}

	sessionType := SessionTypeFromCode(typeCode)
	groups := matchGroups(cellAt(row, colGroups), target.GroupLabel, sessionType)

	records := make([]SessionRecord, 0, len(groups))
	for _, group := range groups {
		records = append(records, SessionRecord{
			ClassName:  className,
			GroupName:  group,
			Room:       room,
			Instructor: instructor,
			StartAt:    startAt,
			FinishAt:   finishAt,
			Type:       sessionType,
		})
	}
	return records, nil
}

func (e Extractor) parseTimeRange(date, timeRange string) (time.Time, time.Time, error) {
	parts := strings.SplitN(timeRange, "-", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("malformed time range %q", timeRange)
	}

	start, err := timezone.ParseLocal(e.cfg.DateTimeLayout, date+" "+strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start of %q: %w", timeRange, err)
	}
	finish, err := timezone.ParseLocal(e.cfg.DateTimeLayout, date+" "+strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("finish of %q: %w", timeRange, err)
	}
	return start, finish, nil
}

// the export delimits the packed group-list cell with commas,
// semicolons and slashes interchangeably
func splitGroupList(field string) []string {
	return strings.FieldsFunc(field, func(r rune) bool {
		return r == ',' || r == ';' || r == '/'
	})
}

// matchGroups filters the group-list cell down to the entries that
// belong to the target label and resolves each entry to the group name
// a session should be stored under. Lectures and seminar exercises are
// scheduled for the whole cohort, so the label itself is the group;
// computer and lab exercises run per sub-group, so the part after the
// VS separator is.
func matchGroups(field, label string, sessionType SessionType) []string {
	var out []string
	for _, entry := range splitGroupList(field) {
		parts := strings.SplitN(entry, "VS", 2)
		head := strings.TrimSpace(parts[0])
		if head != label {
			continue
		}

		sub := ""
		if len(parts) == 2 {
			sub = strings.TrimSpace(parts[1])
		}

		switch sessionType {
		case Lecture, SeminarExercise:
			out = append(out, head)
		default:
			if sub == "" {
				// an exercise entry without a sub-group still belongs
				// to the cohort
				out = append(out, head)
			} else {
				out = append(out, sub)
			}
		}
	}
	return out
}

func cellAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
