package timetable

import (
	"context"
	"log/slog"

	"urnik-backend/lib/bus"
	"urnik-backend/lib/timezone"

	"urnik-backend/services/timetable/db"

	"go.opentelemetry.io/otel/codes"
)

// Parser consumes bus events. A FileUpdated event turns the workbook
// on disk into session rows and swaps them into the database; a
// Fetched event only moves the course's freshness timestamp.
type Parser struct {
	store     Store
	extractor Extractor
}

func NewParser(store Store, extractor Extractor) Parser {
	return Parser{store: store, extractor: extractor}
}

func (p Parser) HandleFileUpdated(ev bus.FileUpdated) {
	ctx, span := tracer.Start(context.Background(), "HandleFileUpdated")
	defer span.End()

	if err := p.parseFile(ctx, ev); err != nil {
		slog.ErrorContext(
			ctx, "failed to parse updated workbook",
			"path", ev.Path,
			"course", ev.CourseCode,
			"grade", ev.Grade,
			"err", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
	}
}

func (p Parser) parseFile(ctx context.Context, ev bus.FileUpdated) error {
	rows, err := ReadWorkbook(ev.Path)
	if err != nil {
		return err
	}
	rows = Normalize(rows, p.extractor.cfg.FirstDataRow)

	target := Target{
		CourseCode: ev.CourseCode,
		Grade:      ev.Grade,
		GroupLabel: ev.GroupLabel,
	}
	records, stats := p.extractor.Extract(ctx, rows, target)

	courseID, err := p.store.EnsureCourse(ctx, ev.CourseCode, ev.Grade, timezone.Now())
	if err != nil {
		return err
	}

	params := make([]db.CreateSessionParams, 0, len(records))
	for _, record := range records {
		classID, err := p.store.EnsureClass(ctx, courseID, record.ClassName)
		if err != nil {
			return err
		}
		roomID, err := p.store.EnsureRoom(ctx, record.Room)
		if err != nil {
			return err
		}
		instructorID, err := p.store.EnsureInstructor(ctx, record.Instructor)
		if err != nil {
			return err
		}
		groupID, err := p.store.EnsureGroup(ctx, courseID, record.GroupName)
		if err != nil {
			return err
		}

		params = append(params, db.CreateSessionParams{
			CourseID:     courseID,
			ClassID:      classID,
			RoomID:       roomID,
			InstructorID: instructorID,
			GroupID:      groupID,
			StartAt:      record.StartAt.Unix(),
			FinishAt:     record.FinishAt.Unix(),
			Kind:         string(record.Type),
		})
	}

	if err := p.store.ReplaceSessions(ctx, courseID, params, timezone.Now()); err != nil {
		return err
	}

	slog.InfoContext(
		ctx, "parsed workbook",
		"course", ev.CourseCode,
		"grade", ev.Grade,
		"sessions", stats.Sessions,
		"classes", stats.Classes,
		"row_errors", stats.RowErrors,
		"skipped_no_class", stats.SkippedNoClass,
		"skipped_unrecognized", stats.SkippedUnrecognized,
	)
	return nil
}

func (p Parser) HandleFetched(ev bus.Fetched) {
	ctx, span := tracer.Start(context.Background(), "HandleFetched")
	defer span.End()

	if _, err := p.store.TouchCourse(ctx, ev.CourseCode, ev.Grade, ev.Timestamp); err != nil {
		slog.ErrorContext(
			ctx, "failed to record fetch timestamp",
			"course", ev.CourseCode,
			"grade", ev.Grade,
			"err", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "touch failed")
	}
}
