package timetable

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"urnik-backend/services/timetable/db"
)

// Store is the persistence gateway. Reference entities (course, class,
// room, instructor, group) are idempotent insert-or-ignore upserts by
// natural key; the session list for a course is only ever replaced
// wholesale inside one transaction.
type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

func (s Store) EnsureCourse(ctx context.Context, code string, grade int, now time.Time) (int64, error) {
	err := s.qry.CreateCourse(ctx, db.CreateCourseParams{
		Code:        code,
		Grade:       int64(grade),
		LastChecked: now.Unix(),
	})
	if err != nil {
		return 0, err
	}
	return s.qry.GetCourseId(ctx, db.GetCourseIdParams{Code: code, Grade: int64(grade)})
}

// TouchCourse records that a sweep looked at the course without finding
// new data. Sessions are untouched.
func (s Store) TouchCourse(ctx context.Context, code string, grade int, now time.Time) (int64, error) {
	id, err := s.EnsureCourse(ctx, code, grade, now)
	if err != nil {
		return 0, err
	}
	err = s.qry.SetCourseLastChecked(ctx, db.SetCourseLastCheckedParams{
		LastChecked: now.Unix(),
		ID:          id,
	})
	return id, err
}

func (s Store) GetCourse(ctx context.Context, code string, grade int) (db.Course, error) {
	return s.qry.GetCourse(ctx, db.GetCourseParams{Code: code, Grade: int64(grade)})
}

func (s Store) EnsureClass(ctx context.Context, courseID int64, name string) (int64, error) {
	err := s.qry.CreateClass(ctx, db.CreateClassParams{CourseID: courseID, Name: name})
	if err != nil {
		return 0, err
	}
	return s.qry.GetClassId(ctx, db.GetClassIdParams{CourseID: courseID, Name: name})
}

func (s Store) EnsureRoom(ctx context.Context, code string) (int64, error) {
	if err := s.qry.CreateRoom(ctx, code); err != nil {
		return 0, err
	}
	return s.qry.GetRoomId(ctx, code)
}

func (s Store) EnsureInstructor(ctx context.Context, name string) (int64, error) {
	if err := s.qry.CreateInstructor(ctx, name); err != nil {
		return 0, err
	}
	return s.qry.GetInstructorId(ctx, name)
}

func (s Store) EnsureGroup(ctx context.Context, courseID int64, name string) (int64, error) {
	err := s.qry.CreateGroup(ctx, db.CreateGroupParams{CourseID: courseID, Name: name})
	if err != nil {
		return 0, err
	}
	return s.qry.GetGroupId(ctx, db.GetGroupIdParams{CourseID: courseID, Name: name})
}

// ReplaceSessions swaps out every stored session of the course for the
// given list and stamps last_checked, all in one transaction. Any
// failure rolls the whole replacement back, so a reader either sees
// the previous set or the new one, never a partial mix.
func (s Store) ReplaceSessions(ctx context.Context, courseID int64, sessions []db.CreateSessionParams, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	if err := txqry.DeleteSessionsForCourse(ctx, courseID); err != nil {
		return err
	}
	for i, session := range sessions {
		if session.CourseID != courseID {
			return fmt.Errorf("session %d belongs to course %d, not %d", i, session.CourseID, courseID)
		}
		if err := txqry.CreateSession(ctx, session); err != nil {
			return err
		}
	}
	err = txqry.SetCourseLastChecked(ctx, db.SetCourseLastCheckedParams{
		LastChecked: now.Unix(),
		ID:          courseID,
	})
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s Store) SessionsForCourse(ctx context.Context, courseID int64) ([]db.Session, error) {
	return s.qry.GetSessionsForCourse(ctx, courseID)
}
