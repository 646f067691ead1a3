package progress

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// Event is one committed progress milestone: a section completed or a
// retry run started. The log is append-only and readable after an
// offset, so a reporting job can tail it.
type Event struct {
	Offset     int64  `json:"offset"`
	ID         string `json:"id"`
	Type       string `json:"type"` // SectionCompleted | RetryStarted
	LessonID   string `json:"lesson_id"`
	LearnerID  string `json:"learner_id"`
	SectionID  string `json:"section_id"`
	SkillScore int    `json:"skill_score"`
	CreatedAt  int64  `json:"created_at"`
}

const (
	EventSectionCompleted = "SectionCompleted"
	EventRetryStarted     = "RetryStarted"
)

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO progress_events (id, typ, lesson_id, learner_id, section_id, skill_score, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.Type, e.LessonID, e.LearnerID, e.SectionID, e.SkillScore, e.CreatedAt)
	return err
}

func (r *EventRepo) List(ctx context.Context, afterOffset int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT offset_id, id, typ, lesson_id, learner_id, section_id, skill_score, created_at
		 FROM progress_events WHERE offset_id > $1 ORDER BY offset_id ASC LIMIT $2`,
		afterOffset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.ID, &e.Type, &e.LessonID, &e.LearnerID,
			&e.SectionID, &e.SkillScore, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
