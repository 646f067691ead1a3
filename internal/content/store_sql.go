package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// SQLStore keeps lessons in a single table with the section tree as a
// JSON blob, same scheme the rest of the service uses for progress.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutLesson(ctx context.Context, l Lesson) error {
	if l.ID == "" {
		return errors.New("lesson id required")
	}
	sj, err := json.Marshal(l.Sections)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO lessons (id,title,sections_json,created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, sections_json=EXCLUDED.sections_json`,
		l.ID, l.Title, string(sj), time.Now().Unix())
	return err
}

func (s *SQLStore) Lesson(ctx context.Context, id string) (Lesson, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,sections_json,created_at FROM lessons WHERE id=$1`, id)
	var l Lesson
	var sj string
	if err := row.Scan(&l.ID, &l.Title, &sj, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lesson{}, ErrNotFound
		}
		return Lesson{}, err
	}
	if err := json.Unmarshal([]byte(sj), &l.Sections); err != nil {
		return Lesson{}, err
	}
	return l, nil
}

func (s *SQLStore) Section(ctx context.Context, lessonID, sectionID string) (Section, error) {
	l, err := s.Lesson(ctx, lessonID)
	if err != nil {
		return Section{}, err
	}
	sec, ok := l.SectionByID(sectionID)
	if !ok {
		return Section{}, errors.New("section not found")
	}
	return sec, nil
}

func (s *SQLStore) ListLessons(ctx context.Context, opts ListOpts) ([]LessonSummary, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := "%" + opts.Q + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,title,sections_json FROM lessons WHERE ($1='%%' OR title LIKE $1 OR id LIKE $1)
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, q, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LessonSummary{}
	for rows.Next() {
		var sum LessonSummary
		var sj string
		if err := rows.Scan(&sum.ID, &sum.Title, &sj); err != nil {
			return nil, err
		}
		var secs []Section
		if err := json.Unmarshal([]byte(sj), &secs); err == nil {
			sum.Sections = len(secs)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
