package progress

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lessonlab/practice-engine/internal/practice"
)

// SQLStore keeps one row per lesson+learner in the progress table.
// Writes are whole-record upserts: last writer wins, no field merge.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) Load(ctx context.Context, lessonID, learnerID string) (*practice.ProgressRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM progress WHERE lesson_id=$1 AND learner_id=$2`, lessonID, learnerID)
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return DecodeRecord([]byte(data))
}

func (s *SQLStore) Save(ctx context.Context, lessonID, learnerID string, rec *practice.ProgressRecord) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO progress (lesson_id, learner_id, data, updated_at)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (lesson_id, learner_id) DO UPDATE SET data=EXCLUDED.data, updated_at=EXCLUDED.updated_at`,
		lessonID, learnerID, string(data), time.Now().Unix())
	return err
}
