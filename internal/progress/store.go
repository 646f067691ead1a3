// Package progress persists per-lesson, per-learner practice state as
// one durable JSON blob, last-writer-wins at whole-record granularity.
package progress

import (
	"context"
	"sync"

	"github.com/lessonlab/practice-engine/internal/practice"
)

// Store loads and saves the full ProgressRecord for a lesson+learner
// key. Load returns (nil, nil) when nothing usable is stored: absent,
// corrupt and schema-mismatched blobs all read as absent (the caller
// rebuilds defaults).
type Store interface {
	Load(ctx context.Context, lessonID, learnerID string) (*practice.ProgressRecord, error)
	Save(ctx context.Context, lessonID, learnerID string, rec *practice.ProgressRecord) error
}

type memoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore is used by tests and by dev setups with no DB.
func NewMemoryStore() Store {
	return &memoryStore{blobs: map[string][]byte{}}
}

func blobKey(lessonID, learnerID string) string { return lessonID + "|" + learnerID }

func (m *memoryStore) Load(_ context.Context, lessonID, learnerID string) (*practice.ProgressRecord, error) {
	m.mu.RLock()
	data, ok := m.blobs[blobKey(lessonID, learnerID)]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return DecodeRecord(data)
}

func (m *memoryStore) Save(_ context.Context, lessonID, learnerID string, rec *practice.ProgressRecord) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.blobs[blobKey(lessonID, learnerID)] = data
	m.mu.Unlock()
	return nil
}
