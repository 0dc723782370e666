package memory

import (
	"context"
	"sync"

	"github.com/hxuan190/donation-engine/internal/domain"
)

// RecordSink collects settlement records in memory. It stands in for the
// journal-backed emitter in tests.
type RecordSink struct {
	mu      sync.Mutex
	records []domain.SettlementRecord
}

func NewRecordSink() *RecordSink {
	return &RecordSink{}
}

func (s *RecordSink) Emit(_ context.Context, rec domain.SettlementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Records returns a snapshot of everything emitted so far.
func (s *RecordSink) Records() []domain.SettlementRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SettlementRecord, len(s.records))
	copy(out, s.records)
	return out
}
