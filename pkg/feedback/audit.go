package feedback

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// AuditLog is an append-only sink for revision records (spec.md §4.6:
// "audit is appended after the truth update is durable"). Implementations
// must never reorder or drop records.
type AuditLog interface {
	Append(ctx context.Context, rec AuditRecord) error
}

// MemoryAuditLog is an in-process AuditLog, useful for tests and for
// embedding CodeGraph as a library without a file-backed log.
type MemoryAuditLog struct {
	mu      sync.Mutex
	records []AuditRecord
}

// NewMemoryAuditLog creates an empty MemoryAuditLog.
func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{}
}

func (l *MemoryAuditLog) Append(_ context.Context, rec AuditRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

// Records returns a snapshot of everything appended so far, in append order.
func (l *MemoryAuditLog) Records() []AuditRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditRecord, len(l.records))
	copy(out, l.records)
	return out
}

// CSVAuditLog appends CSV-like records to an os.File, matching spec.md
// §6's "Append-only feedback log: CSV-like records ordered by at."
type CSVAuditLog struct {
	mu   sync.Mutex
	file *os.File
}

// NewCSVAuditLog opens (creating if necessary) path for append-only writes.
func NewCSVAuditLog(path string) (*CSVAuditLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &CSVAuditLog{file: f}, nil
}

func (l *CSVAuditLog) Append(_ context.Context, rec AuditRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s,%s,%d,%s,%.4f,%.4f,%.4f,%.4f\n",
		rec.At.UTC().Format("2006-01-02T15:04:05.000Z"),
		rec.EntityID,
		rec.Depth,
		rec.EventID,
		rec.PreTruth.F, rec.PreTruth.C,
		rec.PostTruth.F, rec.PostTruth.C,
	)
	_, err := l.file.WriteString(line)
	return err
}

// Close closes the underlying file.
func (l *CSVAuditLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
