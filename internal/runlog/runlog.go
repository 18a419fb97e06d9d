// Package runlog provides the append-only debate transcript: schemaless
// JSONL records routed through a single serialized writer goroutine so
// concurrent phase tasks never contend on, or wait for, log I/O.
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Record is one transcript entry: string keys to serializable values.
type Record map[string]any

// Sink accepts transcript records. Implementations must tolerate
// concurrent Log calls and must never block the caller.
type Sink interface {
	Log(rec Record)
}

// Timestamp returns the current UTC time at second precision, the "ts"
// value carried by every orchestrator record.
func Timestamp() string {
	return time.Now().UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}

// MakeRunID builds a run identifier like "debate-20260823T141530-3fa4b1".
func MakeRunID(prefix string) string {
	ts := time.Now().UTC().Format("20060102T150405")
	tail := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%s-%s-%s", prefix, ts, tail)
}

const defaultQueueSize = 256

// JSONLWriter appends records to a .jsonl file. Writes happen on a
// dedicated goroutine fed by a bounded queue; when the queue is full the
// record is dropped and counted rather than blocking the producer.
type JSONLWriter struct {
	path    string
	file    *os.File
	queue   chan Record
	done    chan struct{}
	dropped atomic.Int64
	logger  *zap.Logger

	closeOnce sync.Once
}

// NewJSONLWriter creates outputDir (if needed) and opens
// outputDir/<runID>.jsonl for appending.
func NewJSONLWriter(outputDir, runID string, logger *zap.Logger) (*JSONLWriter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(outputDir, runID+".jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}

	w := &JSONLWriter{
		path:   path,
		file:   file,
		queue:  make(chan Record, defaultQueueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go w.writeLoop()
	return w, nil
}

// Path returns the log file path.
func (w *JSONLWriter) Path() string {
	return w.path
}

// Log enqueues a record. It never blocks: a saturated queue drops the
// record and increments the drop counter.
func (w *JSONLWriter) Log(rec Record) {
	select {
	case w.queue <- rec:
	default:
		w.dropped.Add(1)
	}
}

// Dropped reports how many records were discarded due to backpressure.
func (w *JSONLWriter) Dropped() int64 {
	return w.dropped.Load()
}

// Close drains the queue, flushes, and closes the file.
func (w *JSONLWriter) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.queue)
		<-w.done
		if n := w.dropped.Load(); n > 0 {
			w.logger.Warn("run log dropped records", zap.Int64("count", n))
		}
		err = w.file.Close()
	})
	return err
}

func (w *JSONLWriter) writeLoop() {
	defer close(w.done)
	enc := json.NewEncoder(w.file)
	for rec := range w.queue {
		if err := enc.Encode(rec); err != nil {
			w.dropped.Add(1)
			w.logger.Warn("failed to write run log record", zap.Error(err))
		}
	}
}

// MemorySink collects records in memory for tests and in-process readers.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

// Log appends the record.
func (s *MemorySink) Log(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

// Records returns a copy of everything logged so far.
func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}
