package runlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampFormat(t *testing.T) {
	ts := Timestamp()
	// UTC, second precision, trailing Z, no fractional seconds.
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`), ts)
}

func TestMakeRunID(t *testing.T) {
	id := MakeRunID("debate")
	assert.Regexp(t, regexp.MustCompile(`^debate-\d{8}T\d{6}-[0-9a-f]{6}$`), id)
	assert.NotEqual(t, id, MakeRunID("debate"))
}

func TestJSONLWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewJSONLWriter(dir, "run-test", nil)
	require.NoError(t, err)

	w.Log(Record{"event": "start", "rounds": 2})
	w.Log(Record{"phase": "propose", "agent": "A", "text": "hello"})
	require.NoError(t, w.Close())

	f, err := os.Open(w.Path())
	require.NoError(t, err)
	defer f.Close()

	var lines []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		lines = append(lines, rec)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, lines, 2)
	assert.Equal(t, "start", lines[0]["event"])
	assert.Equal(t, float64(2), lines[0]["rounds"])
	assert.Equal(t, "propose", lines[1]["phase"])
	assert.Equal(t, "A", lines[1]["agent"])
	assert.Zero(t, w.Dropped())
}

func TestJSONLWriterConcurrentAppends(t *testing.T) {
	w, err := NewJSONLWriter(t.TempDir(), "run-conc", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w.Log(Record{"n": n})
		}(i)
	}
	wg.Wait()
	require.NoError(t, w.Close())

	data, err := os.ReadFile(w.Path())
	require.NoError(t, err)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	count := 0
	for scanner.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		count++
	}
	assert.Equal(t, 50, count)
}

func TestJSONLWriterCloseIdempotent(t *testing.T) {
	w, err := NewJSONLWriter(t.TempDir(), "run-close", nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestJSONLWriterDropsWhenSaturated(t *testing.T) {
	// A writer with no consumer and a full queue must drop, not block.
	w := &JSONLWriter{queue: make(chan Record, 1)}

	w.Log(Record{"n": 1})
	w.Log(Record{"n": 2})
	w.Log(Record{"n": 3})

	assert.Equal(t, int64(2), w.Dropped())
}

func TestMemorySink(t *testing.T) {
	s := &MemorySink{}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Log(Record{"n": n})
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Records(), 20)
}
