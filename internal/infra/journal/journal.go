// Package journal writes the domain event stream as hourly zstd-compressed
// JSONL files.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/velist/gametest/internal/events"
)

const hourLayout = "2006-01-02-15"

// segment is the open file of one hour.
type segment struct {
	hour string
	f    *os.File
	zw   *zstd.Encoder
	bw   *bufio.Writer
	enc  *json.Encoder
}

func openSegment(dir, hour string) (*segment, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, fileName(hour)), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	bw := bufio.NewWriterSize(zw, 16*1024)
	return &segment{hour: hour, f: f, zw: zw, bw: bw, enc: json.NewEncoder(bw)}, nil
}

// write encodes one event and flushes it into a zstd block, so a crash loses
// at most the event in flight.
func (s *segment) write(ev events.GameEvent) error {
	if err := s.enc.Encode(ev); err != nil {
		return err
	}
	if err := s.bw.Flush(); err != nil {
		return err
	}
	return s.zw.Flush()
}

func (s *segment) close() error {
	flushErr := s.bw.Flush()
	closeErr := s.zw.Close()
	_ = s.f.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func fileName(hour string) string {
	return fmt.Sprintf("events-%s.jsonl.zst", hour)
}

// EventJournal appends every domain event to <dir>/events-<UTC hour>.jsonl.zst,
// starting a new file when the hour changes. It implements
// events.EventPersister.
type EventJournal struct {
	dir string
	now func() time.Time

	mu  sync.Mutex
	cur *segment
}

func NewEventJournal(dir string) *EventJournal {
	return &EventJournal{dir: dir, now: time.Now}
}

var _ events.EventPersister = (*EventJournal)(nil)

// Append writes ev to the segment of the current hour.
func (j *EventJournal) Append(ev events.GameEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	hour := j.now().UTC().Format(hourLayout)
	if j.cur == nil || j.cur.hour != hour {
		if err := j.closeLocked(); err != nil {
			return err
		}
		seg, err := openSegment(j.dir, hour)
		if err != nil {
			return fmt.Errorf("open journal segment %s: %w", hour, err)
		}
		j.cur = seg
	}
	return j.cur.write(ev)
}

// Close terminates the open segment.
func (j *EventJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

func (j *EventJournal) closeLocked() error {
	if j.cur == nil {
		return nil
	}
	err := j.cur.close()
	j.cur = nil
	return err
}

// Entry is a journaled event with its payload left undecoded.
type Entry struct {
	ID        string           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Type      events.EventType `json:"type"`
	RunID     string           `json:"run_id"`
	ActorID   string           `json:"actor_id"`
	Payload   json.RawMessage  `json:"payload"`
}

// ReadFile decodes every entry of one journal file.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var out []Entry
	dec := json.NewDecoder(zr)
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return out, fmt.Errorf("%s: entry %d: %w", path, len(out)+1, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Files lists the journal files of dir in chronological order.
func Files(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "events-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Run collects the entries of one run across every journal file of dir.
func Run(dir, runID string) ([]Entry, error) {
	paths, err := Files(dir)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, p := range paths {
		entries, err := ReadFile(p)
		if err != nil {
			return out, err
		}
		for _, e := range entries {
			if e.RunID == runID {
				out = append(out, e)
			}
		}
	}
	return out, nil
}
