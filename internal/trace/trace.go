// Package trace records session event streams as zstd compressed JSON lines
// and reads them back for replay.
package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/cory-johannsen/gridbot/internal/game/event"
)

// Extension is the file suffix of trace files.
const Extension = ".jsonl.zst"

// ErrNoHeader is returned by Read for an empty or headerless trace.
var ErrNoHeader = errors.New("trace has no header line")

// Header is the first line of every trace.
type Header struct {
	Session   string    `json:"session"`
	World     string    `json:"world"`
	Seed      uint64    `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
}

// Writer appends events to a trace. It is safe for concurrent use and
// satisfies event.Sink; Publish failures are kept for Err.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	err error
}

// Create opens path for writing and writes h as the first line.
//
// Postcondition: the caller must Close the Writer.
func Create(path string, h Header) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating trace dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening trace %s: %w", path, err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("starting trace encoder: %w", err)
	}
	tw := &Writer{f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}
	if err := tw.writeLine(h); err != nil {
		_ = tw.Close()
		return nil, err
	}
	return tw, nil
}

// Path returns the trace file name for a session inside dir.
func Path(dir, sessionID string) string {
	return filepath.Join(dir, sessionID+Extension)
}

func (t *Writer) writeLine(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding trace line: %w", err)
	}
	if _, err := t.w.Write(b); err != nil {
		return fmt.Errorf("writing trace line: %w", err)
	}
	return t.w.WriteByte('\n')
}

// Write appends events in order.
func (t *Writer) Write(evs ...event.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.w == nil {
		return fmt.Errorf("trace writer is closed")
	}
	for _, ev := range evs {
		if err := t.writeLine(ev); err != nil {
			return err
		}
	}
	return nil
}

// Publish writes events, remembering the first failure.
func (t *Writer) Publish(evs ...event.Event) {
	if err := t.Write(evs...); err != nil {
		t.mu.Lock()
		if t.err == nil {
			t.err = err
		}
		t.mu.Unlock()
	}
}

// Err returns the first Publish failure.
func (t *Writer) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Close flushes and closes the trace. Calling Close twice is safe.
func (t *Writer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var errs []error
	if t.w != nil {
		errs = append(errs, t.w.Flush())
		t.w = nil
	}
	if t.enc != nil {
		errs = append(errs, t.enc.Close())
		t.enc = nil
	}
	if t.f != nil {
		errs = append(errs, t.f.Close())
		t.f = nil
	}
	return errors.Join(errs...)
}

// Read loads the header and every event of the trace at path.
func Read(path string) (Header, []event.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, fmt.Errorf("opening trace %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a trace stream.
func Decode(r io.Reader) (Header, []event.Event, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return Header{}, nil, fmt.Errorf("starting trace decoder: %w", err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var h Header
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return Header{}, nil, fmt.Errorf("reading trace: %w", err)
		}
		return Header{}, nil, ErrNoHeader
	}
	if err := json.Unmarshal(sc.Bytes(), &h); err != nil {
		return Header{}, nil, fmt.Errorf("trace header: %w", err)
	}

	var evs []event.Event
	line := 1
	for sc.Scan() {
		line++
		ev, err := event.Decode(sc.Bytes())
		if err != nil {
			return h, evs, fmt.Errorf("trace line %d: %w", line, err)
		}
		evs = append(evs, ev)
	}
	if err := sc.Err(); err != nil {
		return h, evs, fmt.Errorf("reading trace: %w", err)
	}
	return h, evs, nil
}
