package trace_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/gridbot/internal/game/event"
	"github.com/cory-johannsen/gridbot/internal/trace"
)

func TestWriteRead(t *testing.T) {
	path := trace.Path(filepath.Join(t.TempDir(), "traces"), "abc")
	assert.Equal(t, "abc.jsonl.zst", filepath.Base(path))

	h := trace.Header{Session: "abc", World: "maze", Seed: 7, CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	w, err := trace.Create(path, h)
	require.NoError(t, err)
	require.NoError(t, w.Write(event.New(event.MoveTo, 0, 2, 1), event.New(event.TurnLeft, 0)))
	w.Publish(event.New(event.Halt))
	require.NoError(t, w.Err())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Error(t, w.Write(event.New(event.Halt)))

	gotH, evs, err := trace.Read(path)
	require.NoError(t, err)
	assert.Equal(t, h.Session, gotH.Session)
	assert.Equal(t, h.Seed, gotH.Seed)
	assert.True(t, h.CreatedAt.Equal(gotH.CreatedAt))
	require.Len(t, evs, 3)
	assert.Equal(t, event.MoveTo, evs[0].Name)
	assert.Equal(t, []any{float64(0), float64(2), float64(1)}, evs[0].Params)
	assert.Equal(t, []any{}, evs[2].Params)
}

func TestDecode_Empty(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	_, _, err = trace.Decode(&buf)
	assert.ErrorIs(t, err, trace.ErrNoHeader)
}

func TestDecode_BadLine(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write([]byte("{\"session\":\"s\"}\n{\"method_name\":\"halt\"}\nnot json\n"))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	_, evs, err := trace.Decode(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Len(t, evs, 1)
}

func TestRead_Missing(t *testing.T) {
	_, _, err := trace.Read(filepath.Join(t.TempDir(), "none.jsonl.zst"))
	assert.Error(t, err)
}

// TestProperty_RoundTripPreservesOrder verifies that events come back in the
// order they were written.
func TestProperty_RoundTripPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	names := []event.Name{event.MoveTo, event.TurnLeft, event.AddWall, event.RemoveObject, event.Halt}
	rapid.Check(t, func(rt *rapid.T) {
		picked := rapid.SliceOf(rapid.SampledFrom(names)).Draw(rt, "names")
		path := filepath.Join(dir, "prop"+trace.Extension)
		w, err := trace.Create(path, trace.Header{Session: "p"})
		require.NoError(rt, err)
		for i, n := range picked {
			w.Publish(event.New(n, i))
		}
		require.NoError(rt, w.Close())

		_, evs, err := trace.Read(path)
		require.NoError(rt, err)
		require.Len(rt, evs, len(picked))
		for i, ev := range evs {
			assert.Equal(rt, picked[i], ev.Name)
			raw, _ := json.Marshal(ev.Params)
			assert.Equal(rt, "["+itoa(i)+"]", string(raw))
		}
	})
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
