package main

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/app"
	"github.com/cory-johannsen/gridbot/internal/config"
	"github.com/cory-johannsen/gridbot/internal/game/command"
	"github.com/cory-johannsen/gridbot/internal/game/event"
	"github.com/cory-johannsen/gridbot/internal/grading"
	"github.com/cory-johannsen/gridbot/internal/trace"
	"github.com/cory-johannsen/gridbot/internal/worldschema"
)

func TestLanguageFor(t *testing.T) {
	lang, err := languageFor("", "prog.lua")
	require.NoError(t, err)
	assert.Equal(t, grading.LanguageLua, lang)

	lang, err = languageFor("", "prog.txt")
	require.NoError(t, err)
	assert.Equal(t, grading.LanguageCommands, lang)

	lang, err = languageFor("LUA", "prog.txt")
	require.NoError(t, err)
	assert.Equal(t, grading.LanguageLua, lang)

	_, err = languageFor("basic", "prog.bas")
	assert.ErrorIs(t, err, grading.ErrUnknownLanguage)
}

func TestValidateFile(t *testing.T) {
	v := worldschema.MustNew()
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"rows": 2, "cols": 2, "robots": [{"x": 1, "y": 1}]}`), 0o644))
	assert.NoError(t, validateFile(v, good))

	badSchema := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badSchema, []byte(`{"rows": 2}`), 0o644))
	assert.ErrorIs(t, validateFile(v, badSchema), worldschema.ErrInvalid)

	assert.Error(t, validateFile(v, filepath.Join(dir, "absent.json")))
}

func TestWriteReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run"+trace.Extension)
	w, err := trace.Create(path, trace.Header{Session: "s", World: "line", Seed: 4, CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, w.Write(event.New(event.DrawAll), event.New(event.MoveTo, 0, 2, 1)))
	require.NoError(t, w.Close())

	h, evs, err := trace.Read(path)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, writeReplay(&buf, h, evs))

	var lines []string
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"world":"line"`)
	assert.JSONEq(t, `{"method_name":"move_to","params":[0,2,1]}`, lines[2])
}

// TestShippedExamplesPass runs the example programs against the shipped
// worlds with schema validation on.
func TestWriteCommandHelp(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCommandHelp(&buf, command.DefaultRegistry()))
	out := buf.String()
	assert.Less(t, strings.Index(out, "display:"), strings.Index(out, "movement:"))
	assert.Contains(t, out, "move [steps]")
	assert.Contains(t, out, "(forward, fd)")
	assert.Contains(t, out, "system:\n  check")
}

func TestShippedExamplesPass(t *testing.T) {
	v := config.NewViper()
	v.Set("worlds.dir", "../../worlds")
	cfg, err := config.LoadFromViper(v)
	require.NoError(t, err)
	a, err := app.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, []string{"first_steps", "flag_maze", "harvest"}, a.Catalog.Names())

	for world, program := range map[string]string{
		"first_steps": "../../examples/first_steps.lua",
		"harvest":     "../../examples/harvest.txt",
	} {
		src, err := os.ReadFile(program)
		require.NoError(t, err)
		lang, err := languageFor("", program)
		require.NoError(t, err)
		run, err := a.Runner.Run(context.Background(), grading.Request{World: world, Language: lang, Source: string(src)})
		require.NoError(t, err, world)
		assert.True(t, run.Result.Passed, "%s: %+v", world, run.Result.Goals)
		assert.Empty(t, run.Result.ProgramError, world)
	}
}
