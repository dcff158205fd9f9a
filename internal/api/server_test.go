package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/api"
	"github.com/cory-johannsen/gridbot/internal/game/command"
	"github.com/cory-johannsen/gridbot/internal/game/event"
	"github.com/cory-johannsen/gridbot/internal/game/session"
	"github.com/cory-johannsen/gridbot/internal/game/world"
	"github.com/cory-johannsen/gridbot/internal/grading"
	"github.com/cory-johannsen/gridbot/internal/scripting"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	catalog, err := world.LoadCatalog("testdata", nil)
	require.NoError(t, err)
	logger := zap.NewNop()
	mgr := session.NewManager()
	runner := grading.NewRunner(
		session.NewBuilder(catalog, session.BuilderOptions{}, logger),
		grading.NewMemoryStore(),
		scripting.NewRunner(0, logger),
		command.NewExecutor(command.DefaultRegistry(), logger),
		mgr,
		grading.Options{Seed: 1},
		logger,
	)
	ts := httptest.NewServer(api.NewServer(runner, catalog, mgr, logger))
	t.Cleanup(ts.Close)
	return ts
}

func postRun(t *testing.T, ts *httptest.Server, body string) (*http.Response, api.RunResponse) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/runs", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out api.RunResponse
	if resp.StatusCode == http.StatusCreated {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHealthAndWorlds(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/worlds")
	require.NoError(t, err)
	defer resp.Body.Close()
	var worlds []api.WorldInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&worlds))
	require.Len(t, worlds, 1)
	assert.Equal(t, "line", worlds[0].Name)
}

func TestCreateRunAndFetch(t *testing.T) {
	ts := newTestServer(t)
	resp, run := postRun(t, ts, `{"world":"line","language":"commands","source":"move 3"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, run.Result.Passed)
	require.NotEmpty(t, run.Events)
	assert.Equal(t, event.DrawAll, run.Events[0].Name)

	got, err := http.Get(ts.URL + "/api/runs/" + run.Result.ID)
	require.NoError(t, err)
	defer got.Body.Close()
	require.Equal(t, http.StatusOK, got.StatusCode)
	var res grading.Result
	require.NoError(t, json.NewDecoder(got.Body).Decode(&res))
	assert.Equal(t, run.Result.ID, res.ID)
	assert.True(t, res.Passed)

	list, err := http.Get(ts.URL + "/api/worlds/line/results?limit=5")
	require.NoError(t, err)
	defer list.Body.Close()
	var results []grading.Result
	require.NoError(t, json.NewDecoder(list.Body).Decode(&results))
	assert.Len(t, results, 1)
}

func TestCreateRun_Errors(t *testing.T) {
	ts := newTestServer(t)
	cases := map[string]int{
		`{"world":"line","language":"cobol","source":""}`: http.StatusBadRequest,
		`{"world":"nope","language":"lua","source":""}`:   http.StatusNotFound,
		`{"language":"lua"}`:                              http.StatusBadRequest,
		`{"world":"line","language":"lua","extra":true}`:  http.StatusBadRequest,
		`not json`: http.StatusBadRequest,
	}
	for body, want := range cases {
		resp, _ := postRun(t, ts, body)
		assert.Equal(t, want, resp.StatusCode, body)
	}
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t)
	for path, want := range map[string]int{
		"/api/runs/missing":                http.StatusNotFound,
		"/api/worlds/nope/results":         http.StatusNotFound,
		"/api/worlds/line/results?limit=0": http.StatusBadRequest,
		"/ws":                              http.StatusBadRequest,
		"/ws?run=missing":                  http.StatusNotFound,
	} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, path)
	}
}

func TestStreamReplaysEvents(t *testing.T) {
	ts := newTestServer(t)
	_, run := postRun(t, ts, `{"world":"line","language":"lua","source":"bot.move(3)"}`)
	require.NotEmpty(t, run.Result.ID)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?run=" + run.Result.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var got []event.Event
	for {
		var msg api.StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Done {
			assert.Equal(t, len(run.Events), msg.Seq)
			break
		}
		require.NotNil(t, msg.Event)
		assert.Equal(t, len(got), msg.Seq)
		got = append(got, *msg.Event)
	}
	require.Len(t, got, len(run.Events))
	for i := range got {
		assert.Equal(t, run.Events[i].Name, got[i].Name)
	}
}

func TestCreateRun_BodyTooLarge(t *testing.T) {
	ts := newTestServer(t)
	big := bytes.Repeat([]byte("a"), 2<<20)
	body := `{"world":"line","language":"lua","source":"` + string(big) + `"}`
	resp, _ := postRun(t, ts, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
