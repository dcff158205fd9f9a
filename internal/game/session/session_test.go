package session_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/game/dice"
	"github.com/cory-johannsen/gridbot/internal/game/event"
	"github.com/cory-johannsen/gridbot/internal/game/grid"
	"github.com/cory-johannsen/gridbot/internal/game/robot"
	"github.com/cory-johannsen/gridbot/internal/game/session"
	"github.com/cory-johannsen/gridbot/internal/game/world"
)

func lineWorld(t *testing.T, opts world.Options) *world.World {
	w := world.New(opts, zap.NewNop())
	w.SetDimensions(1, 3)
	_, err := w.AddRobot(1, 1, grid.East, "")
	require.NoError(t, err)
	w.AddPositionGoal(3, 1)
	return w
}

func move(n int) session.Action {
	return func(r *robot.Robot) ([]event.Event, error) { return r.Move(n) }
}

func TestBridge_Push(t *testing.T) {
	b := session.NewBridge("viewer", 4)
	require.NoError(t, b.Push(event.New(event.Halt)))
	ev := <-b.Events()
	assert.Equal(t, event.Halt, ev.Name)
	assert.Equal(t, "viewer", b.ID())
}

func TestBridge_PushClosed(t *testing.T) {
	b := session.NewBridge("viewer", 4)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.True(t, b.IsClosed())
	assert.Error(t, b.Push(event.New(event.Halt)))
}

func TestBridge_PushFull(t *testing.T) {
	b := session.NewBridge("viewer", 1)
	require.NoError(t, b.Push(event.New(event.Halt)))
	err := b.Push(event.New(event.Halt))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "buffer full")
}

func TestNew_RecordsDrawAll(t *testing.T) {
	s, err := session.New("line", lineWorld(t, world.Options{}), zap.NewNop())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 1, s.RobotCount())
	evs := s.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, event.DrawAll, evs[0].Name)
}

func TestAct_RecordsAndForwards(t *testing.T) {
	s, err := session.New("line", lineWorld(t, world.Options{}), zap.NewNop())
	require.NoError(t, err)
	b := session.NewBridge("viewer", 8)
	s.Attach(b)

	require.NoError(t, s.Act(0, move(2)))
	err = s.Act(0, move(1))
	assert.ErrorIs(t, err, robot.ErrWallCollision)

	evs := s.Events()
	require.Len(t, evs, 3)
	assert.Equal(t, event.New(event.MoveTo, 0, 3, 1), evs[1])
	assert.Equal(t, event.New(event.MoveTo, 0, 3, 1), evs[2])

	assert.Equal(t, event.MoveTo, (<-b.Events()).Name)
	assert.Equal(t, event.MoveTo, (<-b.Events()).Name)

	assert.Error(t, s.Act(3, move(1)))
}

func TestCheck_EmitsVerdict(t *testing.T) {
	s, err := session.New("line", lineWorld(t, world.Options{}), zap.NewNop())
	require.NoError(t, err)
	_, ok := s.Verdict()
	assert.False(t, ok)

	require.NoError(t, s.Act(0, move(2)))
	res, err := s.Check(0)
	require.NoError(t, err)
	assert.True(t, res.Passed)
	evs := s.Events()
	assert.Equal(t, event.New(event.SetSuccessMsg, session.SuccessMessage), evs[len(evs)-1])

	v, ok := s.Verdict()
	assert.True(t, ok)
	assert.Equal(t, res, v)

	_, err = s.Check(0)
	assert.ErrorIs(t, err, world.ErrAlreadyChecked)
}

func TestCheck_FailureMessage(t *testing.T) {
	s, err := session.New("line", lineWorld(t, world.Options{}), zap.NewNop())
	require.NoError(t, err)
	res, err := s.Check(0)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	evs := s.Events()
	assert.Equal(t, event.New(event.Error, session.FailureMessage), evs[len(evs)-1])
}

func TestAct_QuotaHalt(t *testing.T) {
	s, err := session.New("line", lineWorld(t, world.Options{MaxInstructions: 1}), zap.NewNop())
	require.NoError(t, err)
	err = s.Act(0, move(1))
	assert.ErrorIs(t, err, world.ErrQuotaExceeded)
	evs := s.Events()
	assert.Equal(t, event.Halt, evs[len(evs)-1].Name)
}

func TestState(t *testing.T) {
	s, err := session.New("line", lineWorld(t, world.Options{}), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Act(0, move(1)))
	st, err := s.State(0)
	require.NoError(t, err)
	assert.Equal(t, 2, st.X)
	assert.Equal(t, "east", st.Orientation)
	assert.True(t, st.FrontIsClear)
	assert.False(t, st.RightIsClear)
	assert.Equal(t, 1, st.Instructions)
	assert.Equal(t, 1000, st.Quota)
	assert.Equal(t, 1, st.Stats.TotalMoves)

	_, err = s.State(1)
	assert.Error(t, err)
}

func TestSession_ConcurrentActs(t *testing.T) {
	w := world.New(world.Options{MaxInstructions: 10000}, zap.NewNop())
	_, err := w.AddRobot(5, 5, grid.East, "")
	require.NoError(t, err)
	s, err := session.New("spin", w, zap.NewNop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = s.Act(0, func(r *robot.Robot) ([]event.Event, error) { return r.TurnLeft() })
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 201, len(s.Events()))
	assert.Equal(t, 200, w.InstructionCount())
}

func TestManager(t *testing.T) {
	m := session.NewManager()
	s, err := session.New("line", lineWorld(t, world.Options{}), zap.NewNop())
	require.NoError(t, err)
	b := session.NewBridge("viewer", 1)
	s.Attach(b)

	require.NoError(t, m.Add(s))
	assert.Error(t, m.Add(s))
	got, ok := m.Get(s.ID)
	assert.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, []string{s.ID}, m.IDs())
	assert.Equal(t, 1, m.Count())

	require.NoError(t, m.Remove(s.ID))
	assert.True(t, b.IsClosed())
	assert.Error(t, m.Remove(s.ID))
	assert.Equal(t, 0, m.Count())
}

func TestBuilder_Build(t *testing.T) {
	cat, err := world.LoadCatalog("testdata", nil)
	require.NoError(t, err)
	b := session.NewBuilder(cat, session.BuilderOptions{MaxCapacity: 2}, zap.NewNop())

	hooked := false
	b.OnLevel("line", func(w *world.World) error {
		hooked = true
		return w.SetPickAllowed(2, 1, false)
	})
	b.OnRobot("line", func(r *robot.Robot) ([]event.Event, error) {
		return r.SetSpeed(0.1)
	})

	s, err := b.Build("line", dice.NewSeededSource(1))
	require.NoError(t, err)
	assert.True(t, hooked)
	assert.Equal(t, "line", s.WorldName)
	assert.Equal(t, "ttgt_world_1", s.World().UIID())
	assert.Equal(t, []event.Name{event.DrawAll, event.SetTrace, event.SetSpeed}, names(s.Events()))

	st, err := s.State(0)
	require.NoError(t, err)
	require.NotNil(t, st.Stats.MaxCapacity)
	assert.Equal(t, 2, *st.Stats.MaxCapacity)

	s2, err := b.Build("line", dice.NewSeededSource(1))
	require.NoError(t, err)
	assert.Equal(t, "ttgt_world_2", s2.World().UIID())

	_, err = b.Build("missing", dice.NewSeededSource(1))
	assert.Error(t, err)
}

func names(evs []event.Event) []event.Name {
	out := make([]event.Name, len(evs))
	for i, e := range evs {
		out[i] = e.Name
	}
	return out
}
