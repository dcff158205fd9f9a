// Package session owns one running world together with its robots, records
// every event in order, and forwards events to live viewers.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/game/event"
	"github.com/cory-johannsen/gridbot/internal/game/robot"
	"github.com/cory-johannsen/gridbot/internal/game/world"
)

// Verdict messages sent to the renderer after Check.
const (
	SuccessMessage = "🎉 Task Completed"
	FailureMessage = "One Or More Goal are Not Completed."
)

// Action is a mutating robot call.
type Action func(r *robot.Robot) ([]event.Event, error)

// State is a point-in-time summary of one robot and its world.
type State struct {
	SessionID    string      `json:"session_id"`
	World        string      `json:"world"`
	Robot        int         `json:"robot"`
	X            int         `json:"x"`
	Y            int         `json:"y"`
	Orientation  string      `json:"orientation"`
	FrontIsClear bool        `json:"front_is_clear"`
	RightIsClear bool        `json:"right_is_clear"`
	OnFlag       bool        `json:"on_flag"`
	Message      string      `json:"message,omitempty"`
	Instructions int         `json:"instructions"`
	Quota        int         `json:"quota"`
	Stats        robot.Stats `json:"stats"`
	Checked      bool        `json:"checked"`
}

// Session serialises all access to one World. All methods are safe for
// concurrent use.
type Session struct {
	ID        string
	WorldName string

	mu       sync.Mutex
	world    *world.World
	robots   []*robot.Robot
	recorder event.Recorder
	bridges  []*Bridge
	verdict  *world.CheckResult
	logger   *zap.Logger
}

// New wraps w in a Session, binds one Robot per robot record and records the
// initial draw_all event.
//
// Precondition: w and logger must be non-nil.
// Postcondition: Events() starts with a draw_all event.
func New(worldName string, w *world.World, logger *zap.Logger) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		WorldName: worldName,
		world:     w,
		logger:    logger.With(zap.String("world", worldName)),
	}
	for i := 0; i < w.RobotCount(); i++ {
		r, err := robot.New(w, i)
		if err != nil {
			return nil, fmt.Errorf("binding robot %d: %w", i, err)
		}
		s.robots = append(s.robots, r)
	}
	evs, err := w.RenderAll()
	s.record(evs)
	if err != nil {
		return nil, fmt.Errorf("rendering world: %w", err)
	}
	return s, nil
}

// World returns the underlying world. Callers must not use it concurrently
// with session methods.
func (s *Session) World() *world.World { return s.world }

// RobotCount returns the number of robots.
func (s *Session) RobotCount() int { return len(s.robots) }

func (s *Session) bot(i int) (*robot.Robot, error) {
	if i < 0 || i >= len(s.robots) {
		return nil, fmt.Errorf("robot %d out of range (have %d)", i, len(s.robots))
	}
	return s.robots[i], nil
}

// Attach registers a Bridge that receives every subsequent event.
func (s *Session) Attach(b *Bridge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bridges = append(s.bridges, b)
}

// record appends evs to the transcript and forwards them to live bridges.
// Callers hold s.mu or own s exclusively.
func (s *Session) record(evs []event.Event) {
	if len(evs) == 0 {
		return
	}
	s.recorder.Publish(evs...)
	for _, b := range s.bridges {
		for _, ev := range evs {
			if err := b.Push(ev); err != nil {
				s.logger.Warn("dropping event for viewer", zap.String("viewer", b.ID()), zap.Error(err))
			}
		}
	}
}

// Act runs a mutating action on robot i and records its events, including
// those returned alongside an error.
func (s *Session) Act(i int, action Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.bot(i)
	if err != nil {
		return err
	}
	evs, err := action(r)
	s.record(evs)
	if err != nil {
		s.logger.Debug("action failed", zap.Int("robot", i), zap.Error(err))
	}
	return err
}

// Inspect runs a read-only or metered query on robot i.
func (s *Session) Inspect(i int, fn func(r *robot.Robot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.bot(i)
	if err != nil {
		return err
	}
	return fn(r)
}

// Check evaluates the goals for robot i once and sends the verdict message to
// the renderer. The returned result is valid even when err wraps
// world.ErrQuotaExceeded from sending that message.
func (s *Session) Check(i int) (world.CheckResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.bot(i)
	if err != nil {
		return world.CheckResult{}, err
	}
	res, err := s.world.Check(r)
	if err != nil {
		return res, err
	}
	s.verdict = &res

	msg := event.New(event.SetSuccessMsg, SuccessMessage)
	if !res.Passed {
		msg = event.New(event.Error, FailureMessage)
	}
	evs, err := s.world.Emit(msg)
	s.record(evs)
	s.logger.Info("world checked",
		zap.String("session", s.ID),
		zap.Bool("passed", res.Passed),
		zap.Int("instructions", s.world.InstructionCount()),
	)
	return res, err
}

// Verdict returns the Check result once it exists.
func (s *Session) Verdict() (world.CheckResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verdict == nil {
		return world.CheckResult{}, false
	}
	return *s.verdict, true
}

// Events returns every event recorded so far, in order.
func (s *Session) Events() []event.Event {
	return s.recorder.Events()
}

// State summarises robot i.
func (s *Session) State(i int) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.bot(i)
	if err != nil {
		return State{}, err
	}
	x, y := r.Position()
	msg, _ := s.world.Message(x, y)
	return State{
		SessionID:    s.ID,
		World:        s.WorldName,
		Robot:        i,
		X:            x,
		Y:            y,
		Orientation:  r.Orientation().String(),
		FrontIsClear: r.FrontIsClear(),
		RightIsClear: r.RightIsClear(),
		OnFlag:       r.OnFlag(),
		Message:      msg,
		Instructions: s.world.InstructionCount(),
		Quota:        s.world.MaxInstructions(),
		Stats:        r.Stats(),
		Checked:      s.world.Checked(),
	}, nil
}

// Close closes every attached bridge.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bridges {
		_ = b.Close()
	}
	s.bridges = nil
}
