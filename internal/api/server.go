// Package api exposes world listing, program grading and event replay over
// HTTP and WebSocket.
//
// Endpoints:
//
//	GET  /api/health
//	GET  /api/worlds
//	GET  /api/worlds/{name}/results?limit=N
//	POST /api/runs
//	GET  /api/runs/{id}
//	GET  /ws?run=<id>
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/game/event"
	"github.com/cory-johannsen/gridbot/internal/game/session"
	"github.com/cory-johannsen/gridbot/internal/game/world"
	"github.com/cory-johannsen/gridbot/internal/grading"
)

const (
	// maxProgramBytes bounds POST /api/runs bodies.
	maxProgramBytes = 1 << 20
	writeWait       = 10 * time.Second
	defaultLimit    = 50
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// WorldInfo describes one catalog entry.
type WorldInfo struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// RunResponse is the body of POST /api/runs.
type RunResponse struct {
	Result grading.Result `json:"result"`
	Output []string       `json:"output,omitempty"`
	Events []event.Event  `json:"events"`
}

// StreamMessage is one WebSocket frame of GET /ws.
type StreamMessage struct {
	Run   string       `json:"run"`
	Seq   int          `json:"seq"`
	Event *event.Event `json:"event,omitempty"`
	// Done marks the final frame.
	Done bool `json:"done,omitempty"`
}

// Server routes API requests.
type Server struct {
	runner   *grading.Runner
	catalog  *world.Catalog
	sessions *session.Manager
	logger   *zap.Logger
	router   *mux.Router
}

// NewServer builds the router.
//
// Precondition: every argument must be non-nil; sessions must be the
// Manager the runner registers finished sessions in.
func NewServer(runner *grading.Runner, catalog *world.Catalog, sessions *session.Manager, logger *zap.Logger) *Server {
	s := &Server{
		runner:   runner,
		catalog:  catalog,
		sessions: sessions,
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/worlds", s.handleListWorlds).Methods(http.MethodGet)
	api.HandleFunc("/worlds/{name}/results", s.handleWorldResults).Methods(http.MethodGet)
	api.HandleFunc("/runs", s.handleCreateRun).Methods(http.MethodPost)
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleStream).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"error": message, "code": status})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "healthy", "worlds": s.catalog.Count()})
}

func (s *Server) handleListWorlds(w http.ResponseWriter, _ *http.Request) {
	names := s.catalog.Names()
	out := make([]WorldInfo, 0, len(names))
	for _, n := range names {
		e, _ := s.catalog.Get(n)
		out = append(out, WorldInfo{Name: n, Title: e.Document.Title, Description: string(e.Document.Description)})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleWorldResults(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, ok := s.catalog.Get(name); !ok {
		respondError(w, http.StatusNotFound, "unknown world "+strconv.Quote(name))
		return
	}
	limit := defaultLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	results, err := s.runner.Store().ListByWorld(r.Context(), name, limit)
	if err != nil {
		s.logger.Error("listing results", zap.String("world", name), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "listing results failed")
		return
	}
	if results == nil {
		results = []grading.Result{}
	}
	respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req grading.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProgramBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.World == "" {
		respondError(w, http.StatusBadRequest, "world is required")
		return
	}

	run, err := s.runner.Run(r.Context(), req)
	switch {
	case errors.Is(err, grading.ErrUnknownLanguage):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, world.ErrWorldNotFound):
		respondError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.logger.Error("grading run", zap.String("world", req.World), zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, RunResponse{
		Result: run.Result,
		Output: run.Output,
		Events: run.Session.Events(),
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	res, err := s.runner.Store().Get(r.Context(), id)
	if errors.Is(err, grading.ErrNotFound) {
		respondError(w, http.StatusNotFound, "unknown run "+strconv.Quote(id))
		return
	}
	if err != nil {
		s.logger.Error("loading result", zap.String("run", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "loading result failed")
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// handleStream replays the recorded events of a run, one frame per event,
// then sends a done frame and closes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("run")
	if id == "" {
		http.Error(w, "run parameter required", http.StatusBadRequest)
		return
	}
	sess, ok := s.sessions.Get(id)
	if !ok {
		http.Error(w, "unknown run", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	evs := sess.Events()
	for i := range evs {
		if err := s.writeFrame(conn, StreamMessage{Run: id, Seq: i, Event: &evs[i]}); err != nil {
			s.logger.Debug("viewer went away", zap.String("run", id), zap.Error(err))
			return
		}
	}
	if err := s.writeFrame(conn, StreamMessage{Run: id, Seq: len(evs), Done: true}); err != nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replay complete"),
		time.Now().Add(writeWait))
}

func (s *Server) writeFrame(conn *websocket.Conn, msg StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
