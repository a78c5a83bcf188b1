package cmd

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/bep/debounce"
	"github.com/gorilla/mux"
	"github.com/jsphweid/songreplay/constants"
	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/logger"
	"github.com/jsphweid/songreplay/model"
	"github.com/jsphweid/songreplay/replay"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Server controls the playback of one song over HTTP.
type Server struct {
	song     *model.Song
	replayer *replay.Replayer
	ws       http.Handler
	seek     func(func())
	logger   *zap.Logger

	mu       sync.Mutex
	cursor   *frac.Frac
	lastOpts replay.Options
}

// NewServer builds a server for song. ws serves /ws when not nil.
func NewServer(song *model.Song, r *replay.Replayer, ws http.Handler, l *zap.Logger) *Server {
	return &Server{
		song:     song,
		replayer: r,
		ws:       ws,
		seek:     debounce.New(constants.SeekDebounce),
		logger:   logger.OrNop(l).Named("server"),
	}
}

func (s *Server) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/play", s.HandlePlay).Methods("POST")
	router.HandleFunc("/stop", s.HandleStop).Methods("POST")
	router.HandleFunc("/seek", s.HandleSeek).Methods("POST")
	router.HandleFunc("/position", s.HandlePosition).Methods("GET")
	if s.ws != nil {
		router.Handle("/ws", s.ws)
	}
	return cors.Default().Handler(router)
}

// resumeFrom is where a play without a start begins: the last seek, or else
// the last beat reached as long as it is not past the final chord.
func (s *Server) resumeFrom() frac.Frac {
	if s.cursor != nil {
		return *s.cursor
	}
	last, ok := s.replayer.CurrTime8n()
	t, _ := s.song.ResumePosition(last, ok)
	return t
}

func (s *Server) position() model.PositionResponse {
	res := model.PositionResponse{
		Title:      s.song.Title,
		IsPlaying:  s.replayer.IsPlaying(),
		ResumeFrom: s.resumeFrom(),
		Start8n:    s.song.Start8n(),
		End8n:      s.song.End8n(),
	}
	if t, ok := s.replayer.CurrTime8n(); ok {
		res.Time8n = &t
	}
	return res
}

func (s *Server) HandlePlay(w http.ResponseWriter, r *http.Request) {
	var body model.PlayRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "could not decode request body"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replayer.IsPlaying() {
		// a pending seek still restarts the running playback
		writeJSON(w, http.StatusOK, s.position())
		return
	}
	opts := replay.Options{
		Start8n:          body.Start8n,
		AddDrumBeat:      body.AddDrumBeat,
		PadLeft:          body.PadLeft,
		NumBeatDivisions: body.NumBeatDivisions,
	}
	if opts.Start8n == nil {
		opts.Start8n = replay.StartAt(s.resumeFrom())
	}
	if err := s.replayer.Play(s.song, opts); err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	s.cursor = nil
	s.lastOpts = opts
	writeJSON(w, http.StatusOK, s.position())
}

func (s *Server) HandleStop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replayer.Stop()
	writeJSON(w, http.StatusOK, s.position())
}

// HandleSeek moves the cursor right away. A running playback restarts from
// there once the seeks stop coming in.
func (s *Server) HandleSeek(w http.ResponseWriter, r *http.Request) {
	var body model.SeekRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "could not decode request body"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if body.Time8n.LessThan(s.song.Start8n()) || body.Time8n.Geq(s.song.End8n()) {
		writeError(w, http.StatusBadRequest, errors.Errorf("%s is outside of %s to %s", body.Time8n, s.song.Start8n(), s.song.End8n()))
		return
	}
	t := body.Time8n
	s.cursor = &t
	s.seek(s.restart)
	writeJSON(w, http.StatusAccepted, s.position())
}

func (s *Server) restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == nil || !s.replayer.IsPlaying() {
		return
	}
	opts := s.lastOpts
	opts.Start8n = replay.StartAt(*s.cursor)
	s.replayer.Stop()
	if err := s.replayer.Play(s.song, opts); err != nil {
		s.logger.Warn("could not resume after seek", zap.Error(err))
		return
	}
	s.cursor = nil
}

func (s *Server) HandlePosition(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.position())
}

func statusOf(err error) int {
	var confErr *model.ConfigurationError
	var invErr *model.ScoreInvariantError
	if errors.As(err, &confErr) || errors.As(err, &invErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}
