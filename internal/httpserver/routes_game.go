// apps/go-server/internal/httpserver/routes_game.go
//
// HTTP routes for game sessions and the word supply.
// Exposes, under optional auth:
//   - POST /game/new        → create a session (engine per session) and start it
//   - POST /game/answer     → submit a seen/new claim for the current word
//   - GET  /game/state      → poll a read-only snapshot of the session
//   - POST /game/mode       → change difficulty (rejected mid-round)
//   - GET  /game/next_word  → stateless word supply (legacy client API)
//   - POST /game/save       → persist a client-computed score (auth soft-required)
//   - GET  /leaderboard     → top 10 scores with usernames
//
// The engine runs server-side; the client is a dumb presentation layer that
// polls /game/state. Guests can play; only authenticated users get their
// final scores persisted.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/recall/apps/go-server/internal/engine"
	"github.com/robalobadob/recall/apps/go-server/internal/session"
)

// gameServer wraps dependencies for /game endpoints.
type gameServer struct {
	srv *Server
}

// mountGame registers all game routes.
func (s *Server) mountGame(r chi.Router) {
	gg := &gameServer{srv: s}
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", gg.handleNew)
		r.Post("/answer", gg.handleAnswer)
		r.Get("/state", gg.handleState)
		r.Post("/mode", gg.handleMode)
		r.Get("/next_word", gg.handleNextWord)
		r.Post("/save", gg.handleSave)
	})
	r.Get("/leaderboard", gg.handleLeaderboard)
}

// userID returns the authenticated user's ID, or "" for guests.
func userID(r *http.Request) string {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID
	}
	return ""
}

// getSession loads a session and enforces ownership for user-bound sessions.
func (g *gameServer) getSession(w http.ResponseWriter, r *http.Request, id string) (*session.Session, bool) {
	if id == "" {
		http.Error(w, `{"error":"missing_session_id"}`, http.StatusBadRequest)
		return nil, false
	}
	sess, err := g.srv.sessions.Get(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"session_not_found"}`, http.StatusNotFound)
		return nil, false
	}
	if sess.UserID != "" && sess.UserID != userID(r) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return nil, false
	}
	return sess, true
}

// writeEngineErr maps engine sentinel errors onto HTTP statuses.
// Engine errors are client conflicts, never 500s.
func writeEngineErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrUnknownMode), errors.Is(err, engine.ErrUnknownClaim):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
	case errors.Is(err, engine.ErrInvalidTransition):
		http.Error(w, `{"error":"invalid_transition"}`, http.StatusConflict)
	case errors.Is(err, engine.ErrNoActiveWord), errors.Is(err, engine.ErrAnswerInFlight):
		http.Error(w, `{"error":"answer_ignored"}`, http.StatusConflict)
	default:
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
	}
}

// -----------------------------------------------------------------------------
// /game/new

type newGameReq struct {
	Mode string `json:"mode"`
}
type sessionRes struct {
	SessionID string          `json:"sessionId"`
	State     engine.Snapshot `json:"state"`
}

// handleNew creates a per-session engine, applies the requested mode, and
// starts the round.
func (g *gameServer) handleNew(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	uid := userID(r)
	eng, err := engine.New(engine.Config{
		Supplier: g.srv.supplier,
		Sink:     g.srv.scores.SinkFor(uid),
		Logger:   log.With().Str("component", "engine").Logger(),
	})
	if err != nil {
		log.Error().Err(err).Msg("engine construction")
		http.Error(w, `{"error":"engine_failed"}`, http.StatusInternalServerError)
		return
	}
	if req.Mode != "" {
		if err := eng.SetMode(engine.Mode(strings.ToLower(req.Mode))); err != nil {
			writeEngineErr(w, err)
			return
		}
	}
	if err := eng.StartGame(); err != nil {
		writeEngineErr(w, err)
		return
	}

	sess := &session.Session{
		ID:        genID(),
		UserID:    uid,
		Engine:    eng,
		CreatedAt: time.Now().UTC(),
	}
	if err := g.srv.sessions.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(sessionRes{SessionID: sess.ID, State: eng.Snapshot()})
}

// -----------------------------------------------------------------------------
// /game/answer

type answerReq struct {
	SessionID string `json:"sessionId"`
	Claim     string `json:"claim"` // "seen" | "new"
}
type answerRes struct {
	Correct bool            `json:"correct"`
	State   engine.Snapshot `json:"state"`
}

// handleAnswer submits a claim for the session's current word.
func (g *gameServer) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, ok := g.getSession(w, r, req.SessionID)
	if !ok {
		return
	}
	correct, err := sess.Engine.SubmitAnswer(engine.Claim(strings.ToLower(req.Claim)))
	if err != nil {
		writeEngineErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(answerRes{Correct: correct, State: sess.Engine.Snapshot()})
}

// -----------------------------------------------------------------------------
// /game/state

// handleState returns a read-only snapshot; the client polls this.
func (g *gameServer) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := g.getSession(w, r, r.URL.Query().Get("sessionId"))
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(sessionRes{SessionID: sess.ID, State: sess.Engine.Snapshot()})
}

// -----------------------------------------------------------------------------
// /game/mode

type modeReq struct {
	SessionID string `json:"sessionId"`
	Mode      string `json:"mode"`
}

// handleMode changes the session difficulty; rejected while playing.
func (g *gameServer) handleMode(w http.ResponseWriter, r *http.Request) {
	var req modeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, ok := g.getSession(w, r, req.SessionID)
	if !ok {
		return
	}
	if err := sess.Engine.SetMode(engine.Mode(strings.ToLower(req.Mode))); err != nil {
		writeEngineErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(sessionRes{SessionID: sess.ID, State: sess.Engine.Snapshot()})
}

// -----------------------------------------------------------------------------
// /game/next_word (stateless legacy API)

type nextWordRes struct {
	Word         string  `json:"word"`
	Difficulty   float64 `json:"difficulty"`
	TimeLimit    float64 `json:"time_limit"`
	IsMemoryTest bool    `json:"is_memory_test"`
}

// handleNextWord draws a word for clients that run the game loop themselves.
// seen is a comma-separated list of words already shown.
func (g *gameServer) handleNextWord(w http.ResponseWriter, r *http.Request) {
	mode := engine.Mode(strings.ToLower(r.URL.Query().Get("mode")))
	var seen []string
	if raw := strings.TrimSpace(r.URL.Query().Get("seen")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(strings.ToLower(s)); s != "" {
				seen = append(seen, s)
			}
		}
	}
	word, err := g.srv.supplier.NextWord(r.Context(), seen, mode)
	if err != nil {
		log.Error().Err(err).Msg("next word")
		http.Error(w, `{"error":"no_words"}`, http.StatusServiceUnavailable)
		return
	}
	isRepeat := false
	for _, s := range seen {
		if s == word.Text {
			isRepeat = true
			break
		}
	}
	_ = json.NewEncoder(w).Encode(nextWordRes{
		Word:         word.Text,
		Difficulty:   word.Difficulty,
		TimeLimit:    word.TimeLimit,
		IsMemoryTest: isRepeat,
	})
}

// -----------------------------------------------------------------------------
// /game/save

type saveReq struct {
	Score int    `json:"score"`
	Mode  string `json:"mode"`
}

// handleSave persists a client-computed final score. Guests get a soft
// "not saved" response rather than an error.
func (g *gameServer) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if req.Score < 0 || !engine.Mode(strings.ToLower(req.Mode)).Valid() {
		http.Error(w, `{"error":"invalid_score"}`, http.StatusBadRequest)
		return
	}
	uid := userID(r)
	if uid == "" {
		_ = json.NewEncoder(w).Encode(map[string]string{"msg": "not logged in, score not saved"})
		return
	}
	if err := g.srv.scores.Insert(r.Context(), uid, req.Score, strings.ToLower(req.Mode)); err != nil {
		log.Warn().Err(err).Msg("save score")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

// -----------------------------------------------------------------------------
// /leaderboard

// handleLeaderboard returns the top 10 scores.
func (g *gameServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := g.srv.scores.Leaderboard(r.Context(), 10)
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(rows)
}
