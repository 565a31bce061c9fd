// apps/go-server/internal/engine/types.go
//
// Core type definitions for the word-memory game engine.
// Defines:
//   - Phase: coarse game lifecycle state (menu/playing/game_over).
//   - Mode: difficulty mode selected outside of play.
//   - Claim: the player's assertion about the current word (seen/new).
//   - Word: the active prompt with its difficulty and time limit.
//   - Snapshot: an immutable copy of engine state for the presentation layer.
//   - WordSupplier / ScoreSink: the external capabilities the engine consumes.

package engine

import (
	"context"
	"errors"
)

// Phase is the coarse lifecycle state of a game session.
// Possible values:
//   - "menu":      no round in progress; mode may be changed.
//   - "playing":   a round is active; answers and timeouts resolve words.
//   - "game_over": lives hit zero; state is frozen until the next StartGame.
type Phase string

const (
	PhaseMenu     Phase = "menu"
	PhasePlaying        = "playing"
	PhaseGameOver       = "game_over"
)

// Mode selects the difficulty band the word supplier draws from.
type Mode string

const (
	ModeEasy   Mode = "easy"
	ModeMedium      = "medium"
	ModeHard        = "hard"
)

// Valid reports whether m is one of the three recognized modes.
func (m Mode) Valid() bool {
	return m == ModeEasy || m == ModeMedium || m == ModeHard
}

// Claim is the player's assertion about the current word.
type Claim string

const (
	ClaimSeen Claim = "seen"
	ClaimNew        = "new"
)

// Word is the active prompt. TimeLimit is in seconds and always > 0
// for supplier-produced words.
type Word struct {
	Text       string  `json:"text"`
	Difficulty float64 `json:"difficulty"`
	TimeLimit  float64 `json:"timeLimit"`
}

// Snapshot is a read-only copy of engine state. The presentation layer may
// read it at any cadence; TimerRemaining is recomputed from the wall clock
// at snapshot time and never goes negative.
type Snapshot struct {
	Phase          Phase    `json:"phase"`
	Mode           Mode     `json:"mode"`
	Score          int      `json:"score"`
	Lives          int      `json:"lives"`
	SeenWords      []string `json:"seenWords"`
	Word           *Word    `json:"word,omitempty"`
	TimerRemaining float64  `json:"timerRemaining"`
}

// WordSupplier produces the next word to present, given the words already
// shown this round. It may return a word already in seen (a genuine "seen"
// case) or a novel one; the engine treats the result as opaque.
type WordSupplier interface {
	NextWord(ctx context.Context, seen []string, mode Mode) (Word, error)
}

// ScoreSink records a final score. Invoked exactly once per terminal
// game-over transition; failures are logged, never fatal to the engine.
type ScoreSink interface {
	SaveScore(ctx context.Context, score int, mode Mode) error
}

// SinkFunc adapts a function to the ScoreSink interface.
type SinkFunc func(ctx context.Context, score int, mode Mode) error

func (f SinkFunc) SaveScore(ctx context.Context, score int, mode Mode) error {
	return f(ctx, score, mode)
}

var (
	// ErrInvalidTransition is returned when an operation is attempted in the
	// wrong phase (answer outside of play, mode change mid-round, ...).
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrNoActiveWord is returned when an answer arrives with no unresolved
	// word in flight (already resolved, or the next word is still loading).
	ErrNoActiveWord = errors.New("no active word")

	// ErrAnswerInFlight is returned when an answer arrives while a previous
	// one is still being resolved. The duplicate is ignored.
	ErrAnswerInFlight = errors.New("answer already in flight")

	// ErrUnknownMode is returned for modes outside easy/medium/hard.
	ErrUnknownMode = errors.New("unknown mode")

	// ErrUnknownClaim is returned for claims other than seen/new.
	ErrUnknownClaim = errors.New("unknown claim")
)
