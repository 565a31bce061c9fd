// apps/go-server/internal/engine/engine.go
//
// Core state machine for a single word-memory game session.
// Responsibilities:
//   - Drive the round lifecycle: start → present word → countdown →
//     answer/timeout → advance or game over.
//   - Evaluate answers: a "seen" claim is correct iff the word was already in
//     seenWords before this presentation; the word is appended on resolution,
//     never on display.
//   - Own the countdown: one active timer per presentation, remaining time
//     recomputed from a wall-clock deadline, timeout fires exactly once.
//   - Guarantee at-most-one resolution per presented word even when a timeout
//     and a submission race.
//
// Notes:
//   - All state is guarded by one mutex. Word fetches, score saves and the
//     inter-round delay run off-lock; a generation counter invalidates their
//     results if the session has moved on (new word, new game, Close).
//   - The supplier and sink are external: supplier errors are logged and the
//     fetch retried after the inter-round delay, sink errors are logged only.

package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	startingLives = 3

	// Tunable pacing constants; overridable via Config.
	defaultInterRoundDelay = 500 * time.Millisecond
	defaultTickInterval    = 100 * time.Millisecond

	// Bound for the fire-and-forget score save.
	saveScoreTimeout = 5 * time.Second
)

// Config carries the engine's collaborators and pacing knobs.
// Supplier is required; everything else has a default.
type Config struct {
	Supplier        WordSupplier
	Sink            ScoreSink     // optional; nil skips score saving
	InterRoundDelay time.Duration // pause between resolution and the next word
	TickInterval    time.Duration // countdown refresh granularity
	Clock           Clock
	Logger          zerolog.Logger
}

// Engine owns all state for one game session.
type Engine struct {
	supplier WordSupplier
	sink     ScoreSink
	delay    time.Duration
	tick     time.Duration
	clock    Clock
	log      zerolog.Logger

	mu        sync.Mutex
	phase     Phase
	mode      Mode
	score     int
	lives     int
	seen      []string
	current   *Word
	deadline  time.Time
	remaining time.Duration
	resolving bool

	// gen increments on every step (start, resolution, Close). Timers,
	// delayed advances and in-flight fetches carry the gen they were armed
	// under and bail out if it no longer matches.
	gen       uint64
	timerStop chan struct{}
}

// New constructs an Engine in the menu phase with medium difficulty.
func New(cfg Config) (*Engine, error) {
	if cfg.Supplier == nil {
		return nil, errors.New("engine: Config.Supplier is required")
	}
	if cfg.InterRoundDelay <= 0 {
		cfg.InterRoundDelay = defaultInterRoundDelay
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	return &Engine{
		supplier: cfg.Supplier,
		sink:     cfg.Sink,
		delay:    cfg.InterRoundDelay,
		tick:     cfg.TickInterval,
		clock:    cfg.Clock,
		log:      cfg.Logger,
		phase:    PhaseMenu,
		mode:     ModeMedium,
		lives:    startingLives,
	}, nil
}

// StartGame begins a new round from menu or game_over. Calling it while a
// round is already playing is a reported no-op.
func (e *Engine) StartGame() error {
	e.mu.Lock()
	if e.phase == PhasePlaying {
		e.mu.Unlock()
		e.log.Warn().Msg("startGame ignored: round already playing")
		return nil
	}
	e.stopTimerLocked()
	e.gen++
	g := e.gen
	e.phase = PhasePlaying
	e.score = 0
	e.lives = startingLives
	e.seen = nil
	e.current = nil
	e.remaining = 0
	e.resolving = false
	mode := e.mode
	e.mu.Unlock()

	go e.fetchWord(g, nil, mode)
	return nil
}

// SubmitAnswer resolves the current word against the player's claim.
// Returns whether the claim was correct. Legal only while playing with an
// unresolved word in flight; duplicates are rejected without state change.
func (e *Engine) SubmitAnswer(claim Claim) (bool, error) {
	if claim != ClaimSeen && claim != ClaimNew {
		return false, ErrUnknownClaim
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhasePlaying {
		return false, ErrInvalidTransition
	}
	if e.resolving {
		e.log.Debug().Str("claim", string(claim)).Msg("answer ignored: resolution in flight")
		return false, ErrAnswerInFlight
	}
	if e.current == nil {
		e.log.Debug().Str("claim", string(claim)).Msg("answer ignored: no active word")
		return false, ErrNoActiveWord
	}
	return e.resolveLocked(claim, false), nil
}

// SetMode selects the difficulty for subsequent games. Rejected mid-round.
func (e *Engine) SetMode(mode Mode) error {
	if !mode.Valid() {
		return ErrUnknownMode
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == PhasePlaying {
		e.log.Warn().Str("mode", string(mode)).Msg("setMode rejected mid-round")
		return ErrInvalidTransition
	}
	e.mode = mode
	return nil
}

// Snapshot returns a read-only copy of the current state. Remaining time is
// recomputed from the deadline at call time.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		Phase:     e.phase,
		Mode:      e.mode,
		Score:     e.score,
		Lives:     e.lives,
		SeenWords: append([]string(nil), e.seen...),
	}
	if e.current != nil {
		w := *e.current
		s.Word = &w
		if e.phase == PhasePlaying {
			s.TimerRemaining = e.remainingLocked().Seconds()
		}
	}
	return s
}

// Close cancels the countdown and any pending advance. The engine stays
// inspectable but will not mutate further until the next StartGame.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.stopTimerLocked()
}

// ----------------------------- internals ------------------------------------

// remainingLocked recomputes time left from the wall clock, clamped at zero.
func (e *Engine) remainingLocked() time.Duration {
	rem := e.deadline.Sub(e.clock.Now())
	if rem < 0 {
		rem = 0
	}
	return rem
}

// fetchWord asks the supplier for the next word and, if the session has not
// moved on, installs it and arms the countdown. Runs off-lock.
func (e *Engine) fetchWord(g uint64, seen []string, mode Mode) {
	w, err := e.supplier.NextWord(context.Background(), seen, mode)

	e.mu.Lock()
	defer e.mu.Unlock()
	if g != e.gen || e.phase != PhasePlaying {
		return
	}
	if err != nil {
		e.log.Error().Err(err).Msg("word fetch failed, retrying")
		time.AfterFunc(e.delay, func() { e.advance(g) })
		return
	}
	if w.TimeLimit <= 0 {
		// Supplier contract says > 0; clamp junk input.
		w.TimeLimit = 3.0
	}
	limit := time.Duration(w.TimeLimit * float64(time.Second))
	e.current = &w
	e.deadline = e.clock.Now().Add(limit)
	e.remaining = limit
	e.armTimerLocked(g)
}

// advance re-issues the word fetch for generation g if it is still current.
func (e *Engine) advance(g uint64) {
	e.mu.Lock()
	if g != e.gen || e.phase != PhasePlaying {
		e.mu.Unlock()
		return
	}
	seen := append([]string(nil), e.seen...)
	mode := e.mode
	e.mu.Unlock()

	e.fetchWord(g, seen, mode)
}

// resolveLocked commits the effect of an answer or timeout on score, lives
// and seenWords, exactly once per presentation, then either ends the game or
// schedules the next word. Caller holds the mutex.
func (e *Engine) resolveLocked(claim Claim, timedOut bool) bool {
	e.resolving = true
	e.stopTimerLocked()

	word := *e.current
	wasAlreadySeen := false
	for _, s := range e.seen {
		if s == word.Text {
			wasAlreadySeen = true
			break
		}
	}
	correct := !timedOut && (claim == ClaimSeen) == wasAlreadySeen

	if correct {
		e.score++
	} else {
		e.lives--
	}
	e.seen = append(e.seen, word.Text)
	e.current = nil
	e.remaining = 0
	e.gen++
	g := e.gen

	e.log.Debug().
		Str("word", word.Text).
		Bool("correct", correct).
		Bool("timedOut", timedOut).
		Int("score", e.score).
		Int("lives", e.lives).
		Msg("word resolved")

	if e.lives <= 0 {
		e.phase = PhaseGameOver
		e.resolving = false
		score, mode := e.score, e.mode
		go e.saveScore(score, mode)
		return correct
	}

	e.resolving = false
	time.AfterFunc(e.delay, func() { e.advance(g) })
	return correct
}

// saveScore reports the final score to the sink, fire-and-forget.
func (e *Engine) saveScore(score int, mode Mode) {
	if e.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveScoreTimeout)
	defer cancel()
	if err := e.sink.SaveScore(ctx, score, mode); err != nil {
		e.log.Warn().Err(err).Int("score", score).Msg("score save failed")
	}
}

// ----------------------------- countdown ------------------------------------

// armTimerLocked starts the countdown for generation g, cancelling any prior
// countdown first. Caller holds the mutex.
func (e *Engine) armTimerLocked(g uint64) {
	e.stopTimerLocked()
	stop := make(chan struct{})
	e.timerStop = stop
	go e.runCountdown(g, stop)
}

// stopTimerLocked cancels the active countdown, if any. Idempotent.
func (e *Engine) stopTimerLocked() {
	if e.timerStop != nil {
		close(e.timerStop)
		e.timerStop = nil
	}
}

// runCountdown ticks until cancelled or the deadline passes, then fires the
// timeout path once. Remaining time comes from the clock, not a decrement.
func (e *Engine) runCountdown(g uint64, stop <-chan struct{}) {
	t := time.NewTicker(e.tick)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if e.tickOnce(g) {
				return
			}
		}
	}
}

// tickOnce refreshes remaining time for generation g. Returns true when the
// countdown should stop, firing the timeout if the deadline has passed and no
// answer is mid-resolution.
func (e *Engine) tickOnce(g uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if g != e.gen || e.phase != PhasePlaying || e.current == nil {
		return true
	}
	rem := e.remainingLocked()
	e.remaining = rem
	if rem > 0 {
		return false
	}
	if e.resolving {
		// An answer won the race; let it resolve the word.
		return true
	}
	e.log.Debug().Str("word", e.current.Text).Msg("countdown expired")
	e.resolveLocked(ClaimNew, true)
	return true
}
