package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// scriptSupplier serves a fixed script of words, cycling on the last entry.
// It records the seen list it was handed on each call and can fail a number
// of leading calls.
type scriptSupplier struct {
	mu       sync.Mutex
	words    []Word
	i        int
	failures int
	seenArgs [][]string
}

func (s *scriptSupplier) NextWord(ctx context.Context, seen []string, mode Mode) (Word, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seenArgs = append(s.seenArgs, append([]string(nil), seen...))
	if s.failures > 0 {
		s.failures--
		return Word{}, errors.New("supplier unavailable")
	}
	w := s.words[s.i]
	if s.i < len(s.words)-1 {
		s.i++
	}
	return w, nil
}

// recordSink counts SaveScore invocations.
type recordSink struct {
	mu    sync.Mutex
	calls int
	score int
	mode  Mode
}

func (r *recordSink) SaveScore(ctx context.Context, score int, mode Mode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.score = score
	r.mode = mode
	return nil
}

func (r *recordSink) snapshot() (int, int, Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls, r.score, r.mode
}

func newTestEngine(t *testing.T, sup WordSupplier, sink ScoreSink) *Engine {
	t.Helper()
	e, err := New(Config{
		Supplier:        sup,
		Sink:            sink,
		InterRoundDelay: 5 * time.Millisecond,
		TickInterval:    2 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// waitForWord blocks until a word is presented and the seen list has n entries.
func waitForWord(t *testing.T, e *Engine, seenLen int) Snapshot {
	t.Helper()
	var s Snapshot
	waitFor(t, "next word presentation", func() bool {
		s = e.Snapshot()
		return s.Word != nil && len(s.SeenWords) == seenLen
	})
	return s
}

func TestNewDefaults(t *testing.T) {
	e := newTestEngine(t, &scriptSupplier{words: []Word{{Text: "cat", TimeLimit: 5}}}, nil)
	s := e.Snapshot()
	if s.Phase != PhaseMenu {
		t.Errorf("expected initial phase %q, got %q", PhaseMenu, s.Phase)
	}
	if s.Mode != ModeMedium {
		t.Errorf("expected default mode %q, got %q", ModeMedium, s.Mode)
	}
	if s.Lives != 3 {
		t.Errorf("expected 3 lives, got %d", s.Lives)
	}
	if s.Score != 0 || s.Word != nil || len(s.SeenWords) != 0 {
		t.Errorf("expected pristine state, got %+v", s)
	}
}

func TestNewRequiresSupplier(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing supplier")
	}
}

// The canonical round: apple (novel) claimed new, apple (repeat) claimed
// seen, logic (novel) wrongly claimed seen.
func TestAnswerEvaluation(t *testing.T) {
	sup := &scriptSupplier{words: []Word{
		{Text: "apple", Difficulty: 0.2, TimeLimit: 5.0},
		{Text: "apple", Difficulty: 0.2, TimeLimit: 3.0},
		{Text: "logic", Difficulty: 0.4, TimeLimit: 4.0},
	}}
	e := newTestEngine(t, sup, nil)
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	waitForWord(t, e, 0)
	correct, err := e.SubmitAnswer(ClaimNew)
	if err != nil || !correct {
		t.Fatalf("apple claimed new: correct=%v err=%v, want correct", correct, err)
	}
	s := e.Snapshot()
	if s.Score != 1 || s.Lives != 3 {
		t.Errorf("after first answer: score=%d lives=%d, want 1/3", s.Score, s.Lives)
	}
	if len(s.SeenWords) != 1 || s.SeenWords[0] != "apple" {
		t.Errorf("seenWords = %v, want [apple]", s.SeenWords)
	}

	waitForWord(t, e, 1)
	correct, err = e.SubmitAnswer(ClaimSeen)
	if err != nil || !correct {
		t.Fatalf("apple claimed seen: correct=%v err=%v, want correct", correct, err)
	}
	if s = e.Snapshot(); s.Score != 2 {
		t.Errorf("score = %d, want 2", s.Score)
	}

	waitForWord(t, e, 2)
	correct, err = e.SubmitAnswer(ClaimSeen)
	if err != nil {
		t.Fatalf("logic claimed seen: %v", err)
	}
	if correct {
		t.Error("logic was novel; seen claim should be incorrect")
	}
	s = e.Snapshot()
	if s.Score != 2 || s.Lives != 2 {
		t.Errorf("after wrong answer: score=%d lives=%d, want 2/2", s.Score, s.Lives)
	}
	want := []string{"apple", "apple", "logic"}
	if len(s.SeenWords) != len(want) {
		t.Fatalf("seenWords = %v, want %v", s.SeenWords, want)
	}
	for i := range want {
		if s.SeenWords[i] != want[i] {
			t.Errorf("seenWords[%d] = %q, want %q", i, s.SeenWords[i], want[i])
		}
	}
}

// A word joins seenWords at resolution, never on display.
func TestSeenAppendedOnResolutionOnly(t *testing.T) {
	sup := &scriptSupplier{words: []Word{{Text: "garden", TimeLimit: 5}}}
	e := newTestEngine(t, sup, nil)
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	s := waitForWord(t, e, 0)
	if len(s.SeenWords) != 0 {
		t.Errorf("word on display already in seenWords: %v", s.SeenWords)
	}
	if _, err := e.SubmitAnswer(ClaimNew); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if s = e.Snapshot(); len(s.SeenWords) != 1 {
		t.Errorf("seenWords after resolution = %v, want one entry", s.SeenWords)
	}
}

func TestLivesExhaustionEndsGame(t *testing.T) {
	sup := &scriptSupplier{words: []Word{{Text: "planet", Difficulty: 0.5, TimeLimit: 5}}}
	sink := &recordSink{}
	e := newTestEngine(t, sup, sink)
	if err := e.SetMode(ModeHard); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	// planet is novel on the first showing and seen afterwards; these claims
	// are all wrong.
	claims := []Claim{ClaimSeen, ClaimNew, ClaimNew}
	for i, c := range claims {
		waitForWord(t, e, i)
		correct, err := e.SubmitAnswer(c)
		if err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if correct {
			t.Fatalf("answer %d unexpectedly correct", i)
		}
	}

	s := e.Snapshot()
	if s.Phase != PhaseGameOver {
		t.Fatalf("phase = %q, want %q", s.Phase, PhaseGameOver)
	}
	if s.Lives != 0 {
		t.Errorf("lives = %d, want 0", s.Lives)
	}

	waitFor(t, "score sink invocation", func() bool {
		calls, _, _ := sink.snapshot()
		return calls == 1
	})
	if _, score, mode := sink.snapshot(); score != 0 || mode != ModeHard {
		t.Errorf("sink got score=%d mode=%q, want 0/hard", score, mode)
	}

	if _, err := e.SubmitAnswer(ClaimNew); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("submit after game over: err = %v, want ErrInvalidTransition", err)
	}

	// Give any stray resolution a chance to double-invoke the sink.
	time.Sleep(20 * time.Millisecond)
	if calls, _, _ := sink.snapshot(); calls != 1 {
		t.Errorf("sink invoked %d times, want exactly once", calls)
	}
}

func TestStartGameResetsAfterGameOver(t *testing.T) {
	sup := &scriptSupplier{words: []Word{{Text: "cat", TimeLimit: 5}}}
	e := newTestEngine(t, sup, nil)
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	for i := 0; i < 3; i++ {
		waitForWord(t, e, i)
		if i == 0 {
			e.SubmitAnswer(ClaimSeen)
		} else {
			e.SubmitAnswer(ClaimNew)
		}
	}
	if s := e.Snapshot(); s.Phase != PhaseGameOver {
		t.Fatalf("phase = %q, want game over", s.Phase)
	}

	if err := e.StartGame(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	s := e.Snapshot()
	if s.Phase != PhasePlaying || s.Score != 0 || s.Lives != 3 || len(s.SeenWords) != 0 {
		t.Errorf("state not reset on restart: %+v", s)
	}
}

func TestStartGameWhilePlayingIsNoop(t *testing.T) {
	sup := &scriptSupplier{words: []Word{{Text: "cat", TimeLimit: 5}}}
	e := newTestEngine(t, sup, nil)
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	waitForWord(t, e, 0)
	if _, err := e.SubmitAnswer(ClaimNew); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if err := e.StartGame(); err != nil {
		t.Fatalf("re-entrant StartGame should be a reported no-op, got %v", err)
	}
	if s := e.Snapshot(); s.Score != 1 || len(s.SeenWords) != 1 {
		t.Errorf("re-entrant StartGame reset state: %+v", s)
	}
}

// Two answers for one presented word must yield exactly one evaluation.
func TestDuplicateAnswerIgnored(t *testing.T) {
	sup := &scriptSupplier{words: []Word{{Text: "cat", TimeLimit: 5}}}
	e, err := New(Config{
		Supplier:        sup,
		InterRoundDelay: 500 * time.Millisecond, // hold the between-rounds window open
		TickInterval:    2 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Close)
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	waitForWord(t, e, 0)

	if _, err := e.SubmitAnswer(ClaimNew); err != nil {
		t.Fatalf("first answer: %v", err)
	}
	_, err = e.SubmitAnswer(ClaimNew)
	if !errors.Is(err, ErrNoActiveWord) && !errors.Is(err, ErrAnswerInFlight) {
		t.Fatalf("second answer: err = %v, want reentrancy rejection", err)
	}
	s := e.Snapshot()
	if s.Score != 1 || s.Lives != 3 || len(s.SeenWords) != 1 {
		t.Errorf("duplicate answer mutated state: %+v", s)
	}
}

func TestTimeoutCostsLife(t *testing.T) {
	sup := &scriptSupplier{words: []Word{
		{Text: "quantum", TimeLimit: 0.03},
		{Text: "theory", TimeLimit: 5},
	}}
	e := newTestEngine(t, sup, nil)
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	waitFor(t, "timeout resolution", func() bool {
		s := e.Snapshot()
		return s.Lives == 2 && len(s.SeenWords) == 1
	})
	s := e.Snapshot()
	if s.SeenWords[0] != "quantum" {
		t.Errorf("timed-out word not appended: %v", s.SeenWords)
	}
	if s.Score != 0 {
		t.Errorf("timeout changed score: %d", s.Score)
	}
	if s.Phase != PhasePlaying {
		t.Errorf("phase = %q, want still playing", s.Phase)
	}
}

// A timeout firing after the word was already answered must not take a life.
func TestTimeoutAfterAnswerIgnored(t *testing.T) {
	sup := &scriptSupplier{words: []Word{
		{Text: "cat", TimeLimit: 0.05},
		{Text: "house", TimeLimit: 10},
	}}
	e := newTestEngine(t, sup, nil)
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	waitForWord(t, e, 0)
	if correct, err := e.SubmitAnswer(ClaimNew); err != nil || !correct {
		t.Fatalf("answer: correct=%v err=%v", correct, err)
	}

	// Sleep well past the first word's limit.
	time.Sleep(120 * time.Millisecond)
	s := e.Snapshot()
	if s.Lives != 3 {
		t.Errorf("stale timeout took a life: lives = %d", s.Lives)
	}
	if s.Score != 1 {
		t.Errorf("score = %d, want 1", s.Score)
	}
}

func TestSetMode(t *testing.T) {
	sup := &scriptSupplier{words: []Word{{Text: "cat", TimeLimit: 5}}}
	e := newTestEngine(t, sup, nil)

	t.Run("valid from menu", func(t *testing.T) {
		if err := e.SetMode(ModeEasy); err != nil {
			t.Fatalf("SetMode: %v", err)
		}
		if got := e.Snapshot().Mode; got != ModeEasy {
			t.Errorf("mode = %q, want easy", got)
		}
	})

	t.Run("unknown mode rejected", func(t *testing.T) {
		if err := e.SetMode(Mode("nightmare")); !errors.Is(err, ErrUnknownMode) {
			t.Errorf("err = %v, want ErrUnknownMode", err)
		}
	})

	t.Run("rejected while playing", func(t *testing.T) {
		if err := e.StartGame(); err != nil {
			t.Fatalf("StartGame: %v", err)
		}
		if err := e.SetMode(ModeHard); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("err = %v, want ErrInvalidTransition", err)
		}
		if got := e.Snapshot().Mode; got != ModeEasy {
			t.Errorf("mode changed mid-round to %q", got)
		}
	})
}

func TestSubmitOutsidePlayRejected(t *testing.T) {
	sup := &scriptSupplier{words: []Word{{Text: "cat", TimeLimit: 5}}}
	e := newTestEngine(t, sup, nil)
	if _, err := e.SubmitAnswer(ClaimNew); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("submit in menu: err = %v, want ErrInvalidTransition", err)
	}
	if _, err := e.SubmitAnswer(Claim("maybe")); !errors.Is(err, ErrUnknownClaim) {
		t.Errorf("bogus claim: err = %v, want ErrUnknownClaim", err)
	}
}

func TestSupplierFailureRetries(t *testing.T) {
	sup := &scriptSupplier{
		words:    []Word{{Text: "cat", TimeLimit: 5}},
		failures: 2,
	}
	e := newTestEngine(t, sup, nil)
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	waitForWord(t, e, 0)
	if s := e.Snapshot(); s.Phase != PhasePlaying || s.Word.Text != "cat" {
		t.Errorf("engine did not recover from supplier failure: %+v", s)
	}
}

// Remaining time is recomputed from elapsed wall-clock time, not decremented.
func TestSnapshotRecomputesRemaining(t *testing.T) {
	clock := NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	sup := &scriptSupplier{words: []Word{{Text: "cat", TimeLimit: 5}}}
	e, err := New(Config{
		Supplier:        sup,
		InterRoundDelay: 5 * time.Millisecond,
		TickInterval:    2 * time.Millisecond,
		Clock:           clock,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Close)
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	waitForWord(t, e, 0)

	if got := e.Snapshot().TimerRemaining; got != 5.0 {
		t.Errorf("initial remaining = %v, want 5.0", got)
	}
	clock.Advance(2 * time.Second)
	if got := e.Snapshot().TimerRemaining; got < 2.9 || got > 3.1 {
		t.Errorf("remaining after 2s = %v, want ~3.0", got)
	}

	// Push far past the deadline; the timeout fires once and remaining
	// clamps at zero.
	clock.Advance(10 * time.Second)
	waitFor(t, "timeout after clock advance", func() bool {
		return e.Snapshot().Lives == 2
	})
	if got := e.Snapshot().TimerRemaining; got < 0 {
		t.Errorf("remaining went negative: %v", got)
	}
}

// The supplier must see the fully committed seen list before the next fetch.
func TestSeenCommittedBeforeNextFetch(t *testing.T) {
	sup := &scriptSupplier{words: []Word{
		{Text: "alpha", TimeLimit: 5},
		{Text: "beta", TimeLimit: 5},
	}}
	e := newTestEngine(t, sup, nil)
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	waitForWord(t, e, 0)
	if _, err := e.SubmitAnswer(ClaimNew); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	waitForWord(t, e, 1)

	sup.mu.Lock()
	defer sup.mu.Unlock()
	if len(sup.seenArgs) < 2 {
		t.Fatalf("supplier called %d times, want >= 2", len(sup.seenArgs))
	}
	second := sup.seenArgs[1]
	if len(second) != 1 || second[0] != "alpha" {
		t.Errorf("second fetch saw %v, want [alpha]", second)
	}
}
