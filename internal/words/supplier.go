// apps/go-server/internal/words/supplier.go
//
// WordSupplier implementation backed by the loaded bank.
//
// Selection policy (matching the original game service):
//   - Candidates are filtered to the mode's difficulty band; an empty filter
//     falls back to the whole bank.
//   - Once more than 3 words have been seen, each draw has a 30% chance of
//     re-serving a uniformly chosen seen word (the "memory test"). If that
//     word is no longer in the bank, a fresh candidate is drawn instead.
//   - Time limit = 3.0s + difficulty*2.5s, rounded to 0.1s.

package words

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/robalobadob/recall/apps/go-server/internal/engine"
)

const (
	baseTimeSeconds   = 3.0
	timePerDifficulty = 2.5
	repeatChance      = 0.3
	minSeenForRepeat  = 3
)

// modeRanges maps each mode to its [min, max] difficulty band.
var modeRanges = map[engine.Mode][2]float64{
	engine.ModeEasy:   {0.0, 0.4},
	engine.ModeMedium: {0.3, 0.7},
	engine.ModeHard:   {0.6, 1.0},
}

// RangeFor returns the difficulty band for mode; unknown modes fall back to
// medium, like the original service.
func RangeFor(mode engine.Mode) (lo, hi float64) {
	r, ok := modeRanges[mode]
	if !ok {
		r = modeRanges[engine.ModeMedium]
	}
	return r[0], r[1]
}

// Supplier draws words from the bank. Safe for concurrent use.
type Supplier struct {
	mu     sync.Mutex
	rng    *rand.Rand
	bank   []Entry
	byWord map[string]Entry
}

// NewSupplier builds a Supplier over the globally loaded bank.
// Call words.Init first.
func NewSupplier() *Supplier {
	return newSupplier(Entries(), rand.New(rand.NewSource(time.Now().UnixNano())))
}

func newSupplier(bank []Entry, rng *rand.Rand) *Supplier {
	byWord := make(map[string]Entry, len(bank))
	for _, e := range bank {
		byWord[e.Word] = e
	}
	return &Supplier{rng: rng, bank: bank, byWord: byWord}
}

// NextWord implements engine.WordSupplier.
func (s *Supplier) NextWord(ctx context.Context, seen []string, mode engine.Mode) (engine.Word, error) {
	if err := ctx.Err(); err != nil {
		return engine.Word{}, err
	}
	if len(s.bank) == 0 {
		return engine.Word{}, errors.New("words: bank is empty (missing Init?)")
	}

	lo, hi := RangeFor(mode)
	var candidates []Entry
	for _, e := range s.bank {
		if e.Difficulty >= lo && e.Difficulty <= hi {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		candidates = s.bank
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(seen) > minSeenForRepeat && s.rng.Float64() < repeatChance {
		target := seen[s.rng.Intn(len(seen))]
		if e, ok := s.byWord[target]; ok {
			return wordFor(e), nil
		}
	}
	return wordFor(candidates[s.rng.Intn(len(candidates))]), nil
}

// wordFor converts a bank entry into a timed prompt.
func wordFor(e Entry) engine.Word {
	limit := baseTimeSeconds + e.Difficulty*timePerDifficulty
	limit = math.Round(limit*10) / 10
	return engine.Word{Text: e.Word, Difficulty: e.Difficulty, TimeLimit: limit}
}
