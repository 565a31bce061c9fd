package words

import (
	"context"
	"math/rand"
	"testing"

	"github.com/robalobadob/recall/apps/go-server/internal/engine"
)

var testBank = []Entry{
	{Word: "cat", Difficulty: 0.1},
	{Word: "house", Difficulty: 0.3},
	{Word: "garden", Difficulty: 0.4},
	{Word: "planet", Difficulty: 0.55},
	{Word: "theory", Difficulty: 0.65},
	{Word: "quantum", Difficulty: 0.85},
	{Word: "hypothesis", Difficulty: 0.9},
}

func bankSet(bank []Entry) map[string]Entry {
	m := make(map[string]Entry, len(bank))
	for _, e := range bank {
		m[e.Word] = e
	}
	return m
}

func TestNextWordRespectsModeRange(t *testing.T) {
	tests := []struct {
		mode   engine.Mode
		lo, hi float64
	}{
		{engine.ModeEasy, 0.0, 0.4},
		{engine.ModeMedium, 0.3, 0.7},
		{engine.ModeHard, 0.6, 1.0},
		{engine.Mode("bogus"), 0.3, 0.7}, // unknown mode falls back to medium
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			s := newSupplier(testBank, rand.New(rand.NewSource(1)))
			for i := 0; i < 50; i++ {
				w, err := s.NextWord(context.Background(), nil, tt.mode)
				if err != nil {
					t.Fatalf("NextWord: %v", err)
				}
				if w.Difficulty < tt.lo || w.Difficulty > tt.hi {
					t.Fatalf("draw %d: %q difficulty %v outside [%v,%v]", i, w.Text, w.Difficulty, tt.lo, tt.hi)
				}
			}
		})
	}
}

func TestNextWordTimeLimit(t *testing.T) {
	s := newSupplier([]Entry{{Word: "garden", Difficulty: 0.4}}, rand.New(rand.NewSource(1)))
	w, err := s.NextWord(context.Background(), nil, engine.ModeEasy)
	if err != nil {
		t.Fatalf("NextWord: %v", err)
	}
	// 3.0 + 0.4*2.5 = 4.0
	if w.TimeLimit != 4.0 {
		t.Errorf("time limit = %v, want 4.0", w.TimeLimit)
	}
}

func TestNextWordRepeatsSeenWords(t *testing.T) {
	s := newSupplier(testBank, rand.New(rand.NewSource(42)))
	seen := []string{"cat", "house", "garden", "planet"}
	seenSet := map[string]bool{}
	for _, w := range seen {
		seenSet[w] = true
	}

	repeats := 0
	for i := 0; i < 200; i++ {
		w, err := s.NextWord(context.Background(), seen, engine.ModeHard)
		if err != nil {
			t.Fatalf("NextWord: %v", err)
		}
		// Repeats come from the seen list even when outside the mode band.
		if seenSet[w.Text] {
			repeats++
			if _, ok := bankSet(testBank)[w.Text]; !ok {
				t.Fatalf("repeat %q not from bank", w.Text)
			}
		}
	}
	if repeats == 0 {
		t.Error("expected some memory-test repeats over 200 draws")
	}
	if repeats > 150 {
		t.Errorf("repeats = %d of 200, far above the 30%% policy", repeats)
	}
}

func TestNextWordNoRepeatUntilFourSeen(t *testing.T) {
	s := newSupplier(testBank, rand.New(rand.NewSource(7)))
	seen := []string{"cat", "house", "garden"} // not more than 3
	for i := 0; i < 100; i++ {
		w, err := s.NextWord(context.Background(), seen, engine.ModeHard)
		if err != nil {
			t.Fatalf("NextWord: %v", err)
		}
		if w.Text == "cat" || w.Text == "house" || w.Text == "garden" {
			t.Fatalf("draw %d repeated %q with only 3 words seen", i, w.Text)
		}
	}
}

func TestNextWordSeenWordMissingFromBank(t *testing.T) {
	s := newSupplier(testBank, rand.New(rand.NewSource(3)))
	seen := []string{"zzz", "yyy", "xxx", "www"}
	for i := 0; i < 100; i++ {
		w, err := s.NextWord(context.Background(), seen, engine.ModeEasy)
		if err != nil {
			t.Fatalf("NextWord: %v", err)
		}
		if w.Text == "" {
			t.Fatal("empty word returned")
		}
	}
}

func TestNextWordEmptyBank(t *testing.T) {
	s := newSupplier(nil, rand.New(rand.NewSource(1)))
	if _, err := s.NextWord(context.Background(), nil, engine.ModeEasy); err == nil {
		t.Fatal("expected error for empty bank")
	}
}
