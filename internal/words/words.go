// apps/go-server/internal/words/words.go
//
// Word bank management for the game.
//
// Responsibilities:
//   - Load the word bank from an environment-provided file or fall back to an
//     embedded default.
//   - Maintain a lookup index for membership and difficulty queries.
//   - Supply Entries, Lookup and Count utilities for the supplier and routes.
//
// Bank format:
//   - JSON file: array of {"word": string, "difficulty": float in [0,1]}
//     (the output format of the offline difficulty pipeline).
//   - Plain-text file: one word per line; difficulty is estimated
//     heuristically (see difficulty.go).
//
// Environment variables:
//   WORDS_FILE=/path/to/game_words.json  (or .txt)
//
// Constraints:
//   • Words are normalized to lowercase ASCII letters.
//   • Difficulty is clamped to [0,1].
//   • Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

//go:embed default_words.json
var embeddedBank []byte

// Entry is one bank word with its difficulty score.
type Entry struct {
	Word       string  `json:"word"`
	Difficulty float64 `json:"difficulty"`
}

var (
	initOnce   sync.Once
	entries    []Entry
	byWord     map[string]Entry
	initialErr error
)

// Init loads the word bank exactly once.
// Returns an error if the bank ends up empty.
func Init() error {
	initOnce.Do(func() {
		var list []Entry
		var err error
		if path := os.Getenv("WORDS_FILE"); path != "" {
			list, err = ReadBankFile(path)
		} else {
			list, err = parseJSONBank(embeddedBank)
		}
		if err != nil {
			initialErr = err
			return
		}
		entries = list
		byWord = make(map[string]Entry, len(list))
		for _, e := range list {
			byWord[e.Word] = e
		}
		if len(entries) == 0 {
			initialErr = errors.New("words: bank is empty")
		}
	})
	return initialErr
}

// ReadBankFile loads a word bank from path. JSON files carry explicit
// difficulties; anything else is treated as one word per line with
// difficulty estimated heuristically.
func ReadBankFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return parseJSONBank(data)
	}
	return parseWordList(data), nil
}

// parseJSONBank decodes and normalizes a JSON bank.
func parseJSONBank(data []byte) ([]Entry, error) {
	var raw []Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("words: parse bank: %w", err)
	}
	out := make([]Entry, 0, len(raw))
	for _, e := range raw {
		w := strings.TrimSpace(strings.ToLower(e.Word))
		if len(w) < 2 || !isAlpha(w) {
			continue
		}
		out = append(out, Entry{Word: w, Difficulty: clamp01(e.Difficulty)})
	}
	return out, nil
}

// parseWordList turns a plain word list into entries with estimated
// difficulties.
func parseWordList(data []byte) []Entry {
	var out []Entry
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		w := strings.TrimSpace(strings.ToLower(sc.Text()))
		if len(w) < 2 || !isAlpha(w) {
			continue
		}
		out = append(out, Entry{Word: w, Difficulty: Estimate(w)})
	}
	return out
}

// Entries returns the loaded bank.
func Entries() []Entry { return entries }

// Lookup returns the bank entry for w, if present.
func Lookup(w string) (Entry, bool) {
	e, ok := byWord[strings.ToLower(w)]
	return e, ok
}

// Count reports the number of loaded words.
func Count() int { return len(entries) }

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
