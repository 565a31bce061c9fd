package words

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitLoadsEmbeddedBank(t *testing.T) {
	os.Unsetenv("WORDS_FILE")
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Count() == 0 {
		t.Fatal("embedded bank is empty")
	}
	e, ok := Lookup("apple")
	if !ok {
		t.Fatal("apple missing from default bank")
	}
	if e.Difficulty < 0 || e.Difficulty > 1 {
		t.Errorf("difficulty %v out of [0,1]", e.Difficulty)
	}
	if _, ok := Lookup("APPLE"); !ok {
		t.Error("Lookup should be case-insensitive")
	}
}

func TestReadBankFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	data := `[
		{"word": "Cat", "difficulty": 0.2},
		{"word": "quantum", "difficulty": 1.7},
		{"word": "x", "difficulty": 0.5},
		{"word": "has space", "difficulty": 0.5}
	]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadBankFile(path)
	if err != nil {
		t.Fatalf("ReadBankFile: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2 (single letters and non-alpha dropped): %v", len(got), got)
	}
	if got[0].Word != "cat" {
		t.Errorf("word not lowercased: %q", got[0].Word)
	}
	if got[1].Difficulty != 1.0 {
		t.Errorf("difficulty not clamped: %v", got[1].Difficulty)
	}
}

func TestReadBankFilePlainList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.txt")
	data := "cat\nplanet\nhypothesis\n\n123\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadBankFile(path)
	if err != nil {
		t.Fatalf("ReadBankFile: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3: %v", len(got), got)
	}
	for _, e := range got {
		if e.Difficulty < 0 || e.Difficulty > 1 {
			t.Errorf("%s: estimated difficulty %v out of [0,1]", e.Word, e.Difficulty)
		}
	}
}

func TestReadBankFileMissing(t *testing.T) {
	if _, err := ReadBankFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
