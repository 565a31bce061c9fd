// apps/go-server/internal/words/difficulty.go
//
// Heuristic difficulty estimate for words supplied without an explicit score
// (plain-text bank files). Uses the same feature set as the offline scoring
// pipeline — length, syllable count, unique characters, vowel ratio, hard
// suffixes — blended linearly and clamped to [0,1].

package words

import "strings"

// hardSuffixes mark word families that tend to be harder to remember.
var hardSuffixes = []string{"tion", "ing", "ogy", "ism"}

// Estimate scores a word's difficulty in [0,1]. Longer, more syllabic words
// with fewer vowels score higher.
func Estimate(word string) float64 {
	w := strings.TrimSpace(strings.ToLower(word))
	if w == "" {
		return 0
	}

	length := float64(len(w))
	syllables := float64(countSyllables(w))
	unique := float64(uniqueChars(w))
	vowelRatio := float64(countVowels(w)) / length

	score := 0.40*clamp01(length/12) +
		0.30*clamp01(syllables/5) +
		0.15*clamp01(unique/10) +
		0.10*(1-vowelRatio)
	for _, suf := range hardSuffixes {
		if strings.HasSuffix(w, suf) {
			score += 0.05
			break
		}
	}
	return clamp01(score)
}

// countSyllables approximates syllable count from vowel group transitions.
// A trailing silent 'e' is discounted; every word has at least one syllable.
func countSyllables(w string) int {
	count := 0
	if isVowel(rune(w[0])) {
		count++
	}
	for i := 1; i < len(w); i++ {
		if isVowel(rune(w[i])) && !isVowel(rune(w[i-1])) {
			count++
		}
	}
	if strings.HasSuffix(w, "e") {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

func isVowel(r rune) bool {
	return r == 'a' || r == 'e' || r == 'i' || r == 'o' || r == 'u'
}

func countVowels(w string) int {
	n := 0
	for _, r := range w {
		if isVowel(r) {
			n++
		}
	}
	return n
}

func uniqueChars(w string) int {
	seen := make(map[rune]struct{}, len(w))
	for _, r := range w {
		seen[r] = struct{}{}
	}
	return len(seen)
}
