package session

import (
	"maps"
	"slices"
	"sort"
	"time"
	"unicode"
)

// Timeline maps a playback time to the number of words spoken by then.
// It is built from per-word start times, as produced by speech synthesis.
type Timeline struct {
	entries   []timestamp
	monotonic bool
}

type timestamp struct {
	word int
	at   time.Duration
}

// NewTimeline orders timestamps by word index. Negative indexes are dropped.
func NewTimeline(timestamps map[int]time.Duration) Timeline {
	t := Timeline{monotonic: true}
	for _, word := range slices.Sorted(maps.Keys(timestamps)) {
		if word < 0 {
			continue
		}
		t.entries = append(t.entries, timestamp{word: word, at: timestamps[word]})
	}
	for i := 1; i < len(t.entries); i++ {
		if t.entries[i].at < t.entries[i-1].at {
			t.monotonic = false
			break
		}
	}
	return t
}

// Len returns the number of timestamped words.
func (t Timeline) Len() int { return len(t.entries) }

// Words returns one past the index of the last word whose timestamp is at
// or before at, or 0 when none has started. Out-of-order timestamps fall
// back to a linear scan in word order.
func (t Timeline) Words(at time.Duration) int {
	if !t.monotonic {
		n := 0
		for _, e := range t.entries {
			if at >= e.at {
				n = e.word + 1
			}
		}
		return n
	}
	i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].at > at })
	if i == 0 {
		return 0
	}
	return t.entries[i-1].word + 1
}

// wordEnd returns the byte offset just past the nth whitespace-separated
// word of s, or len(s) when s has fewer words.
func wordEnd(s string, n int) int {
	if n <= 0 {
		return 0
	}
	count := 0
	inWord := false
	for i, r := range s {
		space := unicode.IsSpace(r)
		if inWord && space {
			count++
			if count == n {
				return i
			}
		}
		inWord = !space
	}
	return len(s)
}
