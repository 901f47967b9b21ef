package session

import (
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
)

// History is the append-only ordered log of turns for one session. Appends
// happen under the session's send serialization, but reads may come from any
// caller at any time, so access is locked independently.
type History struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewHistory() *History {
	return &History{}
}

// Append adds a turn at the end of the log.
func (h *History) Append(turn Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, turn)
}

// All returns a snapshot of the turns in append order.
func (h *History) All() []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Last returns a snapshot of at most n most recent turns, oldest first.
func (h *History) Last(n int) []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n <= 0 || n > len(h.turns) {
		n = len(h.turns)
	}
	out := make([]Turn, n)
	copy(out, h.turns[len(h.turns)-n:])
	return out
}

// Len returns the number of turns appended so far.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

// TurnMatch is one search hit within a session history.
type TurnMatch struct {
	TurnIndex int
	Turn      Turn
	Preview   string
	Score     int
}

// Search fuzzy-matches query against turn contents and returns hits ordered
// best score first. An empty query matches nothing.
func (h *History) Search(query string) []TurnMatch {
	if query == "" {
		return []TurnMatch{}
	}

	turns := h.All()
	contents := make([]string, len(turns))
	for i, t := range turns {
		contents[i] = t.Content
	}

	results := fuzzy.Find(query, contents)

	matches := make([]TurnMatch, 0, len(results))
	for _, r := range results {
		turn := turns[r.Index]
		preview := strings.ReplaceAll(turn.Content, "\n", " ")
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		matches = append(matches, TurnMatch{
			TurnIndex: r.Index,
			Turn:      turn,
			Preview:   preview,
			Score:     r.Score,
		})
	}

	return matches
}
