// Package history keeps the generated answers of one browsing session with a
// cursor for previous/next navigation.
package history

import (
	"encoding/json"

	"github.com/gin-contrib/sessions"
)

const sessionKey = "responses"

// History is an append-only list with a cursor. When a limit is set the
// oldest answers are dropped once it is exceeded.
type History struct {
	Responses []string `json:"responses"`
	Cursor    int      `json:"cursor"`

	limit int
}

func New(limit int) *History {
	return &History{limit: limit}
}

func (h *History) Len() int {
	return len(h.Responses)
}

func (h *History) Empty() bool {
	return len(h.Responses) == 0
}

// Append pushes text and moves the cursor onto it.
func (h *History) Append(text string) {
	h.Responses = append(h.Responses, text)
	if h.limit > 0 && len(h.Responses) > h.limit {
		h.Responses = h.Responses[len(h.Responses)-h.limit:]
	}
	h.Cursor = len(h.Responses) - 1
}

// Previous moves back one entry; no-op at the start.
func (h *History) Previous() {
	if h.Cursor > 0 {
		h.Cursor--
	}
}

// Next moves forward one entry; no-op at the end.
func (h *History) Next() {
	if h.Cursor < len(h.Responses)-1 {
		h.Cursor++
	}
}

// Current returns the entry under the cursor. ok is false for an empty
// history.
func (h *History) Current() (string, bool) {
	if h.Empty() {
		return "", false
	}
	return h.Responses[h.Cursor], true
}

func (h *History) HasPrevious() bool {
	return h.Cursor > 0
}

func (h *History) HasNext() bool {
	return h.Cursor < len(h.Responses)-1
}

// clamp repairs a cursor read back from a session that no longer matches
// its list (limit lowered, tampered value).
func (h *History) clamp() {
	if h.limit > 0 && len(h.Responses) > h.limit {
		h.Responses = h.Responses[len(h.Responses)-h.limit:]
	}
	switch {
	case len(h.Responses) == 0:
		h.Cursor = 0
	case h.Cursor < 0:
		h.Cursor = 0
	case h.Cursor > len(h.Responses)-1:
		h.Cursor = len(h.Responses) - 1
	}
}

// Load reads the history stored in the session. A missing or unreadable
// value yields an empty history.
func Load(session sessions.Session, limit int) *History {
	h := New(limit)

	raw, ok := session.Get(sessionKey).(string)
	if !ok || raw == "" {
		return h
	}
	if err := json.Unmarshal([]byte(raw), h); err != nil {
		return New(limit)
	}
	h.clamp()
	return h
}

// Save writes the history into the session. The caller saves the session.
func Save(session sessions.Session, h *History) error {
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	session.Set(sessionKey, string(data))
	return nil
}

func Clear(session sessions.Session) {
	session.Delete(sessionKey)
}
