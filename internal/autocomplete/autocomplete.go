// Package autocomplete maintains the distinct-value vocabulary for one
// filterable field and answers incremental substring queries against it.
// One parameterized Completer is instantiated per field (CPU labels,
// user names); both behave identically.
package autocomplete

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/energy-blueprint/leaderboard/internal/domain"
	"github.com/energy-blueprint/leaderboard/internal/query"
)

// DefaultLimit caps the candidate list to bound render cost.
const DefaultLimit = 200

// State is the panel state.
type State int

const (
	Closed State = iota
	Open
)

// Completer is the suggestion state machine for one input field. It owns
// no snapshot: the current Run collection is passed into each opening
// event, and the caller re-runs its query engine alongside Input.
type Completer struct {
	coll    *collate.Collator
	limit   int
	extract func(domain.Run) string

	state        State
	input        string
	vocabulary   []string
	candidates   []string
	highlight    int
	suppressBlur bool
}

// New builds a Completer over the field selected by extract.
func New(extract func(domain.Run) string) *Completer {
	return &Completer{
		coll:      collate.New(language.Und, collate.Loose),
		limit:     DefaultLimit,
		extract:   extract,
		highlight: -1,
	}
}

// NewCPU completes CPU labels.
func NewCPU() *Completer {
	return New(func(r domain.Run) string { return r.CPULabel })
}

// NewUser completes user names.
func NewUser() *Completer {
	return New(func(r domain.Run) string { return r.DisplayName() })
}

// State returns the current panel state.
func (c *Completer) State() State { return c.state }

// Value returns the current input text.
func (c *Completer) Value() string { return c.input }

// Candidates returns the capped, filtered candidate list.
func (c *Completer) Candidates() []string { return c.candidates }

// Highlight returns the highlighted index, -1 when nothing matches.
func (c *Completer) Highlight() int { return c.highlight }

// Focus opens the panel, recomputing the vocabulary from rows and
// filtering it against the current input.
func (c *Completer) Focus(rows []domain.Run) {
	c.open(rows)
}

// Input opens the panel if needed, updates the input text, and
// re-filters. The caller re-runs its query engine with the same text so
// the result list updates live; filtering is not gated on selecting a
// suggestion.
func (c *Completer) Input(rows []domain.Run, text string) {
	c.input = text
	c.open(rows)
}

func (c *Completer) open(rows []domain.Run) {
	if c.state == Closed {
		c.vocabulary = vocabulary(rows, c.extract, c.coll)
		c.state = Open
	}
	c.refilter()
}

// MoveDown advances the highlight by one, clamped; no wraparound.
func (c *Completer) MoveDown() {
	if c.state != Open || len(c.candidates) == 0 {
		return
	}
	if c.highlight < len(c.candidates)-1 {
		c.highlight++
	}
}

// MoveUp moves the highlight back by one, clamped at 0.
func (c *Completer) MoveUp() {
	if c.state != Open || len(c.candidates) == 0 {
		return
	}
	if c.highlight > 0 {
		c.highlight--
	}
}

// Enter commits the highlighted candidate into the input and closes the
// panel. It reports whether a value was committed.
func (c *Completer) Enter() (string, bool) {
	if c.state != Open || c.highlight < 0 || c.highlight >= len(c.candidates) {
		c.close()
		return "", false
	}
	c.input = c.candidates[c.highlight]
	c.close()
	return c.input, true
}

// Select commits the candidate at i, as chosen by pointer.
func (c *Completer) Select(i int) (string, bool) {
	if c.state != Open || i < 0 || i >= len(c.candidates) {
		return "", false
	}
	c.input = c.candidates[i]
	c.close()
	return c.input, true
}

// Escape closes the panel without committing; the input keeps its value.
func (c *Completer) Escape() {
	c.close()
}

// PointerDownOnPanel suppresses the next blur-driven close so a click on
// a panel entry registers before the panel is torn down.
func (c *Completer) PointerDownOnPanel() {
	c.suppressBlur = true
}

// Blur closes the panel unless a pointer action on the panel is pending.
func (c *Completer) Blur() {
	if c.suppressBlur {
		c.suppressBlur = false
		return
	}
	c.close()
}

func (c *Completer) close() {
	c.state = Closed
	c.candidates = nil
	c.highlight = -1
	c.suppressBlur = false
}

func (c *Completer) refilter() {
	matched := make([]string, 0, c.limit)
	for _, v := range c.vocabulary {
		if !query.Matches(c.input, v) {
			continue
		}
		matched = append(matched, v)
		if len(matched) == c.limit {
			break
		}
	}
	c.candidates = matched
	if len(matched) > 0 {
		c.highlight = 0
	} else {
		c.highlight = -1
	}
}

// vocabulary builds the distinct, non-empty value list: original case
// preserved, case-insensitively deduplicated, locale sorted.
func vocabulary(rows []domain.Run, extract func(domain.Run) string, coll *collate.Collator) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		v := extract(r)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	coll.SortStrings(out)
	return out
}
