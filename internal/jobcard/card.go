// Package jobcard keeps job cards as JSON files in one folder per status.
//
// A card for a piece of creative work lives at <root>/<status>/<id>.json.
// Moving a card means renaming the file into another status folder, which
// a human can also do by hand: the folder, not the status field inside the
// file, decides where a card is.
package jobcard

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aistudio/studio/internal/suggest"
)

var (
	ErrInvalidStatus   = errors.New("jobcard: invalid status")
	ErrInvalidPriority = errors.New("jobcard: invalid priority")
	ErrInvalidRole     = errors.New("jobcard: invalid role")
	ErrInvalidCard     = errors.New("jobcard: invalid card")
)

// Status is the workflow column of a card.
type Status string

const (
	StatusInbox  Status = "inbox"
	StatusTodo   Status = "todo"
	StatusDoing  Status = "doing"
	StatusReview Status = "review"
	StatusDone   Status = "done"
)

var statuses = []Status{StatusInbox, StatusTodo, StatusDoing, StatusReview, StatusDone}

// Statuses returns every status in workflow order.
func Statuses() []Status {
	return slices.Clone(statuses)
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return slices.Contains(statuses, s)
}

// Next returns the following status, or s itself for done.
func (s Status) Next() Status {
	i := slices.Index(statuses, s)
	if i < 0 || i == len(statuses)-1 {
		return s
	}
	return statuses[i+1]
}

// Prev returns the preceding status, or s itself for inbox.
func (s Status) Prev() Status {
	i := slices.Index(statuses, s)
	if i <= 0 {
		return s
	}
	return statuses[i-1]
}

// ParseStatus accepts a status name in any case.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if st.Valid() {
		return st, nil
	}
	return "", fmt.Errorf("%w: %q%s", ErrInvalidStatus, s, suggest.Hint(s, names(statuses)))
}

// Priority orders cards within a column.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

// Rank is 0 for low up to 3 for urgent, and -1 for unknown values.
func (p Priority) Rank() int {
	return slices.Index(priorities, p)
}

// ParsePriority accepts a priority name in any case. Empty means normal.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PriorityNormal, nil
	}
	if p := Priority(s); p.Rank() >= 0 {
		return p, nil
	}
	return "", fmt.Errorf("%w: %q%s", ErrInvalidPriority, s, suggest.Hint(s, names(priorities)))
}

// Card is one unit of work routed to a role.
type Card struct {
	ID       string    `json:"id"`
	Role     string    `json:"role"`
	Title    string    `json:"title"`
	Priority Priority  `json:"priority"`
	Status   Status    `json:"status"`
	Notes    string    `json:"notes,omitempty"`
	Tags     []string  `json:"tags,omitempty"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

// HasTag reports whether the card carries tag, compared case-insensitively.
func (c Card) HasTag(tag string) bool {
	return slices.ContainsFunc(c.Tags, func(t string) bool { return strings.EqualFold(t, tag) })
}

// ShortID is the first eight characters of the ID.
func (c Card) ShortID() string {
	if len(c.ID) > 8 {
		return c.ID[:8]
	}
	return c.ID
}

// CheckRole validates role against the allowed set. An empty set allows
// any non-empty role.
func CheckRole(role string, allowed []string) error {
	if role == "" {
		return fmt.Errorf("%w: empty role", ErrInvalidRole)
	}
	if len(allowed) == 0 || slices.ContainsFunc(allowed, func(r string) bool { return strings.EqualFold(r, role) }) {
		return nil
	}
	return fmt.Errorf("%w: %q%s", ErrInvalidRole, role, suggest.Hint(role, allowed))
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
