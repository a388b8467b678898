// Package models holds the persistent data model: accounts, tasks, and
// verification challenges.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Priority of a task. Stored as its display string.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Rank returns the sort rank of the priority: High sorts before Medium,
// Medium before Low. Unknown priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Valid reports whether p is one of the three known priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// AllPriorities lists the known priorities in rank order.
func AllPriorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

// DueLayout is the canonical timestamp format of the Due field.
const DueLayout = "2006-01-02 15:04:05"

// Task is a single planner entry. ID is unique and immutable within the
// owning collection; Completed and Note are the only fields the grid view
// may edit after creation.
type Task struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Priority  Priority `json:"priority"`
	Due       string   `json:"due"`
	Completed bool     `json:"completed"`
	Note      string   `json:"note"`
}

// DueTime parses the Due field. The canonical layout is DueLayout; a "T"
// date/time separator and a bare date are tolerated because both appear in
// legacy records. ok is false when the field is empty or unparsable, in
// which case the task is excluded from date-based views and sorts last.
func (t Task) DueTime() (parsed time.Time, ok bool) {
	s := strings.TrimSpace(strings.Replace(t.Due, "T", " ", 1))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{DueLayout, "2006-01-02 15:04", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// DueStatus classifies how close a task is to its deadline. Rendering is up
// to the caller; the buckets match the planner's deadline highlighting.
type DueStatus string

const (
	DueStatusUnknown  DueStatus = "unknown"
	DueStatusOverdue  DueStatus = "overdue"
	DueStatusSoon     DueStatus = "soon"      // within 3 days
	DueStatusThisWeek DueStatus = "this_week" // within 7 days
	DueStatusLater    DueStatus = "later"
)

// DueStatusAt returns the deadline bucket of the task relative to now.
func (t Task) DueStatusAt(now time.Time) DueStatus {
	due, ok := t.DueTime()
	if !ok {
		return DueStatusUnknown
	}
	diff := due.Sub(now)
	switch {
	case diff < 0:
		return DueStatusOverdue
	case diff <= 3*24*time.Hour:
		return DueStatusSoon
	case diff <= 7*24*time.Hour:
		return DueStatusThisWeek
	default:
		return DueStatusLater
	}
}

// taskJSON carries both the unified schema and the legacy per-account one
// ({title, description, due_timestamp, status}) so old records migrate
// transparently on load.
type taskJSON struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Priority  Priority `json:"priority"`
	Due       string   `json:"due"`
	Completed bool     `json:"completed"`
	Note      string   `json:"note"`

	LegacyDescription *string `json:"description,omitempty"`
	LegacyDue         *string `json:"due_timestamp,omitempty"`
	LegacyStatus      *string `json:"status,omitempty"`
}

// UnmarshalJSON accepts both task schemas. Legacy rows map description to
// Note and a terminal status to Completed; they get priority Low and no ID,
// the store assigns the next free ID on load.
func (t *Task) UnmarshalJSON(b []byte) error {
	var raw taskJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	t.ID = raw.ID
	t.Title = raw.Title
	t.Priority = raw.Priority
	t.Due = raw.Due
	t.Completed = raw.Completed
	t.Note = raw.Note

	if raw.LegacyDue != nil && t.Due == "" {
		t.Due = *raw.LegacyDue
	}
	if raw.LegacyDescription != nil && t.Note == "" {
		t.Note = *raw.LegacyDescription
	}
	if raw.LegacyStatus != nil {
		switch strings.ToLower(*raw.LegacyStatus) {
		case "done", "completed", "finished":
			t.Completed = true
		}
	}
	if !t.Priority.Valid() {
		t.Priority = PriorityLow
	}

	return nil
}
