package services

import (
	"context"
	"sort"
	"strings"

	"github.com/dmitrijs2005/dayplanner/internal/common"
	"github.com/dmitrijs2005/dayplanner/internal/server/models"
	"github.com/dmitrijs2005/dayplanner/internal/server/repositories/tasks"
)

// CompletionFilter narrows a view by completion state.
type CompletionFilter string

const (
	CompletionAll     CompletionFilter = "all"
	CompletionDone    CompletionFilter = "done"
	CompletionNotDone CompletionFilter = "not_done"
)

// SortKey orders a view.
type SortKey string

const (
	SortNone     SortKey = ""
	SortDueDate  SortKey = "due"
	SortPriority SortKey = "priority"
)

// ViewFilter describes one grid view: which tasks to show and in what order.
// An empty priority set means all priorities.
type ViewFilter struct {
	Priorities []models.Priority
	Completion CompletionFilter
	SortBy     SortKey
}

// TaskService owns the task collection operations and the pure view logic
// (filtering, sorting, grid merge).
type TaskService struct {
	tasks tasks.Repository
}

func NewTaskService(repo tasks.Repository) *TaskService {
	return &TaskService{tasks: repo}
}

// List returns the owner's tasks in storage order.
func (s *TaskService) List(ctx context.Context, owner string) ([]models.Task, error) {
	return s.tasks.ListByOwner(ctx, owner)
}

// Add validates and stores a new task. The title must be non-blank; an
// unknown priority falls back to Low rather than failing, matching the
// import paths.
func (s *TaskService) Add(ctx context.Context, owner string, task models.Task) (*models.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, common.ErrEmptyTitle
	}
	if !task.Priority.Valid() {
		task.Priority = models.PriorityLow
	}

	return s.tasks.Append(ctx, owner, task)
}

// Delete removes a task by ID.
func (s *TaskService) Delete(ctx context.Context, owner string, id int64) error {
	return s.tasks.Delete(ctx, owner, id)
}

// Update partially updates the editable fields of a task; nil means leave
// the field alone. Unknown IDs fail with ErrNotFound.
func (s *TaskService) Update(ctx context.Context, owner string, id int64, completed *bool, note *string) error {
	return s.tasks.UpdateFields(ctx, owner, id, completed, note)
}

// SetCompleted flips just the completion flag.
func (s *TaskService) SetCompleted(ctx context.Context, owner string, id int64, completed bool) error {
	return s.tasks.UpdateFields(ctx, owner, id, &completed, nil)
}

// SetNote replaces just the note.
func (s *TaskService) SetNote(ctx context.Context, owner string, id int64, note string) error {
	return s.tasks.UpdateFields(ctx, owner, id, nil, &note)
}

// MergeView writes an edited grid snapshot back. Only Completed and Note
// change; rows filtered out of the view and IDs that no longer exist are
// left alone.
func (s *TaskService) MergeView(ctx context.Context, owner string, edits []tasks.ViewEdit) error {
	return s.tasks.ApplyView(ctx, owner, edits)
}

// View lists the owner's tasks and applies the filter.
func (s *TaskService) View(ctx context.Context, owner string, f ViewFilter) ([]models.Task, error) {
	ts, err := s.tasks.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return FilterAndSort(ts, f), nil
}

// FilterAndSort applies a view filter to a task slice. The input is not
// modified. Sorting is stable, ties keep their stored order; tasks with an
// unparsable due date sort after every dated task.
func FilterAndSort(ts []models.Task, f ViewFilter) []models.Task {
	var allowed map[models.Priority]bool
	if len(f.Priorities) > 0 {
		allowed = make(map[models.Priority]bool, len(f.Priorities))
		for _, p := range f.Priorities {
			allowed[p] = true
		}
	}

	result := make([]models.Task, 0, len(ts))
	for _, t := range ts {
		if allowed != nil && !allowed[t.Priority] {
			continue
		}
		switch f.Completion {
		case CompletionDone:
			if !t.Completed {
				continue
			}
		case CompletionNotDone:
			if t.Completed {
				continue
			}
		}
		result = append(result, t)
	}

	switch f.SortBy {
	case SortDueDate:
		sort.SliceStable(result, func(i, j int) bool {
			di, iok := result[i].DueTime()
			dj, jok := result[j].DueTime()
			if iok != jok {
				return iok
			}
			if !iok {
				return false
			}
			return di.Before(dj)
		})
	case SortPriority:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].Priority.Rank() < result[j].Priority.Rank()
		})
	}

	return result
}
