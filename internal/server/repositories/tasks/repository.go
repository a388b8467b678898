// Package tasks defines the task repository contract and its PostgreSQL
// implementation. The flat-file implementation lives in the filestore
// package.
//
// Every mutating operation is atomic with respect to concurrent writers:
// implementations serialize their read-modify-write cycles (transaction or
// store lock) so IDs are never duplicated and edits are never lost halfway.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/dayplanner/internal/server/models"
)

// ViewEdit is one row coming back from the editable grid: the task ID plus
// the two fields the grid may change.
type ViewEdit struct {
	ID        int64
	Completed bool
	Note      string
}

type Repository interface {
	// ListByOwner returns the owner's tasks in storage order.
	ListByOwner(ctx context.Context, owner string) ([]models.Task, error)

	// Append stores a new task for the owner, assigning ID = max existing
	// ID + 1 (1 for an empty collection), and returns the stored task.
	Append(ctx context.Context, owner string, task models.Task) (*models.Task, error)

	// Delete removes the task or fails with common.ErrNotFound, leaving
	// the collection unchanged.
	Delete(ctx context.Context, owner string, id int64) error

	// UpdateFields partially updates a task: nil fields are untouched.
	// Unknown IDs fail with common.ErrNotFound.
	UpdateFields(ctx context.Context, owner string, id int64, completed *bool, note *string) error

	// ApplyView merges an edited grid snapshot back into the collection.
	// Only Completed and Note are written, matched by ID; edits whose ID
	// is not present are ignored, and tasks absent from the snapshot
	// (filtered out of the view) are left untouched.
	ApplyView(ctx context.Context, owner string, edits []ViewEdit) error
}
