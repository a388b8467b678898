package tasks

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/dayplanner/internal/common"
	"github.com/dmitrijs2005/dayplanner/internal/server/models"
)

// lockQ is the per-owner advisory lock taken before every ID assignment.
// Expectations are matched in order, so the tests also pin down that the
// lock precedes the insert.
const lockQ = `(?s)^SELECT\s+pg_advisory_xact_lock\(hashtext\(\$1\)\)\s*$`

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestListByOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*title,\s*priority,\s*due,\s*completed,\s*note\s+FROM\s+tasks\s+WHERE\s+owner\s*=\s*\$1\s+ORDER\s+BY\s+pos\s*$`

	rows := sqlmock.NewRows([]string{"id", "title", "priority", "due", "completed", "note"}).
		AddRow(1, "Buy milk", "High", "2026-01-02 10:00:00", false, "").
		AddRow(2, "Call mom", "Low", "", true, "done yesterday")
	mock.ExpectQuery(q).
		WithArgs("alice").
		WillReturnRows(rows)

	got, err := repo.ListByOwner(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListByOwner error: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Buy milk" || got[1].Priority != models.PriorityLow {
		t.Fatalf("unexpected tasks: %+v", got)
	}
}

func TestAppend_AssignsNextID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+tasks\s*\(owner,\s*id,\s*pos,.*\)\s*SELECT\s+\$1,.*FROM\s+tasks\s+WHERE\s+owner\s*=\s*\$1\s+RETURNING\s+id\s*$`

	mock.ExpectBegin()
	mock.ExpectExec(lockQ).
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q).
		WithArgs("alice", "Buy milk", "High", "2026-01-02 10:00:00", false, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	task := models.Task{Title: "Buy milk", Priority: models.PriorityHigh, Due: "2026-01-02 10:00:00"}
	got, err := repo.Append(context.Background(), "alice", task)
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if got.ID != 3 {
		t.Fatalf("expected ID 3, got %d", got.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAppend_RollsBackOnError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(lockQ).
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+tasks`).
		WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	_, err := repo.Append(context.Background(), "alice", models.Task{Title: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+tasks\s+WHERE\s+owner\s*=\s*\$1\s+AND\s+id\s*=\s*\$2\s*$`).
		WithArgs("alice", int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "alice", 99)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateFields_PartialUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+tasks\s+SET\s+completed\s*=\s*COALESCE\(\$3,\s*completed\),\s*note\s*=\s*COALESCE\(\$4,\s*note\)\s+WHERE\s+owner\s*=\s*\$1\s+AND\s+id\s*=\s*\$2\s*$`

	done := true
	mock.ExpectExec(q).
		WithArgs("alice", int64(1), &done, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateFields(context.Background(), "alice", 1, &done, nil); err != nil {
		t.Fatalf("UpdateFields error: %v", err)
	}
}

func TestApplyView_SkipsUnknownIDs(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+tasks\s+SET\s+completed\s*=\s*\$3,\s*note\s*=\s*\$4\s+WHERE\s+owner\s*=\s*\$1\s+AND\s+id\s*=\s*\$2\s*$`

	mock.ExpectBegin()
	mock.ExpectExec(q).
		WithArgs("alice", int64(1), true, "edited").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).
		WithArgs("alice", int64(999), false, "").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.ApplyView(context.Background(), "alice", []ViewEdit{
		{ID: 1, Completed: true, Note: "edited"},
		{ID: 999},
	})
	if err != nil {
		t.Fatalf("ApplyView error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestApplyView_NoEditsNoTx(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	if err := repo.ApplyView(context.Background(), "alice", nil); err != nil {
		t.Fatalf("ApplyView error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
