package tasks

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/dayplanner/internal/common"
	"github.com/dmitrijs2005/dayplanner/internal/dbx"
	"github.com/dmitrijs2005/dayplanner/internal/server/models"
)

// PostgresRepository holds the full *sql.DB rather than a DBTX because its
// multi-statement operations (Append, ApplyView) open their own
// transactions via dbx.WithTx.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, owner string) ([]models.Task, error) {
	query :=
		`SELECT id, title, priority, due, completed, note FROM tasks
		 WHERE owner = $1
		 ORDER BY pos
		 `

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Priority, &t.Due, &t.Completed, &t.Note); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Append(ctx context.Context, owner string, task models.Task) (*models.Task, error) {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// Per-owner advisory lock: two concurrent appends must not read the
		// same MAX(id). Released with the transaction.
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, owner); err != nil {
			return err
		}

		query :=
			`INSERT INTO tasks (owner, id, pos, title, priority, due, completed, note)
			 SELECT $1,
			        COALESCE(MAX(id), 0) + 1,
			        COALESCE(MAX(pos), 0) + 1,
			        $2, $3, $4, $5, $6
			 FROM tasks WHERE owner = $1
			 RETURNING id
			 `

		return tx.QueryRowContext(ctx, query,
			owner, task.Title, string(task.Priority), task.Due, task.Completed, task.Note).Scan(&task.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &task, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner = $1 AND id = $2`, owner, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) UpdateFields(ctx context.Context, owner string, id int64, completed *bool, note *string) error {
	query :=
		`UPDATE tasks
		 SET completed = COALESCE($3, completed),
		     note      = COALESCE($4, note)
		 WHERE owner = $1 AND id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, owner, id, completed, note)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) ApplyView(ctx context.Context, owner string, edits []ViewEdit) error {
	if len(edits) == 0 {
		return nil
	}

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query :=
			`UPDATE tasks SET completed = $3, note = $4
			 WHERE owner = $1 AND id = $2
			 `

		for _, e := range edits {
			// Unknown IDs affect zero rows and are ignored on purpose.
			if _, err := tx.ExecContext(ctx, query, owner, e.ID, e.Completed, e.Note); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
