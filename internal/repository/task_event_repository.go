package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskEventRepository reads the append-only transition history. Events are
// written by TaskRepository inside the transaction that changes the task.
type TaskEventRepository interface {
	FindByTask(ctx context.Context, taskID string) ([]*TaskEvent, error)
	HasKind(ctx context.Context, taskID, kind string) (bool, error)
}

type pgTaskEventRepository struct {
	pool *pgxpool.Pool
}

func NewTaskEventRepository(pool *pgxpool.Pool) TaskEventRepository {
	return &pgTaskEventRepository{pool: pool}
}

func insertEvent(ctx context.Context, tx pgx.Tx, e *TaskEvent) error {
	return tx.QueryRow(ctx, `
		INSERT INTO task_events (task_id, actor_id, kind, from_status, to_status, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, e.TaskID, e.ActorID, e.Kind, e.FromStatus, e.ToStatus, e.Note).Scan(&e.ID, &e.CreatedAt)
}

func (r *pgTaskEventRepository) FindByTask(ctx context.Context, taskID string) ([]*TaskEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, actor_id, kind, from_status, to_status, note, created_at
		FROM task_events
		WHERE task_id = $1
		ORDER BY created_at, id
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*TaskEvent
	for rows.Next() {
		e := &TaskEvent{}
		if err := rows.Scan(&e.ID, &e.TaskID, &e.ActorID, &e.Kind, &e.FromStatus, &e.ToStatus, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *pgTaskEventRepository) HasKind(ctx context.Context, taskID, kind string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM task_events WHERE task_id = $1 AND kind = $2)
	`, taskID, kind).Scan(&exists)
	return exists, err
}
