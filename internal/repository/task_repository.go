package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Transition is a compare-and-set status change plus the event recording it.
type Transition struct {
	TaskID string
	From   string
	To     string
	Event  *TaskEvent
}

type TaskRepository interface {
	// Create inserts the task and its "created" event together.
	Create(ctx context.Context, task *Task, event *TaskEvent) error
	FindByID(ctx context.Context, id string) (*Task, error)
	FindByTeam(ctx context.Context, teamID string) ([]*Task, error)
	// Transition applies t only if the task is still in t.From. It returns
	// ErrStatusChanged otherwise, and ErrNotFound when the task is missing.
	Transition(ctx context.Context, t Transition) (*Task, error)
	// Supersede closes source as Rejected and inserts replacement with a
	// reassigned_from link, in one transaction.
	Supersede(ctx context.Context, sourceID string, replacement *Task, actorID, note string) (*Task, error)
}

type pgTaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &pgTaskRepository{pool: pool}
}

const taskColumns = `id, title, description, team_id, assigned_to, created_by, priority, status,
	due_date, reassigned_from, completed_at, created_at, updated_at`

func scanTask(row pgx.Row) (*Task, error) {
	t := &Task{}
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.TeamID, &t.AssignedTo, &t.CreatedBy,
		&t.Priority, &t.Status, &t.DueDate, &t.ReassignedFrom, &t.CompletedAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func insertTask(ctx context.Context, tx pgx.Tx, task *Task) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO tasks (title, description, team_id, assigned_to, created_by, priority, status, due_date, reassigned_from)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`,
		task.Title, task.Description, task.TeamID, task.AssignedTo, task.CreatedBy,
		task.Priority, task.Status, task.DueDate, task.ReassignedFrom,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	return translateError(err)
}

func (r *pgTaskRepository) Create(ctx context.Context, task *Task, event *TaskEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertTask(ctx, tx, task); err != nil {
		return err
	}
	if event != nil {
		event.TaskID = task.ID
		if err := insertEvent(ctx, tx, event); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *pgTaskRepository) FindByID(ctx context.Context, id string) (*Task, error) {
	task, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return task, err
}

func (r *pgTaskRepository) FindByTeam(ctx context.Context, teamID string) ([]*Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE team_id = $1
		ORDER BY created_at DESC
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *pgTaskRepository) Transition(ctx context.Context, t Transition) (*Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	task, err := scanTask(tx.QueryRow(ctx, `
		UPDATE tasks
		SET status = $3::VARCHAR,
		    completed_at = CASE WHEN $3::VARCHAR = 'Completed' THEN NOW() ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+taskColumns, t.TaskID, t.From, t.To))
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, t.TaskID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrNotFound
		}
		return nil, ErrStatusChanged
	}
	if err != nil {
		return nil, err
	}

	if t.Event != nil {
		t.Event.TaskID = task.ID
		from := t.From
		t.Event.FromStatus = &from
		t.Event.ToStatus = t.To
		if err := insertEvent(ctx, tx, t.Event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *pgTaskRepository) Supersede(ctx context.Context, sourceID string, replacement *Task, actorID, note string) (*Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock the source so a concurrent approve cannot slip in between.
	var fromStatus string
	err = tx.QueryRow(ctx, `SELECT status FROM tasks WHERE id = $1 FOR UPDATE`, sourceID).Scan(&fromStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if fromStatus != "Todo" {
		return nil, ErrStatusChanged
	}

	if _, err := tx.Exec(ctx, `
		UPDATE tasks SET status = 'Rejected', updated_at = NOW() WHERE id = $1
	`, sourceID); err != nil {
		return nil, err
	}

	replacement.ReassignedFrom = &sourceID
	if err := insertTask(ctx, tx, replacement); err != nil {
		return nil, err
	}

	actor := &actorID
	if err := insertEvent(ctx, tx, &TaskEvent{
		TaskID: sourceID, ActorID: actor, Kind: "superseded",
		FromStatus: &fromStatus, ToStatus: "Rejected", Note: note,
	}); err != nil {
		return nil, err
	}
	if err := insertEvent(ctx, tx, &TaskEvent{
		TaskID: replacement.ID, ActorID: actor, Kind: "created",
		ToStatus: replacement.Status, Note: "reassigned from " + sourceID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return replacement, nil
}
