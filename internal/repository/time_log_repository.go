package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TimeLogRepository interface {
	// Open inserts a new open segment. A second open segment for the same
	// user fails with a DuplicateError on ConstraintOneOpenTimer.
	Open(ctx context.Context, log *TimeLog) error
	// CloseOpenForTask closes the user's open segment on taskID.
	// ErrNotFound when there is none.
	CloseOpenForTask(ctx context.Context, userID, taskID string, end time.Time, pauseReason *string) (*TimeLog, error)
	// CloseOpen closes whatever segment the user has open.
	CloseOpen(ctx context.Context, userID string, end time.Time) (*TimeLog, error)
	FindOpen(ctx context.Context, userID string) (*TimeLog, error)
	FindLatest(ctx context.Context, userID string) (*TimeLog, error)
	FindByTask(ctx context.Context, taskID string) ([]*TimeLog, error)
	FindOpenStartedBefore(ctx context.Context, before time.Time) ([]*TimeLog, error)
}

type pgTimeLogRepository struct {
	pool *pgxpool.Pool
}

func NewTimeLogRepository(pool *pgxpool.Pool) TimeLogRepository {
	return &pgTimeLogRepository{pool: pool}
}

const timeLogColumns = `id, task_id, user_id, start_time, end_time, duration_seconds, pause_reason, created_at`

func scanTimeLog(row pgx.Row) (*TimeLog, error) {
	tl := &TimeLog{}
	err := row.Scan(
		&tl.ID, &tl.TaskID, &tl.UserID, &tl.StartTime, &tl.EndTime,
		&tl.DurationSeconds, &tl.PauseReason, &tl.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tl, nil
}

func (r *pgTimeLogRepository) Open(ctx context.Context, log *TimeLog) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO time_logs (task_id, user_id, start_time)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, log.TaskID, log.UserID, log.StartTime).Scan(&log.ID, &log.CreatedAt)
	return translateError(err)
}

// closeSet computes the duration in whole seconds, never negative.
const closeSet = `
	end_time = GREATEST($2::TIMESTAMPTZ, start_time),
	duration_seconds = FLOOR(EXTRACT(EPOCH FROM (GREATEST($2::TIMESTAMPTZ, start_time) - start_time)))::INTEGER
`

func (r *pgTimeLogRepository) CloseOpenForTask(ctx context.Context, userID, taskID string, end time.Time, pauseReason *string) (*TimeLog, error) {
	tl, err := scanTimeLog(r.pool.QueryRow(ctx, `
		UPDATE time_logs SET `+closeSet+`, pause_reason = $4
		WHERE user_id = $1 AND task_id = $3 AND end_time IS NULL
		RETURNING `+timeLogColumns, userID, end, taskID, pauseReason))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return tl, err
}

func (r *pgTimeLogRepository) CloseOpen(ctx context.Context, userID string, end time.Time) (*TimeLog, error) {
	tl, err := scanTimeLog(r.pool.QueryRow(ctx, `
		UPDATE time_logs SET `+closeSet+`
		WHERE user_id = $1 AND end_time IS NULL
		RETURNING `+timeLogColumns, userID, end))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return tl, err
}

func (r *pgTimeLogRepository) FindOpen(ctx context.Context, userID string) (*TimeLog, error) {
	tl, err := scanTimeLog(r.pool.QueryRow(ctx, `
		SELECT `+timeLogColumns+` FROM time_logs
		WHERE user_id = $1 AND end_time IS NULL
	`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return tl, err
}

func (r *pgTimeLogRepository) FindLatest(ctx context.Context, userID string) (*TimeLog, error) {
	tl, err := scanTimeLog(r.pool.QueryRow(ctx, `
		SELECT `+timeLogColumns+` FROM time_logs
		WHERE user_id = $1
		ORDER BY start_time DESC
		LIMIT 1
	`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return tl, err
}

func (r *pgTimeLogRepository) FindByTask(ctx context.Context, taskID string) ([]*TimeLog, error) {
	return r.list(ctx, `
		SELECT `+timeLogColumns+` FROM time_logs
		WHERE task_id = $1
		ORDER BY start_time
	`, taskID)
}

func (r *pgTimeLogRepository) FindOpenStartedBefore(ctx context.Context, before time.Time) ([]*TimeLog, error) {
	return r.list(ctx, `
		SELECT `+timeLogColumns+` FROM time_logs
		WHERE end_time IS NULL AND start_time < $1
		ORDER BY start_time
	`, before)
}

func (r *pgTimeLogRepository) list(ctx context.Context, query string, args ...interface{}) ([]*TimeLog, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*TimeLog
	for rows.Next() {
		tl, err := scanTimeLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, tl)
	}
	return logs, rows.Err()
}
