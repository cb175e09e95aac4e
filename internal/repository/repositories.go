package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	// Write side (pgxpool)
	UserRepo         UserRepository
	TeamRepo         TeamRepository
	TaskRepo         TaskRepository
	TaskEventRepo    TaskEventRepository
	TimeLogRepo      TimeLogRepository
	NotificationRepo NotificationRepository

	// Read side (sqlx)
	ReportRepo ReportRepository
}

func NewRepositories(pool *pgxpool.Pool, db *sqlx.DB) *Repositories {
	return &Repositories{
		UserRepo:         NewUserRepository(pool),
		TeamRepo:         NewTeamRepository(pool),
		TaskRepo:         NewTaskRepository(pool),
		TaskEventRepo:    NewTaskEventRepository(pool),
		TimeLogRepo:      NewTimeLogRepository(pool),
		NotificationRepo: NewNotificationRepository(pool),
		ReportRepo:       NewReportRepository(db),
	}
}
