package task

import (
	"time"

	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusSuccess JobStatus = "success"
	JobStatusFailed  JobStatus = "failed"
)

// Task is a scheduled task definition, kept in sync with the scheduler.
type Task struct {
	Name      string    `gorm:"column:name;primaryKey;type:varchar(100)"`
	Schedule  string    `gorm:"column:schedule;type:varchar(50)"` // cron format
	Queue     string    `gorm:"column:queue;type:varchar(20)"`
	IsActive  bool      `gorm:"column:is_active;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Job is one dispatch of a task and its execution outcome.
type Job struct {
	ID          string         `gorm:"column:id;primaryKey;size:64"`
	Name        string         `gorm:"column:name;index;type:varchar(100);not null"`
	Status      JobStatus      `gorm:"column:status;type:varchar(20);default:'pending'"`
	ErrorMsg    string         `gorm:"column:error_msg;type:text"`
	StartedAt   *time.Time     `gorm:"column:started_at"`
	CompletedAt *time.Time     `gorm:"column:completed_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	Metadata    datatypes.JSON `gorm:"column:metadata"`
}
