package model

import "time"

type SprintStatus string

const (
	SprintOpen       SprintStatus = "OPEN"
	SprintInProgress SprintStatus = "IN_PROGRESS"
	SprintCompleted  SprintStatus = "COMPLETED"
)

func (s SprintStatus) Valid() bool {
	switch s {
	case SprintOpen, SprintInProgress, SprintCompleted:
		return true
	}
	return false
}

type Sprint struct {
	ID           int          `json:"id"`
	ProjectID    int          `json:"project_id"`
	Name         string       `json:"name"`
	StartDate    time.Time    `json:"start_date"`
	DurationDays int          `json:"duration_days"`
	Status       SprintStatus `json:"status"`
	IsDeleted    bool         `json:"is_deleted"`
	DeletedAt    *time.Time   `json:"deleted_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	// TaskCount is populated by list queries only.
	TaskCount int `json:"task_count,omitempty"`
}
