package model

import "time"

type ProjectStatus string

const (
	ProjectStarted   ProjectStatus = "STARTED"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectOnHold    ProjectStatus = "ON_HOLD"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStarted, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

type Project struct {
	ID        int           `json:"id"`
	Title     string        `json:"title"`
	Status    ProjectStatus `json:"status"`
	PMID      int           `json:"pm_id"`
	StartDate *time.Time    `json:"start_date,omitempty"`
	EndDate   *time.Time    `json:"end_date,omitempty"`
	IsDeleted bool          `json:"is_deleted"`
	DeletedAt *time.Time    `json:"deleted_at,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
