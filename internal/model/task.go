package model

import "time"

type TaskStatus string

const (
	TaskToDo       TaskStatus = "TO_DO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskQATesting  TaskStatus = "QA_TESTING"
	TaskPMReview   TaskStatus = "PM_REVIEW"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskOnHold     TaskStatus = "ON_HOLD"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskToDo, TaskInProgress, TaskQATesting, TaskPMReview, TaskCompleted, TaskOnHold:
		return true
	}
	return false
}

type Task struct {
	ID          int        `json:"id"`
	SprintID    int        `json:"sprint_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Assignees   []int      `json:"assignees"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      TaskStatus `json:"status"`
	IsDeleted   bool       `json:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AssignedTo reports whether userID is one of the task's assignees.
func (t *Task) AssignedTo(userID int) bool {
	for _, id := range t.Assignees {
		if id == userID {
			return true
		}
	}
	return false
}
