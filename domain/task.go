package domain

import "time"

// Status describes the lifecycle state of a task.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusDone
}

// DeadlineCategory classifies a deadline relative to the current date.
type DeadlineCategory string

const (
	CategoryOverdue DeadlineCategory = "overdue"
	CategoryToday   DeadlineCategory = "today"
	CategoryFuture  DeadlineCategory = "future"
)

// Task represents a single to-do item owned by one user.
type Task struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Text       string     `json:"text"`
	Deadline   Date       `json:"deadline"`
	Status     Status     `json:"status"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (t *Task) IsDone() bool {
	return t != nil && t.Status == StatusDone
}

// Categorize buckets the task's deadline against the given reference date.
func (t *Task) Categorize(today Date) DeadlineCategory {
	switch {
	case t.Deadline.Before(today):
		return CategoryOverdue
	case t.Deadline.After(today):
		return CategoryFuture
	default:
		return CategoryToday
	}
}

// MarkDone transitions the task into done, stamping the completion instant.
func (t *Task) MarkDone(now time.Time) {
	t.Status = StatusDone
	t.FinishedAt = &now
}

// MarkPending transitions the task back to pending and clears the completion instant.
func (t *Task) MarkPending() {
	t.Status = StatusPending
	t.FinishedAt = nil
}
