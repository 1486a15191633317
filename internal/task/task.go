// Package task defines the task tracker's domain types.
package task

import "time"

// Priority is the urgency of a task.
type Priority string

// Priorities.
const (
	Low    Priority = "Low"
	Medium Priority = "Medium"
	High   Priority = "High"
)

// Rank orders priorities: High=3, Medium=2, Low=1. Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case High:
		return 3 //nolint:mnd // priority rank
	case Medium:
		return 2 //nolint:mnd // priority rank
	case Low:
		return 1
	}
	return 0
}

// Status is the board column a task lives in.
type Status string

// Statuses, in board order.
const (
	Todo       Status = "Todo"
	InProgress Status = "InProgress"
	Done       Status = "Done"
)

// Statuses lists every status in board order.
var Statuses = []Status{Todo, InProgress, Done}

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{Low, Medium, High}

// User is a person tasks can be assigned to.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Task is a unit of work on the board.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`

	// AssignedToUser is resolved at read time and never written back.
	AssignedToUser *User `json:"assignedToUser,omitempty"`
}

// HasTag reports whether the task carries tag.
func (t *Task) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}

// AssigneeName returns the resolved assignee name, falling back to the raw id.
func (t *Task) AssigneeName() string {
	if t.AssignedToUser != nil && t.AssignedToUser.Name != "" {
		return t.AssignedToUser.Name
	}
	return t.AssignedTo
}

// CreateInput carries the fields a caller supplies when creating a task.
// UserID is the signed-in user, used as assignee when AssignedTo is empty.
type CreateInput struct {
	Title       string
	Description string
	Priority    Priority
	Deadline    *time.Time
	AssignedTo  string
	Tags        []string
	UserID      string
}

// UpdateInput replaces the editable fields of a task. Status and CreatedAt
// are not editable through it.
type UpdateInput struct {
	Title       string
	Description string
	Priority    Priority
	Deadline    *time.Time
	AssignedTo  string
	Tags        []string
}

// UpdateFrom builds an UpdateInput carrying t's current editable fields.
func UpdateFrom(t *Task) UpdateInput {
	return UpdateInput{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Deadline:    t.Deadline,
		AssignedTo:  t.AssignedTo,
		Tags:        append([]string(nil), t.Tags...),
	}
}
