package domain

import "strings"

// Task represents a single entry in the task list.
// This is a pure domain model without storage-specific concerns.
type Task struct {
	ID          string
	Name        string
	Description string
	Image       *string // file URI of an attached photo, nil when none
	IsDone      bool
}

// TaskCandidate carries the user-supplied fields for a task that has not
// been created yet.
type TaskCandidate struct {
	Name        string
	Description string
	Image       *string
}

// NewTask creates a Task from a candidate with the given id. New tasks are
// never done.
func NewTask(id string, candidate TaskCandidate) Task {
	return Task{
		ID:          id,
		Name:        candidate.Name,
		Description: candidate.Description,
		Image:       cloneString(candidate.Image),
		IsDone:      false,
	}
}

// IsValid checks if the task has valid data.
func (t Task) IsValid() bool {
	return t.ID != "" && strings.TrimSpace(t.Name) != ""
}

// HasImage reports whether a photo is attached.
func (t Task) HasImage() bool {
	return t.Image != nil && *t.Image != ""
}

// ImageURI returns the attached photo reference or an empty string.
func (t Task) ImageURI() string {
	if t.Image == nil {
		return ""
	}
	return *t.Image
}

// String returns the task name for display purposes.
func (t Task) String() string {
	return t.Name
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	t.Image = cloneString(t.Image)
	return t
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
