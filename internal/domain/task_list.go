package domain

// TaskList is the ordered collection of all tasks. New tasks are appended;
// toggling and deleting never reorder the remainder.
type TaskList []Task

// IndexOf returns the position of the task with the given id, or -1.
func (l TaskList) IndexOf(id string) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether a task with the given id is present.
func (l TaskList) Contains(id string) bool {
	return l.IndexOf(id) >= 0
}

// Find returns the task with the given id.
func (l TaskList) Find(id string) (Task, bool) {
	if i := l.IndexOf(id); i >= 0 {
		return l[i].Clone(), true
	}
	return Task{}, false
}

// Clone returns a deep copy of the list. The copy of an empty list is an
// empty, non-nil list.
func (l TaskList) Clone() TaskList {
	out := make(TaskList, len(l))
	for i := range l {
		out[i] = l[i].Clone()
	}
	return out
}

// IDs returns the task ids in list order.
func (l TaskList) IDs() []string {
	ids := make([]string, len(l))
	for i := range l {
		ids[i] = l[i].ID
	}
	return ids
}

// Completed returns the number of tasks marked done.
func (l TaskList) Completed() int {
	n := 0
	for i := range l {
		if l[i].IsDone {
			n++
		}
	}
	return n
}

// Validate reports the first broken list invariant: a missing id, an empty
// name or a duplicated id.
func (l TaskList) Validate() error {
	return checkInvariants(l)
}
