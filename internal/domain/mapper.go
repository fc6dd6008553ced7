package domain

// TaskRecord is the persisted form of a Task. Field names match the
// snapshots written by earlier releases of the app.
type TaskRecord struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
	IsDone      bool    `json:"isDone"`
}

// TaskMapper handles conversion between domain and persisted Task models.
type TaskMapper struct{}

// NewTaskMapper creates a new TaskMapper instance.
func NewTaskMapper() *TaskMapper {
	return &TaskMapper{}
}

// ToRecord converts a domain Task to its persisted form.
func (m *TaskMapper) ToRecord(task Task) TaskRecord {
	return TaskRecord{
		ID:          task.ID,
		Name:        task.Name,
		Description: task.Description,
		Image:       cloneString(task.Image),
		IsDone:      task.IsDone,
	}
}

// FromRecord converts a persisted record to a domain Task. An empty image
// string is normalised to "no image".
func (m *TaskMapper) FromRecord(record TaskRecord) Task {
	image := cloneString(record.Image)
	if image != nil && *image == "" {
		image = nil
	}
	return Task{
		ID:          record.ID,
		Name:        record.Name,
		Description: record.Description,
		Image:       image,
		IsDone:      record.IsDone,
	}
}

// ToRecordSlice converts a TaskList to persisted records.
func (m *TaskMapper) ToRecordSlice(tasks TaskList) []TaskRecord {
	records := make([]TaskRecord, len(tasks))
	for i, task := range tasks {
		records[i] = m.ToRecord(task)
	}
	return records
}

// FromRecordSlice converts persisted records to a TaskList.
func (m *TaskMapper) FromRecordSlice(records []TaskRecord) TaskList {
	tasks := make(TaskList, len(records))
	for i, record := range records {
		tasks[i] = m.FromRecord(record)
	}
	return tasks
}
