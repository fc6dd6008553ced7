package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SnapshotVersion is the schema version written by EncodeSnapshot.
const SnapshotVersion = 1

// snapshot is the envelope stored under the task list key. Version 0 is the
// bare JSON array written before the envelope existed.
type snapshot struct {
	Version int          `json:"version"`
	Tasks   []TaskRecord `json:"tasks"`
}

// EncodeSnapshot serialises the full list.
func EncodeSnapshot(tasks TaskList) ([]byte, error) {
	records := NewTaskMapper().ToRecordSlice(tasks)
	data, err := json.Marshal(snapshot{Version: SnapshotVersion, Tasks: records})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a stored snapshot. It accepts both the versioned
// envelope and the legacy bare array, and rejects data that breaks the list
// invariants (unique ids, non-empty names).
func DecodeSnapshot(data []byte) (TaskList, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode snapshot: empty value")
	}

	var records []TaskRecord
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode legacy snapshot: %w", err)
		}
	case '{':
		var env snapshot
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		if env.Version < 1 || env.Version > SnapshotVersion {
			return nil, fmt.Errorf("decode snapshot: unsupported version %d", env.Version)
		}
		records = env.Tasks
	default:
		return nil, fmt.Errorf("decode snapshot: unexpected leading byte %q", trimmed[0])
	}

	tasks := NewTaskMapper().FromRecordSlice(records)
	if err := checkInvariants(tasks); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return tasks, nil
}

func checkInvariants(tasks TaskList) error {
	seen := make(map[string]struct{}, len(tasks))
	for i, task := range tasks {
		if task.ID == "" {
			return fmt.Errorf("task %d has no id", i)
		}
		if strings.TrimSpace(task.Name) == "" {
			return fmt.Errorf("task %s has an empty name", task.ID)
		}
		if _, dup := seen[task.ID]; dup {
			return fmt.Errorf("duplicate task id %s", task.ID)
		}
		seen[task.ID] = struct{}{}
	}
	return nil
}
