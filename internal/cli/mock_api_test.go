package cli

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"

	"task-list/internal/api"
	"task-list/internal/domain"
	"task-list/internal/errors"
	"task-list/internal/media"
	"task-list/internal/taskstore"
	"task-list/internal/validation"
)

// mockAPI implements the API interface for testing
type mockAPI struct {
	tasks       domain.TaskList
	nextID      int
	camera      media.Permission
	captureURI  string
	addErr      error
	shutdowns   int
	startups    int
	lastInput   api.AddTaskInput
	loadErr     error
	shutdownErr error
}

func newMockAPI(tasks ...domain.Task) *mockAPI {
	return &mockAPI{
		tasks:      domain.TaskList(tasks).Clone(),
		nextID:     100,
		camera:     media.PermissionGranted,
		captureURI: "file:///photos/new.jpg",
	}
}

func (m *mockAPI) Startup(ctx context.Context) api.StartupReport {
	m.startups++
	report := api.StartupReport{
		Camera: m.camera,
		Load:   taskstore.LoadResult{Found: len(m.tasks) > 0, Count: len(m.tasks), Err: m.loadErr},
	}
	if m.camera != media.PermissionGranted {
		report.CameraMessage = media.CameraPermissionMessage
	}
	return report
}

func (m *mockAPI) Shutdown(ctx context.Context) error {
	m.shutdowns++
	return m.shutdownErr
}

func (m *mockAPI) ListTasks(ctx context.Context) (domain.TaskList, error) {
	return m.tasks.Clone(), nil
}

func (m *mockAPI) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.NewValidationError("invalid task ID", nil)
	}
	task, ok := m.tasks.Find(id)
	if !ok {
		return nil, errors.NewNotFoundError("task", id)
	}
	return &task, nil
}

func (m *mockAPI) CameraPermission(ctx context.Context) media.Permission {
	return m.camera
}

func (m *mockAPI) AddTask(ctx context.Context, input api.AddTaskInput) (*api.AddTaskResult, error) {
	m.lastInput = input
	if m.addErr != nil {
		return nil, m.addErr
	}
	if err := validation.NewTaskValidator().ValidateTaskName(input.Name); err != nil {
		return nil, errors.NewValidationError("invalid task", err)
	}

	result := &api.AddTaskResult{}
	candidate := domain.TaskCandidate{Name: strings.TrimSpace(input.Name), Description: input.Description}
	switch input.Image.Kind {
	case api.ImageGallery:
		candidate.Image = domain.StringPtr(media.FileURI(input.Image.Path))
	case api.ImageCamera:
		if m.camera != media.PermissionGranted {
			err := errors.NewPermissionError("capture photo", "camera")
			err.Message = media.CameraPermissionMessage
			return nil, err
		}
		if m.captureURI == "" {
			result.ImageCanceled = true
		}
		candidate.Image = domain.StringPtr(m.captureURI)
	}

	task := domain.NewTask(strconv.Itoa(m.nextID), candidate)
	m.nextID++
	m.tasks = append(m.tasks, task)

	result.Task = task
	result.Tasks = m.tasks.Clone()
	return result, nil
}

func (m *mockAPI) ToggleTask(ctx context.Context, id string) (domain.TaskList, error) {
	if i := m.tasks.IndexOf(id); i >= 0 {
		m.tasks[i].IsDone = !m.tasks[i].IsDone
	}
	return m.tasks.Clone(), nil
}

func (m *mockAPI) DeleteTask(ctx context.Context, id string) (domain.TaskList, error) {
	if i := m.tasks.IndexOf(id); i >= 0 {
		m.tasks = append(m.tasks[:i:i], m.tasks[i+1:]...)
	}
	return m.tasks.Clone(), nil
}

var _ api.API = (*mockAPI)(nil)

// setupTestApp returns an App over a mock API with captured output
func setupTestApp(t *testing.T, tasks ...domain.Task) (*App, *mockAPI, *bytes.Buffer) {
	t.Helper()
	mock := newMockAPI(tasks...)
	out := &bytes.Buffer{}
	app := NewApp(mock, WithOutput(out), WithErrorOutput(&bytes.Buffer{}), WithInput(strings.NewReader("")))
	return app, mock, out
}

// syncBuffer is a bytes.Buffer safe to read while a command writes to it
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
