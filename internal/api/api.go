package api

import (
	"context"

	"task-list/internal/domain"
	"task-list/internal/media"
	"task-list/internal/taskstore"
)

// ImageSourceKind says where the photo for a new task comes from
type ImageSourceKind int

const (
	ImageNone ImageSourceKind = iota
	ImageGallery
	ImageCamera
)

// ImageSource selects the photo for a new task. Path is only used for
// gallery picks.
type ImageSource struct {
	Kind ImageSourceKind
	Path string
}

// GalleryImage picks an existing image file.
func GalleryImage(path string) ImageSource {
	return ImageSource{Kind: ImageGallery, Path: path}
}

// CameraImage captures a new photo.
func CameraImage() ImageSource {
	return ImageSource{Kind: ImageCamera}
}

// AddTaskInput is what the add-task form collects
type AddTaskInput struct {
	Name        string
	Description string
	Image       ImageSource
}

// AddTaskResult carries the created task and the updated list.
// ImageCanceled is set when the picker or camera was dismissed and the task
// was created without a photo.
type AddTaskResult struct {
	Task          domain.Task
	Tasks         domain.TaskList
	ImageCanceled bool
}

// StartupReport summarises the permission check and the initial load.
// Neither outcome blocks startup.
type StartupReport struct {
	Camera        media.Permission
	CameraMessage string
	Load          taskstore.LoadResult
}

// API is the task list surface shared by the CLI and the HTTP server
type API interface {
	// ========== Lifecycle ==========

	// Startup checks camera permission and loads saved tasks
	Startup(ctx context.Context) StartupReport

	// Shutdown drains pending writes
	Shutdown(ctx context.Context) error

	// ========== Queries ==========

	// ListTasks returns every task in insertion order
	ListTasks(ctx context.Context) (domain.TaskList, error)

	// GetTask returns one task or a not found error
	GetTask(ctx context.Context, id string) (*domain.Task, error)

	// CameraPermission reports whether photos can be captured
	CameraPermission(ctx context.Context) media.Permission

	// ========== Mutations ==========

	// AddTask acquires the optional photo then creates the task
	AddTask(ctx context.Context, input AddTaskInput) (*AddTaskResult, error)

	// ToggleTask flips the done flag; unknown ids leave the list unchanged
	ToggleTask(ctx context.Context, id string) (domain.TaskList, error)

	// DeleteTask removes a task; unknown ids leave the list unchanged
	DeleteTask(ctx context.Context, id string) (domain.TaskList, error)
}

// TaskStore is the subset of taskstore.Store the API depends on
type TaskStore interface {
	Load(ctx context.Context) taskstore.LoadResult
	Add(candidate domain.TaskCandidate) (domain.TaskList, error)
	ToggleDone(id string) domain.TaskList
	Delete(id string) domain.TaskList
	Tasks() domain.TaskList
	Get(id string) (domain.Task, bool)
	Close(ctx context.Context) error
}

// MediaService is the subset of media.Service the API depends on
type MediaService interface {
	CheckCameraPermission(ctx context.Context) media.Permission
	PickImage(ctx context.Context, path string) (media.Result, error)
	CapturePhoto(ctx context.Context) (media.Result, error)
}

var (
	_ TaskStore    = (*taskstore.Store)(nil)
	_ MediaService = (*media.Service)(nil)
)
