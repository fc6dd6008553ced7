package api

import (
	"context"

	"go.uber.org/zap"

	"task-list/internal/domain"
	"task-list/internal/errors"
	"task-list/internal/media"
	"task-list/internal/validation"
)

type taskAPI struct {
	store     TaskStore
	media     MediaService
	validator *validation.TaskValidator
	logger    *zap.Logger
}

// Option configures the API
type Option func(*taskAPI)

// WithValidator sets the validator used for early input checks. It should
// match the one the task store was built with.
func WithValidator(v *validation.TaskValidator) Option {
	return func(a *taskAPI) {
		a.validator = v
	}
}

// New creates a new API instance.
func New(store TaskStore, mediaService MediaService, logger *zap.Logger, opts ...Option) API {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &taskAPI{
		store:     store,
		media:     mediaService,
		validator: validation.NewTaskValidator(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *taskAPI) Startup(ctx context.Context) StartupReport {
	report := StartupReport{
		Camera: a.media.CheckCameraPermission(ctx),
	}
	if report.Camera != media.PermissionGranted {
		report.CameraMessage = media.CameraPermissionMessage
		a.logger.Info("camera unavailable", zap.String("reason", media.CameraPermissionMessage))
	}

	report.Load = a.store.Load(ctx)
	if report.Load.Err != nil {
		a.logger.Warn("starting with current task list", zap.Error(report.Load.Err))
	}
	return report
}

func (a *taskAPI) Shutdown(ctx context.Context) error {
	return a.store.Close(ctx)
}

func (a *taskAPI) ListTasks(ctx context.Context) (domain.TaskList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.store.Tasks(), nil
}

func (a *taskAPI) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	if err := a.validateID(id); err != nil {
		return nil, err
	}
	task, ok := a.store.Get(id)
	if !ok {
		return nil, errors.NewNotFoundError("task", id)
	}
	return &task, nil
}

func (a *taskAPI) CameraPermission(ctx context.Context) media.Permission {
	return a.media.CheckCameraPermission(ctx)
}

func (a *taskAPI) AddTask(ctx context.Context, input AddTaskInput) (*AddTaskResult, error) {
	candidate := domain.TaskCandidate{
		Name:        input.Name,
		Description: input.Description,
	}

	// Reject a bad name before asking the user for a photo.
	if err := a.validator.ValidateTaskName(candidate.Name); err != nil {
		return nil, errors.NewValidationError("invalid task", err)
	}

	image, err := a.acquireImage(ctx, input.Image)
	if err != nil {
		return nil, err
	}
	candidate.Image = domain.StringPtr(image.URI)

	list, err := a.store.Add(candidate)
	if err != nil {
		return nil, err
	}

	return &AddTaskResult{
		Task:          list[len(list)-1],
		Tasks:         list,
		ImageCanceled: image.Canceled,
	}, nil
}

func (a *taskAPI) ToggleTask(ctx context.Context, id string) (domain.TaskList, error) {
	if err := a.validateID(id); err != nil {
		return nil, err
	}
	return a.store.ToggleDone(id), nil
}

func (a *taskAPI) DeleteTask(ctx context.Context, id string) (domain.TaskList, error) {
	if err := a.validateID(id); err != nil {
		return nil, err
	}
	return a.store.Delete(id), nil
}

func (a *taskAPI) acquireImage(ctx context.Context, source ImageSource) (media.Result, error) {
	switch source.Kind {
	case ImageNone:
		return media.Result{}, nil
	case ImageGallery:
		return a.media.PickImage(ctx, source.Path)
	case ImageCamera:
		return a.media.CapturePhoto(ctx)
	default:
		return media.Result{}, errors.NewInvalidInputError("image source", source.Kind, "unknown image source")
	}
}

func (a *taskAPI) validateID(id string) error {
	if err := a.validator.ValidateTaskID(id); err != nil {
		return errors.NewValidationError("invalid task ID", err)
	}
	return nil
}
