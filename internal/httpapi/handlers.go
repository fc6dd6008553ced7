package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"task-list/internal/api"
	"task-list/internal/domain"
	"task-list/internal/errors"
	"task-list/internal/validation"
)

// maxBodyBytes caps a create request; tasks carry an image URI, never bytes.
const maxBodyBytes = 64 << 10

// CreateTaskRequest is the body of POST /tasks. Image is the path of an
// existing picture; Camera asks the host to capture a new one.
type CreateTaskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	Camera      bool   `json:"camera,omitempty"`
}

// CreateTaskResponse is returned with 201 Created.
type CreateTaskResponse struct {
	Task          domain.TaskRecord `json:"task"`
	ImageCanceled bool              `json:"imageCanceled"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// TaskHandler handles HTTP requests for tasks.
type TaskHandler struct {
	api    api.API
	mapper *domain.TaskMapper
	logger *zap.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(apiInstance api.API, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{api: apiInstance, mapper: domain.NewTaskMapper(), logger: logger}
}

// ListTasks handles GET /tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.api.ListTasks(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.mapper.ToRecordSlice(tasks))
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, r, errors.NewInvalidInputError("body", nil, "invalid request payload"))
		return
	}
	if req.Image != "" && req.Camera {
		h.writeError(w, r, errors.NewInvalidInputError("image", req.Image, "choose either an image path or the camera"))
		return
	}

	input := api.AddTaskInput{Name: req.Name, Description: req.Description}
	switch {
	case req.Camera:
		input.Image = api.CameraImage()
	case req.Image != "":
		input.Image = api.GalleryImage(req.Image)
	}

	result, err := h.api.AddTask(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, CreateTaskResponse{
		Task:          h.mapper.ToRecord(result.Task),
		ImageCanceled: result.ImageCanceled,
	})
}

// GetTask handles GET /tasks/{taskID}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.api.GetTask(r.Context(), mux.Vars(r)["taskID"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.mapper.ToRecord(*task))
}

// ToggleTask handles POST /tasks/{taskID}/toggle. Unknown ids return the
// unchanged list.
func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.api.ToggleTask(r.Context(), mux.Vars(r)["taskID"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.mapper.ToRecordSlice(tasks))
}

// DeleteTask handles DELETE /tasks/{taskID}. Unknown ids return the
// unchanged list.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.api.DeleteTask(r.Context(), mux.Vars(r)["taskID"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.mapper.ToRecordSlice(tasks))
}

// writeJSON encodes body as the response. Tasks go out as TaskRecords so the
// wire uses the same field names as the saved snapshot, and an empty list
// encodes as [] rather than null.
func (h *TaskHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (h *TaskHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && errors.ShouldLogError(err) {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	h.writeJSON(w, status, ErrorResponse{
		Error: validation.UserMessage(err),
		Code:  errors.GetErrorCode(err),
	})
}

// StatusFor maps an error to the HTTP status it is reported with.
func StatusFor(err error) int {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case errors.ErrorTypeValidation, errors.ErrorTypeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypePermission:
		return http.StatusForbidden
	case errors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
