package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up all task routes on router.
func RegisterRoutes(router *mux.Router, handler *TaskHandler) {
	router.HandleFunc("/tasks", handler.ListTasks).Methods(http.MethodGet)
	router.HandleFunc("/tasks", handler.CreateTask).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{taskID}", handler.GetTask).Methods(http.MethodGet)
	router.HandleFunc("/tasks/{taskID}/toggle", handler.ToggleTask).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{taskID}", handler.DeleteTask).Methods(http.MethodDelete)
}

// NewRouter returns a router with every task route registered.
func NewRouter(handler *TaskHandler) *mux.Router {
	router := mux.NewRouter()
	RegisterRoutes(router, handler)
	return router
}
