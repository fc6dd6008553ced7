package cli

import (
	"context"
	"fmt"
	"io"

	"task-list/internal/api"
	"task-list/internal/errors"
)

// ToggleCommand handles the toggle command
type ToggleCommand struct {
	api api.API
	out io.Writer
}

// NewToggleCommand creates a new toggle command handler
func NewToggleCommand(app *App) *ToggleCommand {
	return &ToggleCommand{api: app.api, out: app.out}
}

// Execute flips the done state of the task with the given id. An unknown id
// changes nothing and is not an error.
func (c *ToggleCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.NewInvalidInputError("arguments", args, "toggle takes exactly one task ID")
	}
	id := args[0]

	tasks, err := c.api.ToggleTask(ctx, id)
	if err != nil {
		return NewErrorHandler().Handle("toggle task", err)
	}

	task, ok := tasks.Find(id)
	if !ok {
		fmt.Fprintf(c.out, "No task with ID %s; nothing changed.\n", id)
		return nil
	}

	state := "not done"
	if task.IsDone {
		state = "done"
	}
	fmt.Fprintf(c.out, "Marked %q as %s\n", task.Name, state)
	return nil
}
