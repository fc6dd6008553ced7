package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"task-list/internal/api"
	"task-list/internal/errors"
)

// DeleteOptions carries the delete command's flags
type DeleteOptions struct {
	// Yes skips the confirmation prompt
	Yes bool
}

// DeleteCommand handles the delete command
type DeleteCommand struct {
	api  api.API
	out  io.Writer
	in   io.Reader
	opts DeleteOptions
}

// NewDeleteCommand creates a new delete command handler
func NewDeleteCommand(app *App, opts DeleteOptions) *DeleteCommand {
	return &DeleteCommand{api: app.api, out: app.out, in: app.in, opts: opts}
}

// Execute runs the delete command
func (c *DeleteCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.NewInvalidInputError("arguments", args, "delete takes exactly one task ID")
	}
	id := args[0]

	task, err := c.api.GetTask(ctx, id)
	if err != nil {
		if errors.IsErrorType(err, errors.ErrorTypeNotFound) {
			fmt.Fprintf(c.out, "No task with ID %s; nothing changed.\n", id)
			return nil
		}
		return NewErrorHandler().Handle("delete task", err)
	}

	if !c.opts.Yes && !c.confirm(task.Name) {
		fmt.Fprintln(c.out, "Delete cancelled.")
		return nil
	}

	if _, err := c.api.DeleteTask(ctx, id); err != nil {
		return NewErrorHandler().Handle("delete task", err)
	}

	fmt.Fprintf(c.out, "Deleted task: %s\n", task.Name)
	return nil
}

// confirm asks before deleting; anything but y or yes declines.
func (c *DeleteCommand) confirm(name string) bool {
	fmt.Fprintf(c.out, "Delete task %q? [y/N] ", name)

	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(c.out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
