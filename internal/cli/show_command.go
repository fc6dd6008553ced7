package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"task-list/internal/api"
	"task-list/internal/errors"
)

// ShowCommand handles the show command
type ShowCommand struct {
	api api.API
	out io.Writer
}

// NewShowCommand creates a new show command handler
func NewShowCommand(app *App) *ShowCommand {
	return &ShowCommand{api: app.api, out: app.out}
}

// Execute prints every field of one task
func (c *ShowCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.NewInvalidInputError("arguments", args, "show takes exactly one task ID")
	}

	task, err := c.api.GetTask(ctx, args[0])
	if err != nil {
		return NewErrorHandler().Handle("show task", err)
	}

	status := "not done"
	if task.IsDone {
		status = "done"
	}
	photo := "none"
	if task.HasImage() {
		photo = task.ImageURI()
	}
	description := task.Description
	if description == "" {
		description = "-"
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", task.ID)
	fmt.Fprintf(w, "Name:\t%s\n", task.Name)
	fmt.Fprintf(w, "Description:\t%s\n", description)
	fmt.Fprintf(w, "Status:\t%s\n", status)
	fmt.Fprintf(w, "Photo:\t%s\n", photo)
	return w.Flush()
}
