package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"task-list/internal/api"
	"task-list/internal/errors"
)

// AddOptions carries the add command's flags
type AddOptions struct {
	Description string
	ImagePath   string
	Photo       bool
}

// AddCommand handles the add command
type AddCommand struct {
	api  api.API
	out  io.Writer
	opts AddOptions
}

// NewAddCommand creates a new add command handler
func NewAddCommand(app *App, opts AddOptions) *AddCommand {
	return &AddCommand{api: app.api, out: app.out, opts: opts}
}

// Execute runs the add command. All arguments form the task name.
func (c *AddCommand) Execute(ctx context.Context, args []string) error {
	if c.opts.ImagePath != "" && c.opts.Photo {
		return errors.NewInvalidInputError("image", c.opts.ImagePath, "use either --image or --photo, not both")
	}

	input := api.AddTaskInput{
		Name:        strings.Join(args, " "),
		Description: c.opts.Description,
	}
	switch {
	case c.opts.Photo:
		input.Image = api.CameraImage()
	case c.opts.ImagePath != "":
		input.Image = api.GalleryImage(c.opts.ImagePath)
	}

	result, err := c.api.AddTask(ctx, input)
	if err != nil {
		return NewErrorHandler().Handle("add task", err)
	}

	if result.ImageCanceled {
		fmt.Fprintln(c.out, "No photo selected; saving the task without one.")
	}
	fmt.Fprintf(c.out, "Added task %s: %s\n", result.Task.ID, result.Task.Name)
	return nil
}
