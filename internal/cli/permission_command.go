package cli

import (
	"context"
	"fmt"
	"io"

	"task-list/internal/api"
	"task-list/internal/media"
)

// PermissionCommand reports whether photos can be captured
type PermissionCommand struct {
	api api.API
	out io.Writer
}

// NewPermissionCommand creates a new permission command handler
func NewPermissionCommand(app *App) *PermissionCommand {
	return &PermissionCommand{api: app.api, out: app.out}
}

// Execute runs the permission command
func (c *PermissionCommand) Execute(ctx context.Context, args []string) error {
	permission := c.api.CameraPermission(ctx)
	fmt.Fprintf(c.out, "Camera: %s\n", permission)
	if permission != media.PermissionGranted {
		fmt.Fprintf(c.out, "Note: %s. Tasks can still be added with an existing image.\n", media.CameraPermissionMessage)
	}
	return nil
}
