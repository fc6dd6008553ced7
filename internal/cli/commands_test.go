package cli

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-list/internal/api"
	"task-list/internal/domain"
	apperrors "task-list/internal/errors"
	"task-list/internal/media"
)

var (
	milk  = domain.Task{ID: "1", Name: "Buy milk", Description: "2 litres"}
	fence = domain.Task{ID: "2", Name: "Fix fence", IsDone: true, Image: domain.StringPtr("file:///photos/fence.jpg")}
)

func TestListCommand(t *testing.T) {
	tests := []struct {
		name     string
		tasks    []domain.Task
		args     []string
		contains []string
		wantErr  bool
	}{
		{
			name:     "empty list",
			contains: []string{"No tasks yet"},
		},
		{
			name:  "tasks in order with markers",
			tasks: []domain.Task{milk, fence},
			contains: []string{
				"DONE", "PHOTO",
				"Buy milk", "2 litres",
				"Fix fence", "yes",
				"2 tasks, 1 done",
			},
		},
		{
			name:    "rejects arguments",
			args:    []string{"extra"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, out := setupTestApp(t, tt.tasks...)

			err := NewListCommand(app).Execute(context.Background(), tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out.String(), want)
			}
			if len(tt.tasks) == 2 {
				lines := strings.Split(out.String(), "\n")
				assert.True(t, strings.HasPrefix(lines[1], "[ ]"), lines[1])
				assert.Contains(t, lines[1], "Buy milk")
				assert.True(t, strings.HasPrefix(lines[2], "[x]"), lines[2])
				assert.Contains(t, lines[2], "Fix fence")
			}
		})
	}
}

func TestAddCommand(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		opts        AddOptions
		cameraOff   bool
		expectedOut []string
		expectedErr string
		imageKind   api.ImageSourceKind
	}{
		{
			name:        "joins arguments into the name",
			args:        []string{"Buy", "milk"},
			opts:        AddOptions{Description: "2 litres"},
			expectedOut: []string{"Added task 100: Buy milk"},
		},
		{
			name:        "attaches a gallery image",
			args:        []string{"Fence"},
			opts:        AddOptions{ImagePath: "/tmp/fence.jpg"},
			expectedOut: []string{"Added task 100: Fence"},
			imageKind:   api.ImageGallery,
		},
		{
			name:        "cancelled capture still adds the task",
			args:        []string{"Receipt"},
			opts:        AddOptions{Photo: true},
			expectedOut: []string{"No photo selected", "Added task 100: Receipt"},
			imageKind:   api.ImageCamera,
		},
		{
			name:        "camera permission denied",
			args:        []string{"Receipt"},
			opts:        AddOptions{Photo: true},
			cameraOff:   true,
			expectedErr: "failed to add task: camera permission is required to take photos",
			imageKind:   api.ImageCamera,
		},
		{
			name:        "blank name",
			args:        []string{"   "},
			expectedErr: "failed to add task: name is required",
		},
		{
			name:        "image and photo together",
			args:        []string{"x"},
			opts:        AddOptions{ImagePath: "/tmp/a.png", Photo: true},
			expectedErr: "use either --image or --photo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, mock, out := setupTestApp(t)
			mock.captureURI = ""
			if tt.cameraOff {
				mock.camera = media.PermissionDenied
			}

			err := NewAddCommand(app, tt.opts).Execute(context.Background(), tt.args)
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				assert.Empty(t, mock.tasks)
				return
			}

			require.NoError(t, err)
			for _, want := range tt.expectedOut {
				assert.Contains(t, out.String(), want)
			}
			assert.Equal(t, tt.imageKind, mock.lastInput.Image.Kind)
			assert.Equal(t, tt.opts.Description, mock.lastInput.Description)
			require.Len(t, mock.tasks, 1)
		})
	}
}

func TestToggleCommand(t *testing.T) {
	app, mock, out := setupTestApp(t, milk, fence)
	cmd := NewToggleCommand(app)
	ctx := context.Background()

	require.NoError(t, cmd.Execute(ctx, []string{"1"}))
	assert.Contains(t, out.String(), `Marked "Buy milk" as done`)
	assert.True(t, mock.tasks[0].IsDone)

	out.Reset()
	require.NoError(t, cmd.Execute(ctx, []string{"2"}))
	assert.Contains(t, out.String(), `Marked "Fix fence" as not done`)

	out.Reset()
	require.NoError(t, cmd.Execute(ctx, []string{"999"}))
	assert.Contains(t, out.String(), "No task with ID 999; nothing changed.")
	assert.Equal(t, []string{"1", "2"}, mock.tasks.IDs())

	assert.Error(t, cmd.Execute(ctx, nil))
}

func TestDeleteCommand(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		input       string
		opts        DeleteOptions
		expectedOut string
		remaining   []string
	}{
		{
			name:        "confirmed with y",
			id:          "1",
			input:       "y\n",
			expectedOut: "Deleted task: Buy milk",
			remaining:   []string{"2"},
		},
		{
			name:        "confirmed with yes",
			id:          "2",
			input:       "YES\n",
			expectedOut: "Deleted task: Fix fence",
			remaining:   []string{"1"},
		},
		{
			name:        "declined by default",
			id:          "1",
			input:       "\n",
			expectedOut: "Delete cancelled.",
			remaining:   []string{"1", "2"},
		},
		{
			name:        "no input declines",
			id:          "1",
			input:       "",
			expectedOut: "Delete cancelled.",
			remaining:   []string{"1", "2"},
		},
		{
			name:        "yes flag skips the prompt",
			id:          "1",
			opts:        DeleteOptions{Yes: true},
			expectedOut: "Deleted task: Buy milk",
			remaining:   []string{"2"},
		},
		{
			name:        "unknown id is a no-op",
			id:          "999",
			opts:        DeleteOptions{Yes: true},
			expectedOut: "No task with ID 999; nothing changed.",
			remaining:   []string{"1", "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, mock, out := setupTestApp(t, milk, fence)
			app.in = strings.NewReader(tt.input)

			err := NewDeleteCommand(app, tt.opts).Execute(context.Background(), []string{tt.id})
			require.NoError(t, err)
			assert.Contains(t, out.String(), tt.expectedOut)
			assert.Equal(t, tt.remaining, mock.tasks.IDs())
			if !tt.opts.Yes {
				assert.Contains(t, out.String(), "? [y/N]")
			}
		})
	}
}

func TestShowCommand(t *testing.T) {
	app, _, out := setupTestApp(t, milk, fence)
	cmd := NewShowCommand(app)

	require.NoError(t, cmd.Execute(context.Background(), []string{"2"}))
	assert.Contains(t, out.String(), "Fix fence")
	assert.Contains(t, out.String(), "done")
	assert.Contains(t, out.String(), "file:///photos/fence.jpg")

	err := cmd.Execute(context.Background(), []string{"999"})
	require.Error(t, err)
	assert.Equal(t, "failed to show task: task not found: 999", err.Error())
}

func TestPermissionCommand(t *testing.T) {
	app, mock, out := setupTestApp(t)

	require.NoError(t, NewPermissionCommand(app).Execute(context.Background(), nil))
	assert.Equal(t, "Camera: granted\n", out.String())

	out.Reset()
	mock.camera = media.PermissionDenied
	require.NoError(t, NewPermissionCommand(app).Execute(context.Background(), nil))
	assert.Contains(t, out.String(), "Camera: denied")
	assert.Contains(t, out.String(), media.CameraPermissionMessage)
}

func TestServeCommand(t *testing.T) {
	app, _, _ := setupTestApp(t, milk)
	out := &syncBuffer{}
	app.out = out
	cmd := NewServeCommand(app, ServeOptions{Addr: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.Execute(ctx, nil) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Serving tasks on http://127.0.0.1:")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestServeCommandListenError(t *testing.T) {
	app, _, _ := setupTestApp(t)
	cmd := NewServeCommand(app, ServeOptions{})
	assert.Equal(t, app.config.Server.Addr, cmd.addr)

	cmd.listen = func(network, addr string) (net.Listener, error) {
		return nil, errors.New("address in use")
	}
	err := cmd.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address in use")
}

func TestAppRun(t *testing.T) {
	app, mock, out := setupTestApp(t, milk)
	ctx := context.Background()

	err := app.Run(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage: tl add")

	require.NoError(t, app.Run(ctx, []string{"add", "Walk", "dog"}))
	assert.Contains(t, out.String(), "Added task 100: Walk dog")

	require.NoError(t, app.Run(ctx, []string{"toggle", "100"}))
	assert.True(t, mock.tasks[1].IsDone)

	err = app.Run(ctx, []string{"frobnicate"})
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInvalidInput))
}

func TestCommandRegistryNames(t *testing.T) {
	app, _, _ := setupTestApp(t)
	assert.Equal(t,
		[]string{"add", "delete", "list", "permission", "serve", "show", "toggle"},
		app.registry.Names())
}
