package cli

import (
	"context"
	"fmt"
	"io"
	"net"

	"go.uber.org/zap"

	"task-list/internal/api"
	"task-list/internal/httpapi"
)

// ServeOptions carries the serve command's flags
type ServeOptions struct {
	// Addr overrides server.addr from the configuration
	Addr string
}

// ServeCommand runs the HTTP surface until its context is cancelled
type ServeCommand struct {
	api    api.API
	out    io.Writer
	logger *zap.Logger
	addr   string
	listen func(network, addr string) (net.Listener, error)
}

// NewServeCommand creates a new serve command handler
func NewServeCommand(app *App, opts ServeOptions) *ServeCommand {
	addr := opts.Addr
	if addr == "" {
		addr = app.config.Server.Addr
	}
	return &ServeCommand{
		api:    app.api,
		out:    app.out,
		logger: app.logger,
		addr:   addr,
		listen: net.Listen,
	}
}

// Execute runs the serve command
func (c *ServeCommand) Execute(ctx context.Context, args []string) error {
	ln, err := c.listen("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.addr, err)
	}

	server := httpapi.NewServer(c.addr, c.api, c.logger)
	fmt.Fprintf(c.out, "Serving tasks on http://%s (Ctrl+C to stop)\n", ln.Addr())
	if err := server.Serve(ctx, ln); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	fmt.Fprintln(c.out, "Server stopped.")
	return nil
}
