package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"task-list/internal/api"
	"task-list/internal/domain"
	"task-list/internal/errors"
)

// ListCommand handles the list command
type ListCommand struct {
	api api.API
	out io.Writer
}

// NewListCommand creates a new list command handler
func NewListCommand(app *App) *ListCommand {
	return &ListCommand{api: app.api, out: app.out}
}

// Execute runs the list command
func (c *ListCommand) Execute(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return errors.NewInvalidInputError("arguments", args, "list takes no arguments")
	}

	tasks, err := c.api.ListTasks(ctx)
	if err != nil {
		return NewErrorHandler().Handle("list tasks", err)
	}
	return printTasks(c.out, tasks)
}

func printTasks(out io.Writer, tasks domain.TaskList) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(out, "No tasks yet. Add one with: tl add <name>")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DONE\tID\tNAME\tDESCRIPTION\tPHOTO")
	for _, task := range tasks {
		photo := ""
		if task.HasImage() {
			photo = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", checkbox(task.IsDone), task.ID, task.Name, task.Description, photo)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\n%d %s, %d done\n", len(tasks), plural(len(tasks), "task", "tasks"), tasks.Completed())
	return err
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
