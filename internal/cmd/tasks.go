package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/todoask/internal/tasks"
)

func newTasksCmd() *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "todo"},
		Short:   "Manage your to-do list",
		Long: `List, add, complete and remove tasks on the to-do service.

Task ids can be abbreviated to any unique prefix.

Examples:
  todoask tasks list
  todoask tasks add "buy milk"
  todoask tasks done 3f2a
  todoask tasks undo 3f2a
  todoask tasks rm 3f2a`,
	}

	tasksCmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List all tasks",
			Args:    cobra.NoArgs,
			RunE:    instrument("tasks list", runTasksList),
		},
		&cobra.Command{
			Use:   "add <text>",
			Short: "Add a task",
			Args:  cobra.MinimumNArgs(1),
			RunE:  instrument("tasks add", runTasksAdd),
		},
		&cobra.Command{
			Use:   "done <id>",
			Short: "Mark a task as completed",
			Args:  cobra.ExactArgs(1),
			RunE:  instrument("tasks done", runTasksSetCompleted(true)),
		},
		&cobra.Command{
			Use:   "undo <id>",
			Short: "Mark a task as not completed",
			Args:  cobra.ExactArgs(1),
			RunE:  instrument("tasks undo", runTasksSetCompleted(false)),
		},
		&cobra.Command{
			Use:     "rm <id>",
			Aliases: []string{"delete"},
			Short:   "Remove a task",
			Args:    cobra.ExactArgs(1),
			RunE:    instrument("tasks rm", runTasksRemove),
		},
	)

	return tasksCmd
}

func runTasksList(cmd *cobra.Command, args []string) error {
	app, err := appFrom(cmd)
	if err != nil {
		return err
	}

	list, _, err := app.Tasks.List(cmd.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []tasks.Task{}
	}
	return app.Print(taskList(list))
}

func runTasksAdd(cmd *cobra.Command, args []string) error {
	app, err := appFrom(cmd)
	if err != nil {
		return err
	}

	task, _, err := app.Tasks.Create(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	return app.Print(taskChange{Action: "Added", Task: *task})
}

func runTasksSetCompleted(completed bool) func(*cobra.Command, []string) error {
	action := "Reopened"
	if completed {
		action = "Completed"
	}

	return func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}

		task, err := findTask(cmd, app, args[0])
		if err != nil {
			return err
		}

		updated, _, err := app.Tasks.SetCompleted(cmd.Context(), task, completed)
		if err != nil {
			return err
		}
		return app.Print(taskChange{Action: action, Task: *updated})
	}
}

func runTasksRemove(cmd *cobra.Command, args []string) error {
	app, err := appFrom(cmd)
	if err != nil {
		return err
	}

	task, err := findTask(cmd, app, args[0])
	if err != nil {
		return err
	}

	if _, err := app.Tasks.Delete(cmd.Context(), task.ID); err != nil {
		return err
	}
	return app.Print(taskChange{Action: "Removed", Task: task})
}

// findTask resolves an id or unique id prefix against the current list.
func findTask(cmd *cobra.Command, app *App, ref string) (tasks.Task, error) {
	list, _, err := app.Tasks.List(cmd.Context())
	if err != nil {
		return tasks.Task{}, err
	}
	return tasks.Find(list, ref)
}
