package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"studiora/backend/internal/model"
	"studiora/backend/internal/service"
)

func newTasksCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage study tasks",
	}
	cmd.AddCommand(
		newTasksListCmd(root),
		newTasksAddCmd(root),
		newTasksEditCmd(root),
		newTasksToggleCmd(root),
		newTasksRemoveCmd(root),
	)
	return cmd
}

func newTasksListCmd(root *rootOptions) *cobra.Command {
	var (
		pending   bool
		completed bool
		category  string
		priority  string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, pending first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pending && completed {
				return fmt.Errorf("--pending and --completed are mutually exclusive")
			}
			a, err := root.open(cmd)
			if err != nil {
				return err
			}

			filter := service.TaskFilter{
				Category: category,
				Priority: model.Priority(priority),
				Limit:    limit,
			}
			if pending || completed {
				filter.Completed = &completed
			}

			tasks, apiErr := a.tasks.List(cmd.Context(), localOwner, filter)
			if err := check(apiErr); err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found.")
				return nil
			}

			todo, done := service.Partition(tasks)
			for _, task := range append(todo, done...) {
				printTask(cmd, task)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "only pending tasks")
	cmd.Flags().BoolVar(&completed, "completed", false, "only completed tasks")
	cmd.Flags().StringVarP(&category, "category", "c", "", "filter by category")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "filter by priority (low, medium, high)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n tasks")
	return cmd
}

func newTasksAddCmd(root *rootOptions) *cobra.Command {
	var (
		due      string
		priority string
		category string
	)

	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open(cmd)
			if err != nil {
				return err
			}

			input := service.TaskInput{
				Title:    strings.Join(args, " "),
				Priority: model.Priority(priority),
				Category: category,
			}
			if due != "" {
				date, err := model.ParseDate(due)
				if err != nil {
					return err
				}
				input.DueDate = &date
			}

			change, apiErr := a.tasks.Add(cmd.Context(), localOwner, input)
			if err := check(apiErr); err != nil {
				return err
			}
			warnUnsynced(cmd, change.Synced)
			fmt.Fprintf(cmd.OutOrStdout(), "Task created: %s\n", change.Value.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&due, "due", "d", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "priority (low, medium, high)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category")
	return cmd
}

func newTasksEditCmd(root *rootOptions) *cobra.Command {
	var (
		title    string
		due      string
		priority string
		category string
	)

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of a task; pass --due \"\" to clear the due date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open(cmd)
			if err != nil {
				return err
			}

			var patch service.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("category") {
				patch.Category = &category
			}
			if flags.Changed("priority") {
				p := model.Priority(priority)
				patch.Priority = &p
			}
			if flags.Changed("due") {
				if due == "" {
					patch.ClearDueDate = true
				} else {
					date, err := model.ParseDate(due)
					if err != nil {
						return err
					}
					patch.DueDate = &date
				}
			}

			change, apiErr := a.tasks.Update(cmd.Context(), localOwner, args[0], patch)
			if err := check(apiErr); err != nil {
				return err
			}
			warnUnsynced(cmd, change.Synced)
			printTask(cmd, change.Value)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&due, "due", "d", "", "new due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "new priority")
	cmd.Flags().StringVarP(&category, "category", "c", "", "new category")
	return cmd
}

func newTasksToggleCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Flip a task between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open(cmd)
			if err != nil {
				return err
			}
			change, apiErr := a.tasks.ToggleCompletion(cmd.Context(), localOwner, args[0])
			if err := check(apiErr); err != nil {
				return err
			}
			warnUnsynced(cmd, change.Synced)
			printTask(cmd, change.Value)
			return nil
		},
	}
}

func newTasksRemoveCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open(cmd)
			if err != nil {
				return err
			}
			change, apiErr := a.tasks.Delete(cmd.Context(), localOwner, args[0])
			if err := check(apiErr); err != nil {
				return err
			}
			warnUnsynced(cmd, change.Synced)
			if !change.Value {
				fmt.Fprintf(cmd.OutOrStdout(), "No task with id %s\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task deleted: %s\n", args[0])
			return nil
		},
	}
}

func printTask(cmd *cobra.Command, task model.Task) {
	mark := " "
	if task.Completed {
		mark = "x"
	}

	line := fmt.Sprintf("[%s] %s  %s", mark, task.ID, task.Title)
	var meta []string
	if task.DueDate != nil {
		meta = append(meta, "due "+task.DueDate.String())
	}
	if task.Priority != "" {
		meta = append(meta, string(task.Priority))
	}
	if task.Category != "" {
		meta = append(meta, task.Category)
	}
	if len(meta) > 0 {
		line += "  (" + strings.Join(meta, ", ") + ")"
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
}
