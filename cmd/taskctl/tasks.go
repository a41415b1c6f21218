package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harlequingg/task-manager/internal/tasklist"
)

func tasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and manage tasks",
	}
	cmd.AddCommand(tasksListCmd(a))
	cmd.AddCommand(tasksViewCmd(a))
	cmd.AddCommand(tasksCreateCmd(a))
	cmd.AddCommand(tasksUpdateCmd(a))
	cmd.AddCommand(tasksDeleteCmd(a))
	return cmd
}

func tasksListCmd(a *app) *cobra.Command {
	var (
		query    string
		status   string
		page     int
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show a page of tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view := tasklist.NewView(a.client)
			if err := view.Refresh(cmd.Context()); err != nil {
				return err
			}
			view.SetQuery(query)
			view.SetStatus(status)
			view.SetPageSize(pageSize)
			if !view.GoTo(page) {
				return fmt.Errorf("page %d is out of range (1-%d)", page, view.Current().TotalPages)
			}
			out := cmd.OutOrStdout()
			return tasklist.Render(out, view.Current(), colorEnabled(out))
		},
	}
	cmd.Flags().StringVarP(&query, "search", "s", "", "Only tasks whose title or description contains this text")
	cmd.Flags().StringVar(&status, "status", tasklist.StatusAll, "All, Pending, In Progress or Completed")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", tasklist.DefaultPageSize, "Tasks per page")
	return cmd
}

func tasksViewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.client.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return tasklist.RenderTask(out, *t, colorEnabled(out))
		},
	}
}

func addFormFlags(cmd *cobra.Command, f *tasklist.Form) {
	cmd.Flags().StringVarP(&f.Title, "title", "t", "", "Title")
	cmd.Flags().StringVarP(&f.Description, "description", "d", "", "Description")
	cmd.Flags().StringVar(&f.DueDate, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.Status, "status", "", "Pending, In Progress or Completed")
}

func tasksCreateCmd(a *app) *cobra.Command {
	var form tasklist.Form
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view := tasklist.NewView(a.client)
			t, err := view.Create(cmd.Context(), form)
			if t == nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task created: %s\n", t.ID)
			return err
		},
	}
	addFormFlags(cmd, &form)
	return cmd
}

func tasksUpdateCmd(a *app) *cobra.Command {
	var changes tasklist.Form
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a task, keeping any field not given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := a.client.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			form := tasklist.FormFromTask(*current)
			flags := cmd.Flags()
			if flags.Changed("title") {
				form.Title = changes.Title
			}
			if flags.Changed("description") {
				form.Description = changes.Description
			}
			if flags.Changed("due") {
				form.DueDate = changes.DueDate
			}
			if flags.Changed("status") {
				form.Status = changes.Status
			}

			view := tasklist.NewView(a.client)
			t, err := view.Update(cmd.Context(), args[0], form)
			if t == nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task updated: %s (%s)\n", t.ID, t.Status)
			return err
		},
	}
	addFormFlags(cmd, &changes)
	return cmd
}

func tasksDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Task deleted")
			return nil
		},
	}
}
