package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/tasks"
	"github.com/cyp0633/librecur/tasks/sqlite"
	"github.com/spf13/cobra"
)

func newTaskCmd(a *app) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	taskCmd.AddCommand(
		newTaskAddCmd(a),
		newTaskListCmd(a),
		newTaskShowCmd(a),
		newTaskCompleteCmd(a),
		newTaskDeleteCmd(a),
	)
	return taskCmd
}

func newTaskAddCmd(a *app) *cobra.Command {
	var (
		title    string
		notes    string
		due      string
		rrules   []string
		mode     string
		subtasks []string
	)

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a new task",
		Example: `  recur task add --title "Pay rent" --due 2025-01-31 --rrule "RRULE:FREQ=MONTHLY"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			task := tasks.Task{
				Title:         title,
				Notes:         notes,
				Recurring:     strings.Join(rrules, "\n"),
				RecurringMode: tasks.ParseRecurringMode(mode),
			}
			if due != "" {
				d, err := parseDate(due)
				if err != nil {
					return fmt.Errorf("--due: %w", err)
				}
				task.DueDate = &d
			}
			for _, line := range rrules {
				if _, err := recurrence.ParseRuleErr(line); err != nil {
					return fmt.Errorf("--rrule %q: %w", line, err)
				}
			}
			if task.IsRecurring() && task.DueDate == nil {
				return fmt.Errorf("a recurring task needs --due")
			}
			for _, s := range subtasks {
				task.Subtasks = append(task.Subtasks, tasks.Subtask{Title: s})
			}

			return a.withStore(func(store *sqlite.Store) error {
				if err := store.CreateTask(cmd.Context(), &task); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created task: %s\n", task.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Task title (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "Task notes")
	cmd.Flags().StringVar(&due, "due", "", "Due date, YYYY-MM-DD[THH:MM]")
	cmd.Flags().StringArrayVar(&rrules, "rrule", nil, "Recurrence rule line; repeat for a union")
	cmd.Flags().StringVar(&mode, "mode", string(tasks.ModeDueDate), "Recurring mode (dueDate, completedAt, autoRollover)")
	cmd.Flags().StringArrayVar(&subtasks, "subtask", nil, "Subtask title; repeatable")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	var (
		all       bool
		dueBefore string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := tasks.ListOptions{IncludeCompleted: all}
			if dueBefore != "" {
				d, err := parseDate(dueBefore)
				if err != nil {
					return fmt.Errorf("--due-before: %w", err)
				}
				opts.DueBefore = &d
			}

			return a.withStore(func(store *sqlite.Store) error {
				list, err := store.ListTasks(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tasks found")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tDUE\tTITLE\tREPEATS\tDONE")
				for _, t := range list {
					due := "-"
					if t.DueDate != nil {
						due = formatDate(*t.DueDate)
					}
					repeats := "-"
					if t.IsRecurring() {
						repeats = string(t.RecurringMode)
					}
					done := ""
					if t.Completed {
						done = "x"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", truncateID(t.ID), due, t.Title, repeats, done)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include completed tasks")
	cmd.Flags().StringVar(&dueBefore, "due-before", "", "Only tasks due before this date")
	return cmd
}

func newTaskShowCmd(a *app) *cobra.Command {
	var asICS bool

	cmd := &cobra.Command{
		Use:   "show [task-id]",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Store) error {
				task, err := store.GetTask(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asICS {
					return tasks.EncodeCalendar(cmd.OutOrStdout(), []tasks.Task{*task})
				}
				return printTask(cmd.OutOrStdout(), a, *task)
			})
		},
	}

	cmd.Flags().BoolVar(&asICS, "ics", false, "Print the task as an iCalendar VTODO")
	return cmd
}

func newTaskCompleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "complete [task-id]",
		Short: "Complete a task; recurring tasks get their next instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Store) error {
				res, err := a.completer(store).Complete(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Completed task: %s\n", res.Completed.ID)
				if next, ok := res.Next.Get(); ok {
					fmt.Fprintf(out, "Next instance: %s due %s\n", next.ID, formatDate(*next.DueDate))
				} else if res.Completed.IsRecurring() {
					fmt.Fprintln(out, "Recurrence ended")
				}
				return nil
			})
		},
	}
}

func newTaskDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [task-id]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Store) error {
				if err := store.DeleteTask(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task: %s\n", args[0])
				return nil
			})
		},
	}
}

func printTask(out io.Writer, a *app, t tasks.Task) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", t.ID)
	fmt.Fprintf(w, "TITLE\t%s\n", t.Title)
	if t.Notes != "" {
		fmt.Fprintf(w, "NOTES\t%s\n", t.Notes)
	}
	if t.DueDate != nil {
		fmt.Fprintf(w, "DUE\t%s\n", formatDate(*t.DueDate))
	}
	for _, line := range recurrence.SplitSpec(t.Recurring) {
		fmt.Fprintf(w, "RRULE\t%s\n", line)
	}
	if t.IsRecurring() {
		fmt.Fprintf(w, "MODE\t%s\n", t.RecurringMode)
		if ref, ok := tasks.ReferenceDate(t).Get(); ok && !t.Completed {
			if next, ok := a.engine.NextOccurrence(t.Recurring, ref, false).Get(); ok {
				fmt.Fprintf(w, "FOLLOWED BY\t%s\n", formatDate(next))
			}
		}
	}
	if t.Completed {
		at := "yes"
		if t.CompletedAt != nil {
			at = t.CompletedAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "COMPLETED\t%s\n", at)
	}
	for _, s := range t.Subtasks {
		mark := "[ ]"
		if s.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(w, "SUBTASK\t%s %s\n", mark, s.Title)
	}
	return w.Flush()
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
