package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cyp0633/librecur/tasks"
	"github.com/cyp0633/librecur/tasks/sqlite"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		output string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Store) error {
				list, err := store.ListTasks(cmd.Context(), tasks.ListOptions{IncludeCompleted: all})
				if err != nil {
					return err
				}

				var w io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create %s: %w", output, err)
					}
					defer f.Close()
					w = f
				}
				if err := tasks.EncodeCalendar(w, list); err != nil {
					return err
				}
				a.logger.Info("exported tasks", "count", len(list))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&all, "all", false, "Include completed tasks")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import [file.ics]",
		Short: "Import VTODOs from an iCalendar file",
		Long: `Import VTODOs from an iCalendar file. DUE values without a zone are read as local
wall clock times. VTODOs related to another VTODO of the file become its subtasks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}

			list, err := tasks.DecodeCalendar(r, time.Local)
			if err != nil {
				return err
			}

			return a.withStore(func(store *sqlite.Store) error {
				var created, updated, skipped int
				for i := range list {
					t := &list[i]
					err := store.CreateTask(cmd.Context(), t)
					switch {
					case err == nil:
						created++
					case errors.Is(err, tasks.ErrConflict) && replace:
						if err := store.UpdateTask(cmd.Context(), t); err != nil {
							return err
						}
						updated++
					case errors.Is(err, tasks.ErrConflict):
						a.logger.Warn("skipping existing task", "task", t.ID)
						skipped++
					default:
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks (%d updated, %d skipped)\n", created, updated, skipped)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite tasks that already exist")
	return cmd
}
