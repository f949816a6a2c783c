package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/spf13/cobra"
)

func newNextCmd(a *app) *cobra.Command {
	var (
		from    string
		include bool
		count   int
	)

	cmd := &cobra.Command{
		Use:   "next RRULE...",
		Short: "Print the next occurrences of a recurrence spec",
		Long: `Print the next occurrences of a recurrence spec. Several RRULE arguments
form a union: the earliest occurrence of any line wins.`,
		Example: `  recur next "RRULE:FREQ=MONTHLY" --from 2025-01-31 -n 3`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := today()
			if from != "" {
				var err error
				if ref, err = parseDate(from); err != nil {
					return err
				}
			}
			if count < 1 {
				return fmt.Errorf("-n must be at least 1, got %d", count)
			}

			spec := strings.Join(args, "\n")
			var dates []time.Time
			if count == 1 {
				if next, ok := a.engine.NextOccurrence(spec, ref, include).Get(); ok {
					dates = append(dates, next)
				}
			} else {
				if include {
					if first, ok := a.engine.NextOccurrence(spec, ref, true).Get(); ok && first.Equal(ref) {
						dates = append(dates, first)
					}
				}
				dates = append(dates, a.engine.Occurrences(spec, ref, count-len(dates))...)
			}

			out := cmd.OutOrStdout()
			if len(dates) == 0 {
				fmt.Fprintln(out, "no occurrence")
				return nil
			}
			for _, d := range dates {
				fmt.Fprintln(out, formatDate(d))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Reference date (default today)")
	cmd.Flags().BoolVar(&include, "include", false, "Count the reference date itself when it is an occurrence")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of occurrences to print")
	return cmd
}

func newMatchCmd(a *app) *cobra.Command {
	var reference string

	cmd := &cobra.Command{
		Use:     "match DATE RRULE...",
		Short:   "Check whether a date is an occurrence of a recurrence spec",
		Example: `  recur match 2025-02-28 "RRULE:FREQ=MONTHLY" --reference 2025-01-31`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(args[0])
			if err != nil {
				return err
			}
			ref, err := parseDate(reference)
			if err != nil {
				return fmt.Errorf("--reference: %w", err)
			}

			if a.engine.Matches(date, strings.Join(args[1:], "\n"), ref) {
				fmt.Fprintln(cmd.OutOrStdout(), "yes")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "no")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reference, "reference", "", "Start of the series (required)")
	cmd.MarkFlagRequired("reference")
	return cmd
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse RRULE",
		Short: "Validate a recurrence rule and show its fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := recurrence.ParseRuleErr(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "RULE\t%s\n", r.String())
			fmt.Fprintf(w, "FREQUENCY\t%s\n", r.Frequency)
			fmt.Fprintf(w, "INTERVAL\t%d\n", r.Interval)
			if r.Count > 0 {
				fmt.Fprintf(w, "COUNT\t%d\n", r.Count)
			}
			if until, ok := r.Until.Get(); ok {
				fmt.Fprintf(w, "UNTIL\t%s\n", until.Format("2006-01-02"))
			}
			if len(r.ByDay) > 0 {
				days := make([]string, len(r.ByDay))
				for i, d := range r.ByDay {
					days[i] = d.String()
				}
				fmt.Fprintf(w, "BYDAY\t%s\n", strings.Join(days, ","))
			}
			printInts(w, "BYMONTHDAY", r.ByMonthDay)
			printInts(w, "BYMONTH", r.ByMonth)
			printInts(w, "BYSETPOS", r.BySetPos)
			printInts(w, "BYHOUR", r.ByHour)
			printInts(w, "BYMINUTE", r.ByMinute)
			printInts(w, "BYSECOND", r.BySecond)
			fmt.Fprintf(w, "EXPLICIT TIME\t%t\n", r.HasExplicitTime())
			return w.Flush()
		},
	}
}

func printInts(w *tabwriter.Writer, label string, values []int) {
	if len(values) == 0 {
		return
	}
	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = fmt.Sprint(v)
	}
	fmt.Fprintf(w, "%s\t%s\n", label, strings.Join(strs, ","))
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
