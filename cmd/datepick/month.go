package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"datepick/internal/calendar"
	"datepick/internal/ics"
	appLog "datepick/internal/log"
	"datepick/internal/picker"
)

func newMonthCmd(a *app) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Print the sheet for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.cfg.Location()
			if err != nil {
				return err
			}

			var current *time.Time
			if month != "" {
				t, err := time.ParseInLocation("2006-01", month, loc)
				if err != nil {
					return fmt.Errorf("month: --date must be YYYY-MM: %w", err)
				}
				current = &t
			}

			store := &ics.Store{}
			if len(a.cfg.Sources()) > 0 {
				if err := a.refreshAnnotations(cmd.Context(), store, ics.NewLoader(nil)); err != nil {
					appLog.Error("annotations unavailable", err)
				}
			}

			pc, err := a.newController(store, current)
			if err != nil {
				return err
			}
			printSheet(cmd.OutOrStdout(), pc)
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "date", "", "Month to show as YYYY-MM (default: configured current or today)")
	return cmd
}

// printSheet writes a plain-text sheet: out-of-month days in parentheses,
// today in brackets, out-of-range days as "--", marked days with "*".
func printSheet(w io.Writer, pc *picker.Controller) {
	grid := pc.Month()

	fmt.Fprintln(w, pc.Title())
	for _, h := range pc.Headers() {
		fmt.Fprintf(w, "%5s", h)
	}
	fmt.Fprintln(w)

	var marked []calendar.DayCell
	for _, week := range grid.Weeks {
		for _, c := range week {
			fmt.Fprintf(w, "%5s", cellText(c))
			if len(c.Marks) > 0 && c.InMonth {
				marked = append(marked, c)
			}
		}
		fmt.Fprintln(w)
	}

	for _, c := range marked {
		fmt.Fprintf(w, "%s  %s\n", c.Date.Format("Jan 02"), strings.Join(c.Marks, ", "))
	}
}

func cellText(c calendar.DayCell) string {
	s := fmt.Sprintf("%d", c.Date.Day())
	switch {
	case !c.InRange:
		s = "--"
	case c.Today:
		s = "[" + s + "]"
	case !c.InMonth:
		s = "(" + s + ")"
	}
	if len(c.Marks) > 0 {
		s += "*"
	}
	return s
}
