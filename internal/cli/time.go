package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	schedule "github.com/hariom-ql2/schedspec"
)

func newParseCmd(a *app) *cobra.Command {
	var zone string
	cmd := &cobra.Command{
		Use:   "parse TIMESTAMP",
		Short: "Parse a timestamp and show how it was read",
		Long: "Accepted layouts, tried in order:\n" +
			"  2026-03-08T09:30:00+05:30   RFC3339 with offset or Z\n" +
			"  08-03-2026 09:30:00         day first\n" +
			"  2026-03-08 09:30:00\n" +
			"  2026-03-08\n" +
			"  202603080930                compact, no seconds",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := schedule.ParseTimestamp(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "layout:    %s\n", ts.Layout)
			fmt.Fprintf(out, "wall:      %s\n", ts.Wall)
			fmt.Fprintf(out, "tz_aware:  %t\n", ts.TZAware)
			if ts.TZAware {
				fmt.Fprintf(out, "utc:       %s\n", ts.Instant.Format("2006-01-02T15:04:05Z"))
			}
			if zone == "" {
				return nil
			}

			if ts.TZAware {
				w, err := schedule.FromUTC(ts.Instant, zone)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "in %s: %s\n", zone, w)
				return nil
			}
			t, res, err := schedule.ResolveWall(ts.Wall, zone)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "utc:       %s (%s in %s)\n", t.Format("2006-01-02T15:04:05Z"), res, zone)
			return nil
		},
	}
	cmd.Flags().StringVar(&zone, "tz", "", "Resolve the timestamp in this IANA timezone")
	return cmd
}

func newOffsetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "offset ZONE",
		Short: "Print a timezone's current UTC offset in hours",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := schedule.OffsetHours(args[0], a.now)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(h, 'f', -1, 64))
			return nil
		},
	}
}
