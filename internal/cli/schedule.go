package cli

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	schedule "github.com/hariom-ql2/schedspec"
	"github.com/hariom-ql2/schedspec/internal/specfile"
)

const localLayout = "Mon 2006-01-02 15:04 MST"

func (a *app) readSpec(path string) (schedule.Spec, error) {
	return specfile.Read(path, a.cfg.Timezone)
}

// loadValid reads the schedule at path and returns its canonical form.
func (a *app) loadValid(path string) (schedule.Spec, error) {
	spec, err := a.readSpec(path)
	if err != nil {
		return nil, err
	}
	canonical, err := schedule.Validate(spec, a.now)
	if err != nil {
		a.log.Debug().Err(err).Str("file", path).Msg("validation failed")
		return nil, errors.Wrap(err, path)
	}
	return canonical, nil
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a schedule and print its canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := a.loadValid(args[0])
			if err != nil {
				return err
			}
			env, err := schedule.Encode(spec)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(env, "", "  ")
			if err != nil {
				return errors.Wrap(err, "encode schedule")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, string(b))
			fmt.Fprintln(out, schedule.Preview(spec))
			return nil
		},
	}
}

func newPreviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "preview FILE",
		Short: "Print a one-line description of a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := a.readSpec(args[0])
			if err != nil {
				return err
			}
			line := schedule.Preview(spec)
			if line == "" {
				return errors.Errorf("%s: schedule is incomplete", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}
}

func newNextCmd(a *app) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "next FILE",
		Short: "List upcoming run times of a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return errors.Errorf("-n must be at least 1, got %d", count)
			}
			spec, err := a.loadValid(args[0])
			if err != nil {
				return err
			}
			loc, err := schedule.LoadZone(spec.Zone())
			if err != nil {
				return err
			}
			runs, err := schedule.Upcoming(spec, a.now, count)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No upcoming runs.")
				return nil
			}
			for _, t := range runs {
				fmt.Fprintf(out, "%s  %s  (%s)\n",
					t.UTC().Format("2006-01-02T15:04:05Z"), t.In(loc).Format(localLayout), schedule.FormatRelative(t, a.now))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 5, "Number of run times to list")
	return cmd
}

func newCronCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cron FILE",
		Short: "Print the cron expressions equivalent to a recurring schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := a.loadValid(args[0])
			if err != nil {
				return err
			}
			exprs, err := schedule.CronSpecs(spec)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(exprs) == 0 {
				fmt.Fprintln(out, "One-time schedules have no cron form.")
				return nil
			}
			for _, expr := range exprs {
				fmt.Fprintln(out, expr)
			}
			if schedule.NeedsParityFilter(spec) {
				b := spec.(schedule.Biweekly)
				fmt.Fprintf(out, "# fires every week; keep only weeks active for anchor %s\n", b.Anchor)
			}
			return nil
		},
	}
}
