package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	schedule "github.com/hariom-ql2/schedspec"
	"github.com/hariom-ql2/schedspec/internal/config"
	"github.com/hariom-ql2/schedspec/mongodb"
	"github.com/hariom-ql2/schedspec/sqlite"
)

// openStore connects to the configured store. The returned func releases it.
func (a *app) openStore(ctx context.Context) (schedule.Store, func(), error) {
	sc := a.cfg.Store
	switch sc.Driver {
	case config.DriverMongoDB:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(sc.DSN))
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect to mongodb")
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				a.log.Warn().Err(err).Msg("mongodb disconnect")
			}
		}
		st, err := mongodb.NewStore(mongodb.Config{
			Collection: client.Database(sc.Database).Collection(sc.Collection),
			Logger:     &a.log,
		})
		if err == nil {
			err = st.EnsureIndexes(ctx)
		}
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		return st, closeFn, nil
	default:
		st, err := sqlite.Open(ctx, sqlite.Config{Path: sc.DSN, Logger: &a.log})
		if err != nil {
			return nil, nil, err
		}
		return st, func() {
			if err := st.Close(); err != nil {
				a.log.Warn().Err(err).Msg("sqlite close")
			}
		}, nil
	}
}

// withStore runs fn against an open store.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, st schedule.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, st)
}

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save FILE",
		Short: "Validate a schedule and add it to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := a.readSpec(args[0])
			if err != nil {
				return err
			}
			rec, err := schedule.NewRecord(spec, a.now)
			if err != nil {
				return errors.Wrap(err, args[0])
			}
			return a.withStore(cmd, func(ctx context.Context, st schedule.Store) error {
				if err := st.Insert(ctx, rec); err != nil {
					return err
				}
				a.log.Info().Str("id", rec.ID).Str("type", string(rec.Spec.Kind())).Msg("schedule saved")
				fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
				return nil
			})
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, st schedule.Store) error {
				recs, err := st.List(ctx)
				if err != nil {
					return err
				}
				a.printRecords(cmd, recs)
				return nil
			})
		},
	}
}

func newDueCmd(a *app) *cobra.Command {
	var advance bool
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List stored schedules whose next run has arrived",
		Long: "Lists schedules due at --now. With --advance, each due schedule's next run\n" +
			"is moved past --now as a dispatcher would after running it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, st schedule.Store) error {
				recs, err := st.Due(ctx, a.now)
				if err != nil {
					return err
				}
				a.printRecords(cmd, recs)
				if !advance {
					return nil
				}
				for _, rec := range recs {
					u, err := schedule.Advance(rec, a.now)
					if err != nil {
						return errors.Wrapf(err, "advance %s", rec.ID)
					}
					if err := st.Update(ctx, rec.ID, u); err != nil {
						return err
					}
					next := u.Apply(*rec).NextRun
					ev := a.log.Info().Str("id", rec.ID)
					if next != nil {
						ev = ev.Time("next_run", *next)
					}
					ev.Msg("schedule advanced")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&advance, "advance", false, "Move due schedules to their next run")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a stored schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, st schedule.Store) error {
				if err := st.Remove(ctx, args[0]); err != nil {
					return err
				}
				a.log.Info().Str("id", args[0]).Msg("schedule deleted")
				return nil
			})
		},
	}
}

func (a *app) printRecords(cmd *cobra.Command, recs []*schedule.Record) {
	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, "No schedules found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tNEXT RUN\tSCHEDULE")
	for _, rec := range recs {
		next := "-"
		if rec.NextRun != nil {
			next = fmt.Sprintf("%s (%s)", rec.NextRun.UTC().Format(time.RFC3339), schedule.FormatRelative(*rec.NextRun, a.now))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.ID, rec.Spec.Kind(), next, schedule.Preview(rec.Spec))
	}
	_ = w.Flush()
}
