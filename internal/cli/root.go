// Package cli implements the schedctl command tree.
package cli

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	schedule "github.com/hariom-ql2/schedspec"
	"github.com/hariom-ql2/schedspec/internal/config"
	"github.com/hariom-ql2/schedspec/internal/logging"
)

// app carries the state every subcommand shares once the root command's
// pre-run has loaded configuration.
type app struct {
	v   *viper.Viper
	cfg config.Config
	log zerolog.Logger
	now time.Time

	flagConfig string
	flagNow    string
}

// NewRootCmd creates the root cobra command for schedctl.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "schedctl",
		Short: "Validate, preview and store job schedules",
		Long: "schedctl checks schedule definitions (once, daily, weekly, biweekly, monthly),\n" +
			"renders previews, computes upcoming run times across DST transitions and keeps\n" +
			"validated schedules in a SQLite or MongoDB store.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flagConfig, "config", "", "Config file (YAML or JSON)")
	pf.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	pf.String("log-format", "console", "Log format (console, json)")
	pf.String("timezone", "", "Timezone for schedule files that omit one")
	pf.String("store-driver", config.DriverSQLite, "Schedule store (sqlite, mongodb)")
	pf.String("store-dsn", "", "SQLite path or MongoDB URI")
	pf.StringVar(&a.flagNow, "now", "", "Evaluate as of this timestamp instead of the current time")

	for key, flag := range map[string]string{
		"log.level":    "log-level",
		"log.format":   "log-format",
		"timezone":     "timezone",
		"store.driver": "store-driver",
		"store.dsn":    "store-dsn",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newValidateCmd(a),
		newPreviewCmd(a),
		newNextCmd(a),
		newCronCmd(a),
		newParseCmd(a),
		newOffsetCmd(a),
		newSaveCmd(a),
		newListCmd(a),
		newDueCmd(a),
		newDeleteCmd(a),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.flagConfig)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.NewWithWriter(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())

	a.now = time.Now()
	if a.flagNow != "" {
		if a.now, err = a.parseNow(a.flagNow); err != nil {
			return err
		}
	}
	a.log.Debug().Str("command", cmd.Name()).Time("now", a.now).Str("store", cfg.Store.Driver).Msg("configured")
	return nil
}

// parseNow reads --now. Offset-free values are taken in the configured
// timezone, or UTC when none is set.
func (a *app) parseNow(s string) (time.Time, error) {
	ts, err := schedule.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "--now")
	}
	if ts.TZAware {
		return ts.Instant, nil
	}
	zone := a.cfg.Timezone
	if zone == "" {
		zone = "UTC"
	}
	t, err := schedule.ToUTC(ts.Wall, zone)
	return t, errors.Wrap(err, "--now")
}
