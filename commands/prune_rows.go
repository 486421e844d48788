package commands

import (
	"context"
	"flag"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/uhppoted/uhppoted-app-wordpress/config"
	"github.com/uhppoted/uhppoted-app-wordpress/retention"
)

var PruneRowsCmd = PruneRows{
	command: command{},
	days:    0,
}

type PruneRows struct {
	command
	days   uint
	dryrun bool
}

func (cmd *PruneRows) Name() string {
	return "prune-rows"
}

func (cmd *PruneRows) Description() string {
	return "Deletes worksheet rows dated before the retention period"
}

func (cmd *PruneRows) Usage() string {
	return "--url <url> --range <range> [--days <days>]"
}

func (cmd *PruneRows) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] prune-rows [options]\n", APP)
	fmt.Println()
	fmt.Println("  Deletes the worksheet rows with a date before midnight 'days' days ago. The date is taken from the")
	fmt.Println("  configured date column, or the first column if none is configured. Rows with a missing or invalid")
	fmt.Println("  date are retained.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    uhppoted-app-wordpress prune-rows --days 14`)
	fmt.Println(`    uhppoted-app-wordpress prune-rows --xlsx "posts.xlsx" --range "Posts" --dryrun`)
	fmt.Println()
}

func (cmd *PruneRows) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("prune-rows")

	flagset.UintVar(&cmd.days, "days", cmd.days, "Retention period in days. Defaults to the configured retention (7 days)")
	flagset.BoolVar(&cmd.dryrun, "dryrun", cmd.dryrun, "Reports the rows that would be deleted without making any changes")

	return flagset
}

func (cmd *PruneRows) Execute(args ...any) error {
	options := args[0].(*Options)

	conf, err := cmd.configure(options)
	if err != nil {
		return err
	}

	if cmd.days > 0 {
		conf.Retention.Days = int(cmd.days)
	}

	ctx := context.Background()

	l, err := cmd.lock(ctx, conf)
	if err != nil {
		return err
	}

	defer l.Release()

	return cmd.prune(ctx, conf)
}

func (cmd *PruneRows) prune(ctx context.Context, conf *config.Config) error {
	s, closer, err := cmd.open(ctx, conf)
	if err != nil {
		return err
	}

	defer closer()

	options := retention.Options{
		Days:       conf.Retention.Days,
		DateColumn: conf.Columns.Date,
		DryRun:     cmd.dryrun,
	}

	report, err := retention.NewPruner(s, options, log.StandardLogger()).Prune(ctx)
	if err != nil {
		return err
	}

	if len(report.Undated) > 0 {
		warnf("prune-rows  retained %v rows with an invalid date %v", len(report.Undated), report.Undated)
	}

	return nil
}
