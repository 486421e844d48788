package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/uhppoted/uhppoted-app-wordpress/config"
	"github.com/uhppoted/uhppoted-app-wordpress/httpd"
	"github.com/uhppoted/uhppoted-app-wordpress/triggers"
)

var DaemonCmd = Daemon{
	command: command{},
	listen:  "",
	now:     false,
}

type Daemon struct {
	command
	listen string
	now    bool
}

func (cmd *Daemon) Name() string {
	return "daemon"
}

func (cmd *Daemon) Description() string {
	return "Runs the sync-posts and prune-rows triggers on schedule"
}

func (cmd *Daemon) Usage() string {
	return "[--listen <address>]"
}

func (cmd *Daemon) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] daemon [options]\n", APP)
	fmt.Println()
	fmt.Println("  Runs sync-posts every hour and prune-rows daily at 01:00 (or as configured in the [schedule]")
	fmt.Println("  section of the configuration file) until interrupted. The optional status endpoint reports")
	fmt.Println("  the most recent run of each trigger on /status.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    uhppoted-app-wordpress daemon --listen :8080`)
	fmt.Println()
}

func (cmd *Daemon) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("daemon")

	flagset.StringVar(&cmd.listen, "listen", cmd.listen, "Address for the HTTP status endpoint e.g. ':8080'. Disabled if not specified")
	flagset.BoolVar(&cmd.now, "now", cmd.now, "Runs sync-posts once immediately on startup")

	return flagset
}

func (cmd *Daemon) Execute(args ...any) error {
	options := args[0].(*Options)

	conf, err := cmd.configure(options)
	if err != nil {
		return err
	}

	overlay(&conf.Daemon.Listen, cmd.listen)

	if err := conf.ValidateWordPress(); err != nil {
		return err
	}

	jobs := map[string]triggers.Job{
		triggers.SyncPosts: func(ctx context.Context) error {
			return cmd.locked(ctx, conf, func(ctx context.Context) error {
				sync := SyncPosts{command: cmd.command}
				return sync.sync(ctx, conf)
			})
		},

		triggers.PruneRows: func(ctx context.Context) error {
			return cmd.locked(ctx, conf, func(ctx context.Context) error {
				prune := PruneRows{command: cmd.command}
				return prune.prune(ctx, conf)
			})
		},
	}

	var status *httpd.Status
	listener := func(run triggers.Run) {
		if status != nil {
			status.Record(run)
		}
	}

	cron := triggers.NewCron(time.Local, jobs, listener, log.StandardLogger())
	registrar := triggers.Registrar{
		Scheduler:         cron,
		SyncIntervalHours: conf.Schedule.SyncIntervalHours,
		PruneHourOfDay:    conf.Schedule.PruneHour,
	}

	list, err := registrar.Setup()
	if err != nil {
		return err
	}

	status = httpd.NewStatus(list, cron.Next)

	var srv *http.Server
	if conf.Daemon.Listen != "" {
		srv = &http.Server{
			Addr:              conf.Daemon.Listen,
			Handler:           httpd.Router(status),
			ReadHeaderTimeout: 2 * time.Second,
		}

		go func() {
			infof("listening for HTTP on %v", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errorf("status endpoint (%v)", err)
			}
		}()
	}

	cron.Start()

	for _, t := range list {
		if next, ok := cron.Next(t.Name); ok {
			infof("%-10v  %-12v  next:%v", t.Name, t.Schedule, next.Format("2006-01-02 15:04:05"))
		}
	}

	if cmd.now {
		go cron.Trigger(triggers.SyncPosts)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-interrupt
	infof("signalled, shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			warnf("%v", err)
		}
	}

	return cron.Stop(ctx)
}

// locked runs a job while holding the workdir lock, so a scheduled run never overlaps with another run
// or with a run started from the command line.
func (cmd *Daemon) locked(ctx context.Context, conf *config.Config, f func(context.Context) error) error {
	l, err := cmd.lock(ctx, conf)
	if err != nil {
		return err
	}

	defer l.Release()

	return f(ctx)
}
