package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/uhppoted/uhppoted-app-wordpress/config"
	"github.com/uhppoted/uhppoted-app-wordpress/notify"
	"github.com/uhppoted/uhppoted-app-wordpress/posts"
	"github.com/uhppoted/uhppoted-app-wordpress/secrets"
)

var SyncPostsCmd = SyncPosts{
	command: command{},
}

type SyncPosts struct {
	command
	failfast bool
	dryrun   bool
}

func (cmd *SyncPosts) Name() string {
	return "sync-posts"
}

func (cmd *SyncPosts) Description() string {
	return "Publishes the worksheet rows as WordPress posts"
}

func (cmd *SyncPosts) Usage() string {
	return "--url <url> --range <range>"
}

func (cmd *SyncPosts) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] sync-posts [options]\n", APP)
	fmt.Println()
	fmt.Println("  Creates a WordPress post for each worksheet row without a post ID and records the new post ID in")
	fmt.Println("  the 'ID' column. Rows with a post ID update the existing post. If the [notify] section of the")
	fmt.Println("  configuration file has a webhook, an event is posted to the webhook for each new post.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    uhppoted-app-wordpress sync-posts --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                                      --range "Posts!A1:D"`)
	fmt.Println()
}

func (cmd *SyncPosts) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("sync-posts")

	flagset.BoolVar(&cmd.failfast, "fail-fast", cmd.failfast, "Stops at the first row that fails instead of continuing with the remaining rows")
	flagset.BoolVar(&cmd.dryrun, "dryrun", cmd.dryrun, "Reports the posts that would be created or updated without making any changes")

	return flagset
}

func (cmd *SyncPosts) Execute(args ...any) error {
	options := args[0].(*Options)

	conf, err := cmd.configure(options)
	if err != nil {
		return err
	}

	ctx := context.Background()

	l, err := cmd.lock(ctx, conf)
	if err != nil {
		return err
	}

	defer l.Release()

	return cmd.sync(ctx, conf)
}

func (cmd *SyncPosts) sync(ctx context.Context, conf *config.Config) error {
	s, closer, err := cmd.open(ctx, conf)
	if err != nil {
		return err
	}

	defer closer()

	client, err := publisher(ctx, conf)
	if err != nil {
		return err
	}

	options := posts.Options{
		Columns: posts.Columns{
			Title:   conf.Columns.Title,
			Content: conf.Columns.Content,
			ID:      conf.Columns.ID,
		},
		Status:   conf.WordPress.Status,
		FailFast: cmd.failfast,
		DryRun:   cmd.dryrun,
	}

	debugf("WordPress endpoint %v", client.Endpoint())

	report, err := posts.NewSynchronizer(s, client, options, log.StandardLogger()).Sync(ctx)
	if report != nil {
		infof("sync-posts  %v", report.Summarize())

		if !cmd.dryrun {
			cmd.notify(ctx, conf, report)
		}
	}

	return err
}

// notify posts a webhook event for each newly created post. Notification failures are logged but do not
// fail the sync.
func (cmd *SyncPosts) notify(ctx context.Context, conf *config.Config, report *posts.Report) {
	if strings.TrimSpace(conf.Notify.Webhook) == "" {
		return
	}

	url, err := secrets.Resolve(ctx, conf.Notify.Webhook)
	if err != nil {
		warnf("sync-posts  unable to resolve notification webhook (%v)", err)
		return
	}

	webhook := notify.NewWebhook(url, nil, conf.Timeout())

	for _, result := range report.Results {
		if result.Action != posts.Created || result.Err != nil || result.PostID == "" {
			continue
		}

		event := notify.Event{
			Value1: fmt.Sprintf("new post (ID: %v)", result.PostID),
			Value2: result.Title,
			Value3: fmt.Sprintf("row %v", result.Row),
		}

		if err := webhook.Notify(ctx, event); err != nil {
			warnf("sync-posts  error notifying new post %v (%v)", result.PostID, err)
		} else {
			debugf("sync-posts  notified new post %v", result.PostID)
		}
	}
}
