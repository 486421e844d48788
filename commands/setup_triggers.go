package commands

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/uhppoted/uhppoted-app-wordpress/triggers"
)

var SetupTriggersCmd = SetupTriggers{
	crontab: "",
	command: "",
	user:    "",
}

type SetupTriggers struct {
	crontab string
	command string
	user    string
}

func (cmd *SetupTriggers) Name() string {
	return "setup-triggers"
}

func (cmd *SetupTriggers) Description() string {
	return "Registers the hourly sync-posts and daily prune-rows triggers"
}

func (cmd *SetupTriggers) Usage() string {
	return "[--crontab <file>] [--user <user>]"
}

func (cmd *SetupTriggers) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] setup-triggers [options]\n", APP)
	fmt.Println()
	fmt.Println("  Registers the sync-posts and prune-rows triggers in a crontab file, replacing any existing")
	fmt.Println("  uhppoted-app-wordpress entries. Prints the crontab entries if no file is specified. The schedule")
	fmt.Println("  is taken from the [schedule] section of the configuration file (hourly sync, prune at 01:00).")
	fmt.Println("  Entries in a /etc/cron.d file include the user field, which defaults to 'root'.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    uhppoted-app-wordpress setup-triggers`)
	fmt.Println(`    uhppoted-app-wordpress --config /etc/wordpress.toml setup-triggers --crontab /etc/cron.d/uhppoted-app-wordpress --user uhppoted`)
	fmt.Println()
}

func (cmd *SetupTriggers) FlagSet() *flag.FlagSet {
	flagset := flag.NewFlagSet("setup-triggers", flag.ExitOnError)

	flagset.StringVar(&cmd.crontab, "crontab", cmd.crontab, "Crontab file to update. Prints the entries to the console if not specified")
	flagset.StringVar(&cmd.command, "command", cmd.command, "Command line prefix for the crontab entries. Defaults to this executable and configuration")
	flagset.StringVar(&cmd.user, "user", cmd.user, "User field for system crontab entries. Defaults to 'root' for a file in a cron.d directory")

	return flagset
}

func (cmd *SetupTriggers) Execute(args ...any) error {
	options := args[0].(*Options)

	conf, err := loadConfig(options)
	if err != nil {
		return err
	}

	command := cmd.command
	if command == "" {
		command = executable(options)
	}

	crontab := triggers.NewCrontab(command)
	if cmd.crontab != "" {
		if crontab, err = readCrontab(cmd.crontab, command); err != nil {
			return err
		}
	}

	crontab.User = cmd.user
	if crontab.User == "" && cmd.crontab != "" && filepath.Base(filepath.Dir(cmd.crontab)) == "cron.d" {
		crontab.User = "root"
	}

	registrar := triggers.Registrar{
		Scheduler:         crontab,
		SyncIntervalHours: conf.Schedule.SyncIntervalHours,
		PruneHourOfDay:    conf.Schedule.PruneHour,
	}

	list, err := registrar.Setup()
	if err != nil {
		return err
	}

	for _, t := range list {
		debugf("registered trigger  %v", t)
	}

	if cmd.crontab == "" {
		return crontab.Write(os.Stdout)
	}

	var b bytes.Buffer
	if err := crontab.Write(&b); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cmd.crontab), 0755); err != nil {
		return err
	}

	// ... write to temp file and rename so that cron never sees a partial file
	tmp := cmd.crontab + ".tmp"
	if err := os.WriteFile(tmp, b.Bytes(), 0644); err != nil {
		return err
	}

	if err := os.Rename(tmp, cmd.crontab); err != nil {
		os.Remove(tmp)
		return err
	}

	infof("updated crontab %v", cmd.crontab)

	return nil
}

func readCrontab(file, command string) (*triggers.Crontab, error) {
	f, err := os.Open(file)
	if errors.Is(err, os.ErrNotExist) {
		return triggers.NewCrontab(command), nil
	} else if err != nil {
		return nil, err
	}

	defer f.Close()

	return triggers.ReadCrontab(f, command)
}

func executable(options *Options) string {
	path, err := os.Executable()
	if err != nil {
		path = APP
	}

	args := []string{shellquote(path)}
	if options.Config != "" {
		args = append(args, "--config", shellquote(options.Config))
	}

	return strings.Join(args, " ")
}

var unquoted = regexp.MustCompile(`^[a-zA-Z0-9_./:=@%+-]+$`)

// shellquote single quotes a crontab command argument if it contains anything other than the
// characters that are safe unquoted in sh. The % is escaped regardless because cron treats it as a
// newline.
func shellquote(s string) string {
	if s != "" && unquoted.MatchString(s) {
		return strings.ReplaceAll(s, "%", `\%`)
	}

	s = strings.ReplaceAll(s, "'", `'\''`)
	s = strings.ReplaceAll(s, "%", `\%`)

	return "'" + s + "'"
}
