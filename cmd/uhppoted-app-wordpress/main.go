package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	uhppoted "github.com/uhppoted/uhppoted-lib/command"

	"github.com/uhppoted/uhppoted-app-wordpress/commands"
)

var cli = []uhppoted.Command{
	&commands.VersionCmd,
	&commands.AuthoriseCmd,
	&commands.SyncPostsCmd,
	&commands.PruneRowsCmd,
	&commands.SetupTriggersCmd,
	&commands.GetCmd,
	&commands.AppendRowsCmd,
	&commands.ConfigCmd,
	&commands.DaemonCmd,
}

var options = commands.Options{
	Config: "",
	Debug:  false,
}

var help = uhppoted.NewHelp(commands.APP, cli, nil)

func main() {
	flag.StringVar(&options.Config, "config", options.Config, "Configuration file path")
	flag.BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	if options.Debug {
		log.SetLevel(log.DebugLevel)
	}

	cmd, err := uhppoted.Parse(cli, nil, help)
	if err != nil {
		fmt.Printf("\nError parsing command line: %v\n\n", err)
		os.Exit(1)
	}

	if cmd == nil {
		help.Execute()
		os.Exit(1)
	}

	if err = cmd.Execute(&options); err != nil {
		log.Errorf("ERROR: %v", err)
		os.Exit(1)
	}
}
