package commands

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/uhppoted/uhppoted-app-wordpress/config"
)

var ConfigCmd = Config{
	command: command{},
	save:    false,
	out:     os.Stdout,
}

type Config struct {
	command
	save bool
	out  io.Writer
}

func (cmd *Config) Name() string {
	return "config"
}

func (cmd *Config) Description() string {
	return "Displays or saves the effective configuration"
}

func (cmd *Config) Usage() string {
	return "[--save]"
}

func (cmd *Config) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] config [options]\n", APP)
	fmt.Println()
	fmt.Println("  Prints the configuration file with the defaults and command line options applied. With --save the")
	fmt.Println("  configuration is written back to the --config file (or the default configuration file), which is")
	fmt.Println("  a convenient way to create an initial configuration.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    uhppoted-app-wordpress config`)
	fmt.Println(`    uhppoted-app-wordpress --config /etc/uhppoted/wordpress.toml config --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" --save`)
	fmt.Println()
}

func (cmd *Config) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("config")

	flagset.BoolVar(&cmd.save, "save", cmd.save, "Writes the configuration to the configuration file")

	return flagset
}

func (cmd *Config) Execute(args ...any) error {
	options := args[0].(*Options)

	conf, err := loadConfig(options)
	if err != nil {
		return err
	}

	cmd.apply(conf)

	if !cmd.save {
		return conf.Write(cmd.out)
	}

	file := options.Config
	if file == "" {
		file = config.DEFAULT_CONFIG
	}

	if err := conf.Save(file); err != nil {
		return fmt.Errorf("unable to save configuration to %v (%w)", file, err)
	}

	infof("saved configuration to %v", file)

	return nil
}
