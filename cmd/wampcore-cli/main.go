// Command wampcore-cli is a small interactive client exercising the
// wampcore session against a live router: joining a realm, subscribing,
// publishing, calling, and servicing registered procedures, each as its
// own subcommand reading connection details from a TOML config file.
package main

import (
	"os"

	"github.com/recordevolution/wampcore/config"
	"github.com/recordevolution/wampcore/logging"

	"github.com/mitchellh/cli"
)

var version = "dev"

func main() {
	args := &config.CLIArguments{
		Debug:         os.Getenv("WAMPCORE_DEBUG") != "",
		PrettyLogging: true,
	}
	logging.Setup(args)

	ui := &cli.ColoredUi{
		ErrorColor: cli.UiColorRed,
		WarnColor:  cli.UiColorYellow,
		Ui: &cli.BasicUi{
			Writer:      os.Stdout,
			ErrorWriter: os.Stderr,
			Reader:      os.Stdin,
		},
	}

	c := &cli.CLI{
		Name:    "wampcore-cli",
		Version: version,
		Args:    os.Args[1:],
	}

	c.Commands = map[string]cli.CommandFactory{
		"join": func() (cli.Command, error) {
			return &JoinCommand{Ui: ui}, nil
		},
		"subscribe": func() (cli.Command, error) {
			return &SubscribeCommand{Ui: ui}, nil
		},
		"publish": func() (cli.Command, error) {
			return &PublishCommand{Ui: ui}, nil
		},
		"call": func() (cli.Command, error) {
			return &CallCommand{Ui: ui}, nil
		},
		"register": func() (cli.Command, error) {
			return &RegisterCommand{Ui: ui}, nil
		},
	}

	exitStatus, err := c.Run()
	if err != nil {
		ui.Error("Error: " + err.Error())
	}
	os.Exit(exitStatus)
}
