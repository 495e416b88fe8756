package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/recordevolution/wampcore/config"
	"github.com/recordevolution/wampcore/session"
	"github.com/recordevolution/wampcore/wamp"

	"github.com/mitchellh/cli"
)

// PublishCommand joins the realm named in a config file and publishes a
// single event to a topic, optionally waiting for router acknowledgement.
type PublishCommand struct {
	Ui cli.Ui
}

func (c *PublishCommand) flags() (*flag.FlagSet, *bool) {
	fs := defaultFlagSet("publish")
	ack := fs.Bool("ack", false, "wait for the router to acknowledge the publication")
	return fs, ack
}

func (c *PublishCommand) Run(args []string) int {
	fs, ack := c.flags()
	if err := fs.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	rest := fs.Args()
	if len(rest) < 2 || len(rest) > 3 {
		c.Ui.Error("publish requires a config file, a topic, and an optional JSON array of arguments")
		c.Ui.Output(c.Help())
		return 1
	}

	cfg, err := config.Load(rest[0])
	if err != nil {
		c.Ui.Error(fmt.Sprintf("loading config: %s", err))
		return 1
	}

	var jsonArgs string
	if len(rest) == 3 {
		jsonArgs = rest[2]
	}
	callArgs, err := parseCallArgs(jsonArgs)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	sess, err := connectAndJoin(cfg)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	defer sess.Shutdown()

	options := wamp.Dict{}
	if *ack {
		options["acknowledge"] = true
	}

	results, err := sess.Publish(wamp.URI(rest[1]), options, callArgs, nil)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("publish: %s", err))
		return 1
	}
	if !*ack {
		c.Ui.Output("published (no acknowledgement requested)")
		return 0
	}

	switch ev := (<-results).(type) {
	case session.PublicationSucceeded:
		c.Ui.Output(fmt.Sprintf("published, id=%d", ev.Publication))
	case session.PublicationFailed:
		c.Ui.Error(fmt.Sprintf("publish failed: %s", ev.ErrorURI))
		return 1
	}

	return 0
}

func (c *PublishCommand) Help() string {
	fs, _ := c.flags()
	helpText := `
Usage: wampcore-cli publish <config.toml> <topic> [json-args]

  Publishes a single event to topic. json-args, if given, is a JSON array
  decoded into the event's positional arguments.

` + helpForFlags(fs)
	return strings.TrimSpace(helpText)
}

func (c *PublishCommand) Synopsis() string {
	return "Publish a single event to a topic"
}
