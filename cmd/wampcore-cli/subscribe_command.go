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

// SubscribeCommand joins the realm named in a config file, subscribes to a
// topic, and prints every EVENT it receives until interrupted.
type SubscribeCommand struct {
	Ui cli.Ui
}

func (c *SubscribeCommand) flags() *flag.FlagSet {
	return defaultFlagSet("subscribe")
}

func (c *SubscribeCommand) Run(args []string) int {
	fs := c.flags()
	if err := fs.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	rest := fs.Args()
	if len(rest) != 2 {
		c.Ui.Error("subscribe requires a config file and a topic")
		c.Ui.Output(c.Help())
		return 1
	}

	cfg, err := config.Load(rest[0])
	if err != nil {
		c.Ui.Error(fmt.Sprintf("loading config: %s", err))
		return 1
	}

	sess, err := connectAndJoin(cfg)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	defer sess.Shutdown()

	events, err := sess.Subscribe(wamp.URI(rest[1]), wamp.Dict{})
	if err != nil {
		c.Ui.Error(fmt.Sprintf("subscribe: %s", err))
		return 1
	}

	for ev := range events {
		switch e := ev.(type) {
		case session.SubscriptionEstablished:
			c.Ui.Output(fmt.Sprintf("subscribed, id=%d", e.Subscription))
		case session.SubscriptionPayload:
			c.Ui.Output(fmt.Sprintf("event: args=%v kwargs=%v", e.Arguments, e.ArgsKw))
		case session.SubscriptionFailed:
			c.Ui.Error(fmt.Sprintf("subscribe failed: %s", e.ErrorURI))
			return 1
		case session.SubscriptionClosed:
			c.Ui.Output("subscription closed")
		}
	}

	return 0
}

func (c *SubscribeCommand) Help() string {
	helpText := `
Usage: wampcore-cli subscribe <config.toml> <topic>

  Joins the realm named in config.toml and streams every event published
  to topic until the subscription or session ends.

` + helpForFlags(c.flags())
	return strings.TrimSpace(helpText)
}

func (c *SubscribeCommand) Synopsis() string {
	return "Subscribe to a topic and print events as they arrive"
}
