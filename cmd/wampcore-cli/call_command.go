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

// CallCommand joins the realm named in a config file, issues a single CALL,
// and prints the RESULT or ERROR it gets back.
type CallCommand struct {
	Ui cli.Ui
}

func (c *CallCommand) flags() *flag.FlagSet {
	return defaultFlagSet("call")
}

func (c *CallCommand) Run(args []string) int {
	fs := c.flags()
	if err := fs.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	rest := fs.Args()
	if len(rest) < 2 || len(rest) > 3 {
		c.Ui.Error("call requires a config file, a procedure, and an optional JSON array of arguments")
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

	results, err := sess.Call(wamp.URI(rest[1]), wamp.Dict{}, callArgs, nil)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("call: %s", err))
		return 1
	}

	switch ev := (<-results).(type) {
	case session.CallSucceeded:
		c.Ui.Output(fmt.Sprintf("result: args=%v kwargs=%v", ev.Arguments, ev.ArgsKw))
	case session.CallFailed:
		c.Ui.Error(fmt.Sprintf("call failed: %s args=%v kwargs=%v", ev.ErrorURI, ev.Arguments, ev.ArgsKw))
		return 1
	}

	return 0
}

func (c *CallCommand) Help() string {
	helpText := `
Usage: wampcore-cli call <config.toml> <procedure> [json-args]

  Calls procedure once and prints the RESULT or ERROR it receives.
  json-args, if given, is a JSON array decoded into the call's positional
  arguments.

` + helpForFlags(c.flags())
	return strings.TrimSpace(helpText)
}

func (c *CallCommand) Synopsis() string {
	return "Call a procedure once and print the result"
}
