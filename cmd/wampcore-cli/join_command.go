package main

import (
	"fmt"
	"strings"

	"github.com/recordevolution/wampcore/config"

	"github.com/mitchellh/cli"
)

// JoinCommand dials the router named in a config file, joins its realm,
// reports the assigned session id, and leaves again. It exists mostly to
// sanity-check a config file and a router's reachability.
type JoinCommand struct {
	Ui cli.Ui
}

func (c *JoinCommand) Run(args []string) int {
	fs := defaultFlagSet("join")
	if err := fs.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	rest := fs.Args()
	if len(rest) != 1 {
		c.Ui.Error("join requires a config file")
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

	c.Ui.Output(fmt.Sprintf("joined realm %q as session %d", sess.Realm(), sess.SessionID()))
	return 0
}

func (c *JoinCommand) Help() string {
	helpText := `
Usage: wampcore-cli join <config.toml>

  Dials the router and realm named in config.toml, reports the assigned
  session id, and leaves again.
`
	return strings.TrimSpace(helpText)
}

func (c *JoinCommand) Synopsis() string {
	return "Join a realm and report the assigned session id"
}
