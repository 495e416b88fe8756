package main

import (
	"flag"
	"fmt"
	"os/exec"
	"strings"

	"github.com/recordevolution/wampcore/config"
	"github.com/recordevolution/wampcore/session"
	"github.com/recordevolution/wampcore/wamp"

	"github.com/mitchellh/cli"
)

// RegisterCommand joins the realm named in a config file, registers a
// procedure, and services every INVOCATION routed to it with one of two
// built-in handlers until the session ends.
type RegisterCommand struct {
	Ui cli.Ui
}

func (c *RegisterCommand) flags() *flag.FlagSet {
	return defaultFlagSet("register")
}

func (c *RegisterCommand) Run(args []string) int {
	fs := c.flags()
	if err := fs.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	rest := fs.Args()
	if len(rest) != 3 {
		c.Ui.Error("register requires a config file, a procedure, and a handler (echo|shell)")
		c.Ui.Output(c.Help())
		return 1
	}

	handler, err := resolveHandler(rest[2])
	if err != nil {
		c.Ui.Error(err.Error())
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

	events, err := sess.Register(wamp.URI(rest[1]), wamp.Dict{})
	if err != nil {
		c.Ui.Error(fmt.Sprintf("register: %s", err))
		return 1
	}

	for ev := range events {
		switch e := ev.(type) {
		case session.ProcedureRegistered:
			c.Ui.Output(fmt.Sprintf("registered, id=%d", e.Registration))
		case session.Invocation:
			c.Ui.Output(fmt.Sprintf("invocation: args=%v kwargs=%v", e.Arguments, e.ArgsKw))
			e.Respond(handler(e.Payload))
		case session.RegistrationFailed:
			c.Ui.Error(fmt.Sprintf("register failed: %s", e.ErrorURI))
			return 1
		case session.ProcedureUnregistered:
			c.Ui.Output("procedure unregistered")
		}
	}

	return 0
}

// callHandler services one INVOCATION's payload and reports how it went.
type callHandler func(session.Payload) session.CallOutcome

func resolveHandler(name string) (callHandler, error) {
	switch name {
	case "echo":
		return echoHandler, nil
	case "shell":
		return shellHandler, nil
	default:
		return nil, fmt.Errorf("unknown handler %q, want echo or shell", name)
	}
}

// echoHandler yields back exactly the arguments it was invoked with.
func echoHandler(p session.Payload) session.CallOutcome {
	return session.Succeed(p.Arguments, p.ArgsKw)
}

// shellHandler runs its first positional argument as a shell command via
// "sh -c" and yields its combined stdout/stderr as a single string result.
// It is a deliberately unrestricted command executor; run it only against
// realms you trust callers on.
func shellHandler(p session.Payload) session.CallOutcome {
	if len(p.Arguments) == 0 {
		return session.Fail(wamp.URI("wampcore.cli.missing_command"), nil, nil)
	}
	cmdline, ok := p.Arguments[0].(string)
	if !ok {
		return session.Fail(wamp.URI("wampcore.cli.invalid_command"), nil, nil)
	}

	out, err := exec.Command("sh", "-c", cmdline).CombinedOutput()
	if err != nil {
		return session.Fail(wamp.URI("wampcore.cli.command_failed"), wamp.List{string(out), err.Error()}, nil)
	}
	return session.Succeed(wamp.List{strings.TrimRight(string(out), "\n")}, nil)
}

func (c *RegisterCommand) Help() string {
	helpText := `
Usage: wampcore-cli register <config.toml> <procedure> <echo|shell>

  Registers procedure and services every invocation with a built-in
  handler: echo returns the call's own arguments; shell runs its first
  argument as a shell command and returns its output.

` + helpForFlags(c.flags())
	return strings.TrimSpace(helpText)
}

func (c *RegisterCommand) Synopsis() string {
	return "Register a procedure and service calls with a built-in handler"
}
