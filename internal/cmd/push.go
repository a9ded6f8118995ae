package cmd

import (
	"flag"
	"fmt"

	"github.com/mitchellh/cli"

	"github.com/zcatalyst/catalyst-go-sdk/push"
)

type PushCommand struct {
	*Command
}

func (c *PushCommand) Synopsis() string {
	return "Send push notifications"
}

func (c *PushCommand) Help() string {
	return `Usage: catalyst push <subcommand> [options] [args]

  This command groups subcommands for web and mobile push notifications.`
}

func (c *PushCommand) Run(args []string) int {
	return cli.RunResultHelp
}

type PushWebCommand struct {
	*Command

	flagMessage string
}

func (c *PushWebCommand) Synopsis() string {
	return "Notify web users"
}

func (c *PushWebCommand) Help() string {
	return `Usage: catalyst push web -message MESSAGE RECIPIENT...

  Sends MESSAGE to the listed web users.` +
		flagHelp(c.Flags())
}

func (c *PushWebCommand) Flags() *flag.FlagSet {
	f := newFlagSet("push web")
	f.StringVar(&c.flagMessage, "message", "", "(Required) Notification text.")
	return f
}

func (c *PushWebCommand) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return cli.RunResultHelp
	}

	app, done, err := c.app()
	if err != nil {
		return c.fail(err)
	}
	defer done()

	sent, err := app.PushNotification().Web().SendNotification(c.ctx(), c.flagMessage, flags.Args())
	if err != nil {
		return c.fail(err)
	}
	return c.output(map[string]bool{"sent": sent})
}

// PushMobileCommand serves both "push ios" and "push android".
type PushMobileCommand struct {
	*Command

	android bool

	flagAppID   string
	flagMessage string
	flagBadge   int
	flagSound   string
}

func (c *PushMobileCommand) platform() string {
	if c.android {
		return "android"
	}
	return "ios"
}

func (c *PushMobileCommand) Synopsis() string {
	if c.android {
		return "Notify an Android app user"
	}
	return "Notify an iOS app user"
}

func (c *PushMobileCommand) Help() string {
	return fmt.Sprintf(`Usage: catalyst push %s -app-id ID -message MESSAGE RECIPIENT

  Sends MESSAGE to RECIPIENT through the mobile app ID.`, c.platform()) +
		flagHelp(c.Flags())
}

func (c *PushMobileCommand) Flags() *flag.FlagSet {
	f := newFlagSet("push " + c.platform())
	f.StringVar(&c.flagAppID, "app-id", "", "(Required) Mobile app id.")
	f.StringVar(&c.flagMessage, "message", "", "(Required) Notification text.")
	f.IntVar(&c.flagBadge, "badge", 0, "Badge count.")
	f.StringVar(&c.flagSound, "sound", "", "Sound to play.")
	return f
}

func (c *PushMobileCommand) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return cli.RunResultHelp
	}
	if flags.NArg() != 1 {
		c.UI.Error("expected exactly one argument: RECIPIENT")
		return cli.RunResultHelp
	}

	app, done, err := c.app()
	if err != nil {
		return c.fail(err)
	}
	defer done()

	details := push.Details{
		Message: c.flagMessage,
		Badge:   c.flagBadge,
		Sound:   c.flagSound,
	}
	mobile := app.PushNotification().Mobile(c.flagAppID)
	send := mobile.SendIOSNotification
	if c.android {
		send = mobile.SendAndroidNotification
	}

	sent, err := send(c.ctx(), details, flags.Arg(0))
	if err != nil {
		return c.fail(err)
	}
	return c.output(map[string]bool{"sent": sent})
}
