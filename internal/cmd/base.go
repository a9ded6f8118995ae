package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mitchellh/cli"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	catalyst "github.com/zcatalyst/catalyst-go-sdk"
	"github.com/zcatalyst/catalyst-go-sdk/nearcache"
	"github.com/zcatalyst/catalyst-go-sdk/outbox"
	"github.com/zcatalyst/catalyst-go-sdk/storage"
)

// Command carries what every subcommand shares. The constructors are
// swapped out in tests.
type Command struct {
	UI      cli.Ui
	Log     logrus.FieldLogger
	Context context.Context

	// NewApp builds the App a command talks to.
	NewApp func(ctx context.Context) (*catalyst.App, error)
	// NewBucket opens the attachment bucket. Nil disables -attach and -archive.
	NewBucket func() (*storage.Bucket, error)
	// NewRedis connects the near cache. Nil disables -near.
	NewRedis func(ctx context.Context) (*redis.Client, *nearcache.Config, error)
	// NewOutbox connects the mail outbox. Nil disables -queue and "mail worker".
	NewOutbox func() (*outbox.Client, error)
}

// Commands returns the command tree rooted at base.
func Commands(base *Command) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"cache": func() (cli.Command, error) {
			return &CacheCommand{Command: base}, nil
		},
		"cache segments": func() (cli.Command, error) {
			return &CacheSegmentsCommand{Command: base}, nil
		},
		"cache get": func() (cli.Command, error) {
			return &CacheGetCommand{Command: base}, nil
		},
		"cache put": func() (cli.Command, error) {
			return &CachePutCommand{Command: base}, nil
		},
		"cache delete": func() (cli.Command, error) {
			return &CacheDeleteCommand{Command: base}, nil
		},
		"mail": func() (cli.Command, error) {
			return &MailCommand{Command: base}, nil
		},
		"mail send": func() (cli.Command, error) {
			return &MailSendCommand{Command: base}, nil
		},
		"mail worker": func() (cli.Command, error) {
			return &MailWorkerCommand{Command: base}, nil
		},
		"push": func() (cli.Command, error) {
			return &PushCommand{Command: base}, nil
		},
		"push web": func() (cli.Command, error) {
			return &PushWebCommand{Command: base}, nil
		},
		"push ios": func() (cli.Command, error) {
			return &PushMobileCommand{Command: base}, nil
		},
		"push android": func() (cli.Command, error) {
			return &PushMobileCommand{Command: base, android: true}, nil
		},
		"zcql": func() (cli.Command, error) {
			return &ZCQLCommand{Command: base}, nil
		},
		"version": func() (cli.Command, error) {
			return &VersionCommand{Command: base}, nil
		},
	}
}

func (c *Command) ctx() context.Context {
	if c.Context == nil {
		return context.Background()
	}
	return c.Context
}

// app builds the App and returns a func releasing it.
func (c *Command) app() (*catalyst.App, func(), error) {
	app, err := c.NewApp(c.ctx())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}
	return app, func() {
		if err := app.Close(); err != nil {
			c.Log.WithError(err).Warn("Failed to close client")
		}
	}, nil
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.SetOutput(io.Discard)
	return f
}

// flagHelp renders the defaults of f for a Help text.
func flagHelp(f *flag.FlagSet) string {
	var b strings.Builder
	f.SetOutput(&b)
	f.PrintDefaults()
	f.SetOutput(io.Discard)
	if b.Len() == 0 {
		return ""
	}
	return "\n\nOptions:\n\n" + b.String()
}

// output writes v as indented JSON.
func (c *Command) output(v any) int {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		c.UI.Error(fmt.Sprintf("failed to encode result: %v", err))
		return 1
	}
	c.UI.Output(string(raw))
	return 0
}

// fail reports err and returns the exit code for it.
func (c *Command) fail(err error) int {
	c.UI.Error(err.Error())
	return 1
}

// splitList splits a comma separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
