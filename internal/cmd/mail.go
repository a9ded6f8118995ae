package cmd

import (
	"errors"
	"flag"
	"fmt"

	"github.com/mitchellh/cli"

	"github.com/zcatalyst/catalyst-go-sdk/mail"
	"github.com/zcatalyst/catalyst-go-sdk/outbox"
	"github.com/zcatalyst/catalyst-go-sdk/storage"
)

type MailCommand struct {
	*Command
}

func (c *MailCommand) Synopsis() string {
	return "Send transactional email"
}

func (c *MailCommand) Help() string {
	return `Usage: catalyst mail <subcommand> [options]

  This command groups subcommands for the project's mail service.`
}

func (c *MailCommand) Run(args []string) int {
	return cli.RunResultHelp
}

type MailSendCommand struct {
	*Command

	flagFrom        string
	flagTo          string
	flagCC          string
	flagBCC         string
	flagReplyTo     string
	flagSubject     string
	flagContent     string
	flagHTML        bool
	flagDisplayName string
	flagAttach      string
	flagArchive     string
	flagQueue       bool
}

func (c *MailSendCommand) Synopsis() string {
	return "Send an email"
}

func (c *MailSendCommand) Help() string {
	return `Usage: catalyst mail send [options]

  Sends an email. Attachments are read from the object storage bucket
  configured through the SPACES_* environment variables.` +
		flagHelp(c.Flags())
}

func (c *MailSendCommand) Flags() *flag.FlagSet {
	f := newFlagSet("mail send")
	f.StringVar(&c.flagFrom, "from", "", "(Required) Sender address.")
	f.StringVar(&c.flagTo, "to", "", "(Required) Comma separated recipients.")
	f.StringVar(&c.flagCC, "cc", "", "Comma separated CC recipients.")
	f.StringVar(&c.flagBCC, "bcc", "", "Comma separated BCC recipients.")
	f.StringVar(&c.flagReplyTo, "reply-to", "", "Comma separated reply-to addresses.")
	f.StringVar(&c.flagSubject, "subject", "", "(Required) Subject line.")
	f.StringVar(&c.flagContent, "content", "", "Message body.")
	f.BoolVar(&c.flagHTML, "html", false, "Send the body as HTML.")
	f.StringVar(&c.flagDisplayName, "display-name", "", "Sender display name.")
	f.StringVar(&c.flagAttach, "attach", "", "Comma separated object keys to attach.")
	f.StringVar(&c.flagArchive, "archive", "", "Archive the sent mail under this name.")
	f.BoolVar(&c.flagQueue, "queue", false, "Queue the mail on the outbox instead of sending it.")
	return f
}

func (c *MailSendCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return cli.RunResultHelp
	}

	m := &mail.Mail{
		FromEmail:   c.flagFrom,
		ToEmail:     splitList(c.flagTo),
		CC:          splitList(c.flagCC),
		BCC:         splitList(c.flagBCC),
		ReplyTo:     splitList(c.flagReplyTo),
		Subject:     c.flagSubject,
		Content:     c.flagContent,
		HTMLMode:    c.flagHTML,
		DisplayName: c.flagDisplayName,
	}

	keys := splitList(c.flagAttach)
	if c.flagQueue {
		return c.enqueue(m, keys)
	}

	var bucket *storage.Bucket
	if len(keys) > 0 || c.flagArchive != "" {
		if c.NewBucket == nil {
			return c.fail(errors.New("object storage is not configured"))
		}
		var err error
		if bucket, err = c.NewBucket(); err != nil {
			return c.fail(err)
		}
	}

	app, done, err := c.app()
	if err != nil {
		return c.fail(err)
	}
	defer done()

	if len(keys) > 0 {
		if m.Attachments, err = bucket.Attachments(c.ctx(), keys...); err != nil {
			return c.fail(err)
		}
	}

	resp, err := app.Email().SendMail(c.ctx(), m)
	if err != nil {
		return c.fail(err)
	}

	if c.flagArchive != "" {
		key, err := bucket.Archive(c.ctx(), c.flagArchive, resp)
		if err != nil {
			return c.fail(err)
		}
		c.Log.WithField("key", key).Info("Archived sent mail")
	}
	return c.output(resp)
}

// enqueue hands m to the outbox. Attachments and archiving are done by the
// worker.
func (c *MailSendCommand) enqueue(m *mail.Mail, keys []string) int {
	if c.NewOutbox == nil {
		return c.fail(errors.New("outbox is not configured"))
	}

	job, err := outbox.NewJob(m, keys...)
	if err != nil {
		return c.fail(err)
	}
	job.ArchiveName = c.flagArchive

	client, err := c.NewOutbox()
	if err != nil {
		return c.fail(err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Enqueue(c.ctx(), job); err != nil {
		return c.fail(err)
	}
	return c.output(map[string]any{"queued": true, "id": job.ID})
}

type MailWorkerCommand struct {
	*Command
}

func (c *MailWorkerCommand) Synopsis() string {
	return "Send queued mail"
}

func (c *MailWorkerCommand) Help() string {
	return `Usage: catalyst mail worker

  Consumes the mail outbox and sends each queued mail until interrupted.
  When object storage is configured, attachment keys are resolved from it
  and sent mail is archived there.`
}

func (c *MailWorkerCommand) Run(args []string) int {
	if len(args) > 0 {
		c.UI.Error("mail worker takes no arguments")
		return cli.RunResultHelp
	}
	if c.NewOutbox == nil {
		return c.fail(errors.New("outbox is not configured"))
	}

	app, done, err := c.app()
	if err != nil {
		return c.fail(err)
	}
	defer done()

	client, err := c.NewOutbox()
	if err != nil {
		return c.fail(err)
	}
	defer func() { _ = client.Close() }()

	worker := outbox.NewWorker(client, app.Email()).WithLogger(c.Log)
	if c.NewBucket != nil {
		bucket, err := c.NewBucket()
		if err != nil {
			c.Log.WithError(err).Warn("Object storage unavailable, attachments and archiving disabled")
		} else {
			worker.WithAttachments(bucket).WithArchiver(bucket)
		}
	}

	if err := worker.Run(c.ctx()); err != nil {
		return c.fail(err)
	}
	return c.output(worker.Stats())
}
