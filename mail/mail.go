// Package mail sends transactional email through the Catalyst mail service.
package mail

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/zcatalyst/catalyst-go-sdk/core"
	"github.com/zcatalyst/catalyst-go-sdk/internal/invoke"
	"github.com/zcatalyst/catalyst-go-sdk/validate"
)

// Component tags every error raised by this package.
const Component = core.ComponentMail

// Mail is an outgoing message. FromEmail, ToEmail and Subject are required.
type Mail struct {
	FromEmail   string
	ToEmail     []string
	CC          []string
	BCC         []string
	ReplyTo     []string
	Subject     string
	Content     string
	HTMLMode    bool
	DisplayName string
	Attachments []Attachment
}

// Attachment is a file sent along with a mail.
type Attachment struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

// Email sends mail through the backend.
type Email struct {
	requester core.Requester
}

// New creates a mail facade over the given requester.
func New(r core.Requester) *Email {
	return &Email{requester: r}
}

// SendMail validates m and posts it as a multipart form to /email/send.
//
// Example:
//
//	resp, err := mail.New(requester).SendMail(ctx, &mail.Mail{
//	    FromEmail: "noreply@example.com",
//	    ToEmail:   []string{"alice@example.com"},
//	    Subject:   "Welcome",
//	    Content:   "<h1>Hello</h1>",
//	    HTMLMode:  true,
//	})
func (e *Email) SendMail(ctx context.Context, m *Mail) (*Response, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}

	resp, err := invoke.Call[Response](ctx, e.requester, Component, nil, &core.Request{
		Method:   core.MethodPost,
		Path:     "/email/send",
		Body:     m.form(),
		Encoding: core.EncodingMultipart,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Validate checks that m carries a sender, at least one recipient and a
// subject. Errors are tagged with Component.
func Validate(m *Mail) error {
	return validate.Wrap(Component, func() error {
		if m == nil {
			return validate.NonEmptyObject("mail", m)
		}
		return validate.All(
			func() error { return validate.NonEmptyString("from_email", m.FromEmail) },
			func() error { return validate.NonEmptyStringArray("to_email", m.ToEmail) },
			func() error { return validate.NonEmptyString("subject", m.Subject) },
		)()
	})
}

// form builds the multipart body. It must only be called on a validated mail.
func (m *Mail) form() *core.Multipart {
	form := &core.Multipart{}
	form.AddField("from_email", m.FromEmail)
	form.AddField("to_email", strings.Join(m.ToEmail, ","))
	form.AddField("cc", strings.Join(m.CC, ","))
	form.AddField("bcc", strings.Join(m.BCC, ","))
	form.AddField("reply_to", strings.Join(m.ReplyTo, ","))
	form.AddField("subject", m.Subject)
	form.AddField("content", m.Content)
	form.AddField("display_name", m.DisplayName)
	if m.HTMLMode {
		form.AddField("html_mode", strconv.FormatBool(m.HTMLMode))
	}
	for _, a := range m.Attachments {
		form.Files = append(form.Files, core.FilePart{
			Field:       "attachments",
			FileName:    a.FileName,
			ContentType: a.ContentType,
			Content:     a.Content,
		})
	}
	return form
}

// IsError reports whether err was raised by the mail facade.
func IsError(err error) bool {
	return core.IsComponent(err, Component)
}
