package outbox

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/zcatalyst/catalyst-go-sdk/mail"
)

// Job is a queued mail. Attachments travel as object storage keys and are
// resolved by the worker.
type Job struct {
	ID             string    `json:"id"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
	FromEmail      string    `json:"from_email"`
	ToEmail        []string  `json:"to_email"`
	CC             []string  `json:"cc,omitempty"`
	BCC            []string  `json:"bcc,omitempty"`
	ReplyTo        []string  `json:"reply_to,omitempty"`
	Subject        string    `json:"subject"`
	Content        string    `json:"content,omitempty"`
	HTMLMode       bool      `json:"html_mode,omitempty"`
	DisplayName    string    `json:"display_name,omitempty"`
	AttachmentKeys []string  `json:"attachment_keys,omitempty"`
	ArchiveName    string    `json:"archive_name,omitempty"`
}

// NewJob validates m and turns it into a job. In-memory attachments cannot
// be queued; pass object keys instead.
func NewJob(m *mail.Mail, attachmentKeys ...string) (*Job, error) {
	if err := mail.Validate(m); err != nil {
		return nil, err
	}
	if len(m.Attachments) > 0 {
		return nil, fmt.Errorf("mail attachments cannot be queued, use attachment keys")
	}
	return &Job{
		ID:             uuid.NewString(),
		EnqueuedAt:     time.Now().UTC(),
		FromEmail:      m.FromEmail,
		ToEmail:        m.ToEmail,
		CC:             m.CC,
		BCC:            m.BCC,
		ReplyTo:        m.ReplyTo,
		Subject:        m.Subject,
		Content:        m.Content,
		HTMLMode:       m.HTMLMode,
		DisplayName:    m.DisplayName,
		AttachmentKeys: attachmentKeys,
	}, nil
}

// Mail rebuilds the message, without attachments.
func (j *Job) Mail() *mail.Mail {
	return &mail.Mail{
		FromEmail:   j.FromEmail,
		ToEmail:     j.ToEmail,
		CC:          j.CC,
		BCC:         j.BCC,
		ReplyTo:     j.ReplyTo,
		Subject:     j.Subject,
		Content:     j.Content,
		HTMLMode:    j.HTMLMode,
		DisplayName: j.DisplayName,
	}
}

// Marshal serializes the job
func (j *Job) Marshal() ([]byte, error) {
	return json.Marshal(j)
}

// UnmarshalJob deserializes a job
func UnmarshalJob(data []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// DeadLetter is a job the worker gave up on.
type DeadLetter struct {
	Job        json.RawMessage `json:"job"`
	Subject    string          `json:"subject"`
	Error      string          `json:"error"`
	FailedAt   time.Time       `json:"failed_at"`
	Deliveries uint64          `json:"deliveries"`
}

// Marshal serializes the dead letter
func (d *DeadLetter) Marshal() ([]byte, error) {
	return json.Marshal(d)
}
