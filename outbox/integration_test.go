package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/zcatalyst/catalyst-go-sdk/internal/testutil"
	"github.com/zcatalyst/catalyst-go-sdk/mail"
)

func TestOutbox_NATS(t *testing.T) {
	url := testutil.StartNATS(t)

	cfg := DefaultConfig()
	cfg.URL = url
	cfg.MaxDeliver = 2
	cfg.AckWait = 2 * time.Second
	cfg.BatchTimeout = 200 * time.Millisecond

	client, err := NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Health())

	stub := testutil.NewStubRequester().Reply("POST /email/send", sentPayload())
	worker := quietWorker(mail.New(stub))
	worker.client = client

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	dlq, err := client.js.SubscribeSync(SubjectDLQ, nats.BindStream(cfg.DLQStreamName))
	require.NoError(t, err)

	t.Run("delivers a queued mail", func(t *testing.T) {
		job, err := NewJob(welcomeMail())
		require.NoError(t, err)
		require.NoError(t, client.Enqueue(context.Background(), job))

		require.Eventually(t, func() bool {
			return stub.RequestCount() == 1
		}, 10*time.Second, 50*time.Millisecond)
	})

	t.Run("dead-letters an invalid job", func(t *testing.T) {
		job := &Job{ID: "invalid-1", FromEmail: "noreply@example.com"}
		require.NoError(t, client.Enqueue(context.Background(), job))

		msg, err := dlq.NextMsg(10 * time.Second)
		require.NoError(t, err)
		assert.Equal(t, SubjectSend, msg.Header.Get("X-Original-Subject"))
		assert.Equal(t, "invalid-1", gjson.GetBytes(msg.Data, "job.id").String())
		assert.Contains(t, gjson.GetBytes(msg.Data, "error").String(), "to_email")
		assert.Equal(t, 1, stub.RequestCount())
	})

	require.Eventually(t, func() bool {
		return worker.Stats().DeadLettered == 1
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, int64(1), worker.Stats().Succeeded)
}
