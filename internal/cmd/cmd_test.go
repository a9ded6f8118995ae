package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/goccy/go-json"
	"github.com/mitchellh/cli"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	catalyst "github.com/zcatalyst/catalyst-go-sdk"
	"github.com/zcatalyst/catalyst-go-sdk/core"
	"github.com/zcatalyst/catalyst-go-sdk/internal/testutil"
	"github.com/zcatalyst/catalyst-go-sdk/storage"
	"github.com/zcatalyst/catalyst-go-sdk/transport"
)

func newTestCommand(stub *testutil.StubRequester) (*Command, *cli.MockUi) {
	ui := cli.NewMockUi()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return &Command{
		UI:      ui,
		Log:     logger,
		Context: context.Background(),
		NewApp: func(ctx context.Context) (*catalyst.App, error) {
			return catalyst.New(stub), nil
		},
	}, ui
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

// run executes args through a cli.CLI wired like Main.
func run(t *testing.T, base *Command, args ...string) int {
	t.Helper()
	code, _ := runHelp(t, base, args...)
	return code
}

// runHelp is run that also returns the help text the CLI printed.
func runHelp(t *testing.T, base *Command, args ...string) (int, string) {
	t.Helper()
	var help bytes.Buffer
	c := &cli.CLI{
		Name:       "catalyst",
		Args:       args,
		Version:    transport.Version,
		Commands:   Commands(base),
		HelpWriter: &help,
	}
	code, err := c.Run()
	require.NoError(t, err)
	return code, help.String()
}

func TestCommands_Help(t *testing.T) {
	base, _ := newTestCommand(testutil.NewStubRequester())
	for name, factory := range Commands(base) {
		t.Run(name, func(t *testing.T) {
			cmd, err := factory()
			require.NoError(t, err)
			assert.NotEmpty(t, cmd.Synopsis())
			assert.True(t, strings.HasPrefix(cmd.Help(), "Usage: catalyst "+strings.Fields(name)[0]))
		})
	}
}

func TestCacheGet(t *testing.T) {
	stub := testutil.NewStubRequester().Reply("GET /segment/12/cache", map[string]any{
		"cache_name":  "session:42",
		"cache_value": "active",
	})
	base, ui := newTestCommand(stub)

	code := run(t, base, "cache", "get", "-segment", "12", "-value", "session:42")
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Equal(t, "active\n", ui.OutputWriter.String())
	assert.Equal(t, "session:42", stub.LastRequest().Query.Get("cacheKey"))
}

func TestCacheGet_Entry(t *testing.T) {
	stub := testutil.NewStubRequester().Reply("GET /cache", map[string]any{
		"cache_name":      "session:42",
		"cache_value":     "active",
		"expiry_in_hours": "48",
	})
	base, ui := newTestCommand(stub)

	code := run(t, base, "cache", "get", "session:42")
	require.Equal(t, 0, code, ui.ErrorWriter.String())

	out := ui.OutputWriter.String()
	assert.Equal(t, "active", gjson.Get(out, "cache_value").String())
	assert.Equal(t, int64(48), gjson.Get(out, "expiry_in_hours").Int())
}

func TestCacheGet_Usage(t *testing.T) {
	stub := testutil.NewStubRequester()
	base, ui := newTestCommand(stub)

	code, help := runHelp(t, base, "cache", "get")
	assert.Equal(t, 1, code)
	assert.Contains(t, help, "Usage: catalyst cache get")
	assert.Contains(t, ui.ErrorWriter.String(), "expected exactly one argument")
	assert.Zero(t, stub.RequestCount())
}

func TestCacheGet_NearCacheNotConfigured(t *testing.T) {
	stub := testutil.NewStubRequester()
	base, ui := newTestCommand(stub)

	assert.Equal(t, 1, run(t, base, "cache", "get", "-near", "session:42"))
	assert.Contains(t, ui.ErrorWriter.String(), "near cache is not configured")
	assert.Zero(t, stub.RequestCount())
}

func TestCachePut(t *testing.T) {
	stub := testutil.NewStubRequester().Reply("PUT /segment/12/cache", map[string]any{
		"cache_name":  "session:42",
		"cache_value": "idle",
	})
	base, ui := newTestCommand(stub)

	code := run(t, base, "cache", "put", "-segment", "12", "-expiry", "2", "-update", "session:42", "idle")
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Equal(t, core.MethodPut, stub.LastRequest().Method)
	assert.Equal(t, "idle", gjson.Get(ui.OutputWriter.String(), "cache_value").String())
}

func TestCachePut_RejectsNegativeExpiry(t *testing.T) {
	stub := testutil.NewStubRequester()
	base, _ := newTestCommand(stub)

	assert.Equal(t, 1, run(t, base, "cache", "put", "-expiry", "-1", "k", "v"))
	assert.Zero(t, stub.RequestCount())
}

func TestCacheDelete(t *testing.T) {
	stub := testutil.NewStubRequester().Reply("DELETE /cache", nil)
	base, ui := newTestCommand(stub)

	code := run(t, base, "cache", "delete", "session:42")
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.True(t, gjson.Get(ui.OutputWriter.String(), "deleted").Bool())
}

func TestCacheSegments(t *testing.T) {
	stub := testutil.NewStubRequester().
		Reply("GET /segment", []map[string]any{{"id": "12", "segment_name": "sessions"}}).
		Reply("GET /segment/12", map[string]any{"id": "12", "segment_name": "sessions"})
	base, ui := newTestCommand(stub)

	require.Equal(t, 0, run(t, base, "cache", "segments"))
	assert.Equal(t, "sessions", gjson.Get(ui.OutputWriter.String(), "0.segment_name").String())

	ui.OutputWriter.Reset()
	require.Equal(t, 0, run(t, base, "cache", "segments", "-id", "12"))
	assert.Equal(t, "12", gjson.Get(ui.OutputWriter.String(), "id").String())
}

func TestMailSend(t *testing.T) {
	stub := testutil.NewStubRequester().Reply("POST /email/send", map[string]any{
		"from_email": []string{"noreply@example.com"},
		"to_email":   "alice@example.com,bob@example.com",
		"subject":    "Welcome",
	})
	base, ui := newTestCommand(stub)

	code := run(t, base, "mail", "send",
		"-from", "noreply@example.com",
		"-to", "alice@example.com, bob@example.com",
		"-subject", "Welcome",
		"-content", "<h1>Hello</h1>",
		"-html",
	)
	require.Equal(t, 0, code, ui.ErrorWriter.String())

	form, ok := stub.LastRequest().Body.(*core.Multipart)
	require.True(t, ok)
	to, _ := form.Field("to_email")
	assert.Equal(t, "alice@example.com,bob@example.com", to)
	assert.Equal(t, "noreply@example.com", gjson.Get(ui.OutputWriter.String(), "from_email").String())
}

func TestMailSend_ValidationSendsNothing(t *testing.T) {
	stub := testutil.NewStubRequester()
	base, ui := newTestCommand(stub)

	assert.Equal(t, 1, run(t, base, "mail", "send", "-subject", "Welcome"))
	assert.NotEmpty(t, ui.ErrorWriter.String())
	assert.Zero(t, stub.RequestCount())
}

func TestMailSend_AttachRequiresStorage(t *testing.T) {
	stub := testutil.NewStubRequester()
	base, ui := newTestCommand(stub)

	code := run(t, base, "mail", "send",
		"-from", "noreply@example.com", "-to", "alice@example.com", "-subject", "Report",
		"-attach", "reports/q3.pdf",
	)
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "object storage is not configured")
	assert.Zero(t, stub.RequestCount())
}

// memS3 serves GetObject from memory and records PutObject keys.
type memS3 struct {
	s3iface.S3API
	objects map[string][]byte
	puts    []string
}

func (m *memS3) GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil)
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: aws.String("application/pdf"),
	}, nil
}

func (m *memS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	m.puts = append(m.puts, aws.StringValue(in.Key))
	return &s3.PutObjectOutput{}, nil
}

func TestMailSend_AttachAndArchiveOpenBucketOnce(t *testing.T) {
	stub := testutil.NewStubRequester().Reply("POST /email/send", map[string]any{
		"from_email": "noreply@example.com",
		"to_email":   []string{"alice@example.com"},
		"subject":    "Report",
	})
	base, ui := newTestCommand(stub)

	fake := &memS3{objects: map[string][]byte{"reports/q3.pdf": []byte("%PDF-1.7")}}
	opens := 0
	base.NewBucket = func() (*storage.Bucket, error) {
		opens++
		return storage.NewWithClient(fake, "attachments", "mail-archive/"), nil
	}

	code := run(t, base, "mail", "send",
		"-from", "noreply@example.com", "-to", "alice@example.com", "-subject", "Report",
		"-attach", "reports/q3.pdf", "-archive", "report-alice",
	)
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Equal(t, 1, opens)

	form, ok := stub.LastRequest().Body.(*core.Multipart)
	require.True(t, ok)
	assert.Len(t, form.Files, 1)

	require.Len(t, fake.puts, 1)
	assert.True(t, strings.HasSuffix(fake.puts[0], "/report-alice.json"))
}

func TestMailSend_MissingAttachment(t *testing.T) {
	stub := testutil.NewStubRequester()
	base, ui := newTestCommand(stub)
	base.NewBucket = func() (*storage.Bucket, error) {
		return storage.NewWithClient(&memS3{}, "attachments", ""), nil
	}

	code := run(t, base, "mail", "send",
		"-from", "noreply@example.com", "-to", "alice@example.com", "-subject", "Report",
		"-attach", "reports/missing.pdf",
	)
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "reports/missing.pdf")
	assert.Zero(t, stub.RequestCount())
}

func TestPushWeb(t *testing.T) {
	stub := testutil.NewStubRequester().Reply("POST /project-user/notify", true)
	base, ui := newTestCommand(stub)

	code := run(t, base, "push", "web", "-message", "Build finished", "alice@example.com", "bob@example.com")
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.True(t, gjson.Get(ui.OutputWriter.String(), "sent").Bool())
}

func TestPushAndroid(t *testing.T) {
	stub := testutil.NewStubRequester().Reply("POST /push-notification/", true)
	base, ui := newTestCommand(stub)

	code := run(t, base, "push", "android", "-app-id", "10017000000009", "-message", "Shipped", "-badge", "1", "bob@example.com")
	require.Equal(t, 0, code, ui.ErrorWriter.String())

	req := stub.LastRequest()
	assert.Equal(t, "/push-notification/10017000000009/project-user/notify", req.Path)
	assert.Equal(t, "true", req.Query.Get("isAndroid"))
}

func TestPushIOS_MissingAppID(t *testing.T) {
	stub := testutil.NewStubRequester()
	base, _ := newTestCommand(stub)

	assert.Equal(t, 1, run(t, base, "push", "ios", "-message", "Shipped", "bob@example.com"))
	assert.Zero(t, stub.RequestCount())
}

func TestZCQL(t *testing.T) {
	stub := testutil.NewStubRequester().Reply("POST /query", []map[string]any{
		{"Users": map[string]any{"ROWID": "1", "name": "alice"}},
		{"Users": map[string]any{"ROWID": "2", "name": "bob"}},
	})
	base, ui := newTestCommand(stub)

	code := run(t, base, "zcql", "-table", "Users", "SELECT", "*", "FROM", "Users")
	require.Equal(t, 0, code, ui.ErrorWriter.String())

	out := ui.OutputWriter.String()
	assert.Equal(t, "bob", gjson.Get(out, "1.name").String())
	assert.Equal(t, "SELECT * FROM Users", gjson.GetBytes(mustJSON(t, stub.LastRequest().Body), "query").String())
}

func TestZCQL_Usage(t *testing.T) {
	stub := testutil.NewStubRequester()
	base, _ := newTestCommand(stub)

	code, help := runHelp(t, base, "zcql")
	assert.Equal(t, 1, code)
	assert.Contains(t, help, "Usage: catalyst zcql")
	assert.Zero(t, stub.RequestCount())
}

func TestPush_Usage(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		usage   string
		message string
	}{
		{name: "group", args: []string{"push"}, usage: "Usage: catalyst push <subcommand>"},
		{name: "ios without recipient", args: []string{"push", "ios", "-app-id", "10017000000009", "-message", "Shipped"}, usage: "Usage: catalyst push ios", message: "expected exactly one argument"},
		{name: "android with two recipients", args: []string{"push", "android", "-app-id", "10017000000009", "-message", "Shipped", "a@example.com", "b@example.com"}, usage: "Usage: catalyst push android", message: "expected exactly one argument"},
		{name: "web bad flag", args: []string{"push", "web", "-badge", "1", "alice@example.com"}, usage: "Usage: catalyst push web", message: "error parsing flags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := testutil.NewStubRequester()
			base, ui := newTestCommand(stub)

			code, help := runHelp(t, base, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, help, tt.usage)
			if tt.message != "" {
				assert.Contains(t, ui.ErrorWriter.String(), tt.message)
			}
			assert.Zero(t, stub.RequestCount())
		})
	}
}

func TestMail_Usage(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		usage   string
		message string
	}{
		{name: "group", args: []string{"mail"}, usage: "Usage: catalyst mail <subcommand>"},
		{name: "send bad flag", args: []string{"mail", "send", "-priority", "high"}, usage: "Usage: catalyst mail send", message: "error parsing flags"},
		{name: "worker with arguments", args: []string{"mail", "worker", "now"}, usage: "Usage: catalyst mail worker", message: "takes no arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := testutil.NewStubRequester()
			base, ui := newTestCommand(stub)

			code, help := runHelp(t, base, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, help, tt.usage)
			if tt.message != "" {
				assert.Contains(t, ui.ErrorWriter.String(), tt.message)
			}
			assert.Zero(t, stub.RequestCount())
		})
	}
}

func TestVersion(t *testing.T) {
	for _, args := range [][]string{
		{"catalyst", "version"},
		{"catalyst", "-version"},
		{"catalyst", "-v"},
	} {
		t.Run(strings.Join(args[1:], " "), func(t *testing.T) {
			base, ui := newTestCommand(testutil.NewStubRequester())

			require.Equal(t, 0, run(t, base, normalizeArgs(args)[1:]...))
			assert.Equal(t, transport.Version+"\n", ui.OutputWriter.String())
		})
	}

	assert.Equal(t, []string{"catalyst", "cache", "-v"}, normalizeArgs([]string{"catalyst", "cache", "-v"}))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalyst.env")
	require.NoError(t, os.WriteFile(path, []byte("CATALYST_CLI_TEST_VALUE=from-file\n"), 0o600))

	t.Setenv(envFileVar, path)
	t.Cleanup(func() { os.Unsetenv("CATALYST_CLI_TEST_VALUE") })
	require.NoError(t, loadEnv())
	assert.Equal(t, "from-file", os.Getenv("CATALYST_CLI_TEST_VALUE"))

	t.Setenv(envFileVar, filepath.Join(dir, "missing.env"))
	assert.Error(t, loadEnv())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b,"))
	assert.Nil(t, splitList(""))
}

func TestMailSend_QueueRequiresOutbox(t *testing.T) {
	stub := testutil.NewStubRequester()
	base, ui := newTestCommand(stub)

	code := run(t, base, "mail", "send",
		"-from", "noreply@example.com", "-to", "alice@example.com", "-subject", "Welcome",
		"-queue",
	)
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "outbox is not configured")
	assert.Zero(t, stub.RequestCount())
}

func TestMailWorker_RequiresOutbox(t *testing.T) {
	base, ui := newTestCommand(testutil.NewStubRequester())

	assert.Equal(t, 1, run(t, base, "mail", "worker"))
	assert.Contains(t, ui.ErrorWriter.String(), "outbox is not configured")
}
