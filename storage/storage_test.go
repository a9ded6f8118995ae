package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/zcatalyst/catalyst-go-sdk/mail"
)

type object struct {
	contentType string
	data        []byte
}

// fakeS3 is a path-style S3 emulator holding one bucket in memory.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]object
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucketPrefix := "/" + f.bucket
	if !strings.HasPrefix(r.URL.Path, bucketPrefix) {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
		return
	}
	key := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, bucketPrefix), "/")

	switch {
	case r.Method == http.MethodGet && key == "":
		prefix := r.URL.Query().Get("prefix")
		var keys []string
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
		fmt.Fprintf(&b, "<Name>%s</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>", f.bucket, prefix, len(keys))
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", k, len(f.objects[k].data))
		}
		b.WriteString("</ListBucketResult>")
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, b.String())

	case r.Method == http.MethodGet:
		obj, ok := f.objects[key]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("Content-Type", obj.contentType)
		_, _ = w.Write(obj.data)

	case r.Method == http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = object{contentType: r.Header.Get("Content-Type"), data: data}
		w.WriteHeader(http.StatusOK)

	default:
		writeS3Error(w, http.StatusMethodNotAllowed, "MethodNotAllowed")
	}
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
}

func newBucket(t *testing.T) (*Bucket, *fakeS3) {
	t.Helper()

	fake := &fakeS3{bucket: "attachments", objects: map[string]object{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	b, err := New(&Config{
		Endpoint:       server.URL,
		Region:         "us-east-1",
		Bucket:         "attachments",
		AccessKey:      "key",
		SecretKey:      "secret",
		Prefix:         "mail-archive/",
		ForcePathStyle: true,
	})
	require.NoError(t, err)
	b.now = func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC) }
	return b, fake
}

func TestBucket_Attachment(t *testing.T) {
	b, fake := newBucket(t)
	fake.objects["invoices/2026/invoice-42.pdf"] = object{contentType: "application/pdf", data: []byte("%PDF-1.7")}

	a, err := b.Attachment(context.Background(), "invoices/2026/invoice-42.pdf")
	require.NoError(t, err)
	assert.Equal(t, "invoice-42.pdf", a.FileName)
	assert.Equal(t, "application/pdf", a.ContentType)

	data, err := io.ReadAll(a.Content)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
}

func TestBucket_Attachment_NotFound(t *testing.T) {
	b, _ := newBucket(t)

	_, err := b.Attachment(context.Background(), "invoices/2026/missing.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "invoices/2026/missing.pdf")

	_, err = b.Attachments(context.Background(), "invoices/2026/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBucket_Attachment_ServerErrorIsNotNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeS3Error(w, http.StatusInternalServerError, "InternalError")
	}))
	t.Cleanup(server.Close)

	b, err := New(&Config{
		Endpoint:       server.URL,
		Region:         "us-east-1",
		Bucket:         "attachments",
		AccessKey:      "key",
		SecretKey:      "secret",
		ForcePathStyle: true,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = b.Attachment(ctx, "a.txt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestBucket_Attachments_AggregatesFailures(t *testing.T) {
	b, fake := newBucket(t)
	fake.objects["a.txt"] = object{contentType: "text/plain", data: []byte("a")}

	got, err := b.Attachments(context.Background(), "a.txt", "missing-1.txt", "missing-2.txt")
	require.Error(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a.txt", got[0].FileName)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.Contains(t, err.Error(), "missing-1.txt")
	assert.Contains(t, err.Error(), "missing-2.txt")
}

func TestBucket_Attachments_AllPresent(t *testing.T) {
	b, fake := newBucket(t)
	fake.objects["a.txt"] = object{contentType: "text/plain", data: []byte("a")}
	fake.objects["b.txt"] = object{contentType: "text/plain", data: []byte("b")}

	got, err := b.Attachments(context.Background(), "a.txt", "b.txt")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestBucket_ArchiveAndList(t *testing.T) {
	b, fake := newBucket(t)
	ctx := context.Background()

	key, err := b.Archive(ctx, "welcome-alice", &mail.Response{
		FromEmail: "noreply@example.com",
		ToEmail:   []string{"alice@example.com"},
		Subject:   "Welcome",
	})
	require.NoError(t, err)
	assert.Equal(t, "mail-archive/2026-10-15/welcome-alice.json", key)

	stored := fake.objects[key]
	assert.Equal(t, "application/json", stored.contentType)
	assert.Equal(t, "Welcome", gjson.GetBytes(stored.data, "subject").String())

	keys, err := b.List(ctx, "mail-archive/2026-10-15/")
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	_, err = b.Archive(ctx, "nothing", nil)
	assert.Error(t, err)
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(&Config{Region: "us-east-1"})
	assert.Error(t, err)

	_, err = New(nil)
	assert.Error(t, err)
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("SPACES_ENDPOINT", "https://nyc3.digitaloceanspaces.com")
	t.Setenv("SPACES_BUCKET", "mail")
	t.Setenv("SPACES_FORCE_PATH_STYLE", "true")

	cfg := NewConfigFromEnv()
	assert.Equal(t, "https://nyc3.digitaloceanspaces.com", cfg.Endpoint)
	assert.Equal(t, "mail", cfg.Bucket)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "mail-archive/", cfg.Prefix)
	assert.True(t, cfg.ForcePathStyle)
}
