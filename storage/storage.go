// Package storage connects mail to S3-compatible object storage
// (DigitalOcean Spaces, AWS S3, MinIO): it loads attachments from a bucket
// and archives sent mail records back to it.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"

	"github.com/zcatalyst/catalyst-go-sdk/mail"
)

// ErrNotFound is wrapped into the error for a key that does not exist.
var ErrNotFound = errors.New("object not found")

// Config contains the bucket location and credentials
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// Prefix is prepended to archive keys
	Prefix string
	// ForcePathStyle addresses the bucket as a path segment, as MinIO and
	// local emulators require
	ForcePathStyle bool
}

// NewConfigFromEnv reads SPACES_* environment variables.
func NewConfigFromEnv() *Config {
	return &Config{
		Endpoint:       os.Getenv("SPACES_ENDPOINT"),
		Region:         getEnvOrDefault("SPACES_REGION", "us-east-1"),
		Bucket:         os.Getenv("SPACES_BUCKET"),
		AccessKey:      os.Getenv("SPACES_ACCESS_KEY"),
		SecretKey:      os.Getenv("SPACES_SECRET_KEY"),
		Prefix:         getEnvOrDefault("SPACES_PREFIX", "mail-archive/"),
		ForcePathStyle: os.Getenv("SPACES_FORCE_PATH_STYLE") == "true",
	}
}

// Bucket reads attachments from and archives mail into one bucket.
type Bucket struct {
	client s3iface.S3API
	bucket string
	prefix string
	now    func() time.Time
}

// New creates a Bucket from cfg.
func New(cfg *Config) (*Bucket, error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket cannot be empty")
	}

	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return NewWithClient(s3.New(sess), cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient wraps an existing S3 client.
func NewWithClient(client s3iface.S3API, bucket, prefix string) *Bucket {
	return &Bucket{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
	}
}

// Attachment loads the object at key as a mail attachment. The whole
// object is read into memory.
func (b *Bucket) Attachment(ctx context.Context, key string) (mail.Attachment, error) {
	out, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return mail.Attachment{}, fmt.Errorf("failed to get %s: %w: %w", key, ErrNotFound, err)
		}
		return mail.Attachment{}, fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return mail.Attachment{}, fmt.Errorf("failed to read %s: %w", key, err)
	}

	return mail.Attachment{
		FileName:    path.Base(key),
		ContentType: aws.StringValue(out.ContentType),
		Content:     bytes.NewReader(data),
	}, nil
}

// Attachments loads every key. It returns the attachments that loaded and
// a combined error naming every key that did not.
func (b *Bucket) Attachments(ctx context.Context, keys ...string) ([]mail.Attachment, error) {
	var result *multierror.Error
	attachments := make([]mail.Attachment, 0, len(keys))
	for _, key := range keys {
		a, err := b.Attachment(ctx, key)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		attachments = append(attachments, a)
	}
	return attachments, result.ErrorOrNil()
}

// List returns the keys under prefix.
func (b *Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := b.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	return keys, nil
}

// Archive stores a sent mail record as JSON under
// {prefix}{yyyy-mm-dd}/{name}.json and returns the key.
func (b *Bucket) Archive(ctx context.Context, name string, resp *mail.Response) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("nothing to archive")
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to encode mail record: %w", err)
	}

	now := b.now().UTC()
	key := fmt.Sprintf("%s%s/%s.json", b.prefix, now.Format("2006-01-02"), strings.TrimSuffix(name, ".json"))

	_, err = b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]*string{
			"subject":      aws.String(resp.Subject),
			"archive-time": aws.String(now.Format(time.RFC3339)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", key, err)
	}
	return key, nil
}

func isNotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var awsErr awserr.Error
	return errors.As(err, &awsErr) && awsErr.Code() == s3.ErrCodeNoSuchKey
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
