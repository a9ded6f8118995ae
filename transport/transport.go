// Package transport is the reference HTTP implementation of
// core.Requester. It resolves request descriptors against the project
// endpoint, attaches the credential for the request's role and returns the
// raw response envelope. It does not retry or refresh tokens.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zcatalyst/catalyst-go-sdk/core"
	"github.com/zcatalyst/catalyst-go-sdk/telemetry"
)

// Version is reported in the default User-Agent.
const Version = "0.1.0"

// HTTP sends request descriptors over net/http.
type HTTP struct {
	client   *http.Client
	config   *Config
	endpoint string
	observer core.Observer
	logger   logrus.FieldLogger
}

var _ core.Requester = (*HTTP)(nil)

// New creates an HTTP transport. cfg is validated and defaulted in place.
func New(cfg *Config) (*HTTP, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config cannot be nil", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base URL: %v", ErrInvalidConfig, err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("%w: base URL must have a scheme and host", ErrInvalidConfig)
	}

	client := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        cfg.Pool.MaxIdleConns,
			MaxConnsPerHost:     cfg.Pool.MaxConnsPerHost,
			IdleConnTimeout:     cfg.Pool.IdleConnTimeout,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		Timeout: cfg.Timeout,
	}

	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.L()
	}

	return &HTTP{
		client:   client,
		config:   cfg,
		endpoint: strings.TrimRight(baseURL.String(), "/"),
		observer: cfg.Observer,
		logger:   logger,
	}, nil
}

// URL resolves req to an absolute URL:
// {BaseURL}/{service}/v1/project/{projectID}{path}?{query}
// req.Path is used as-is; facades escape path segments themselves.
func (t *HTTP) URL(req *core.Request) string {
	service := req.Service
	if service == "" {
		service = core.ServiceBaaS
	}

	var b strings.Builder
	b.WriteString(t.endpoint)
	b.WriteString("/" + string(service) + "/v1/project/" + url.PathEscape(t.config.ProjectID))
	b.WriteString(req.Path)
	if len(req.Query) > 0 {
		b.WriteString("?" + req.Query.Encode())
	}
	return b.String()
}

// Send implements core.Requester
func (t *HTTP) Send(ctx context.Context, req *core.Request) (*core.Response, error) {
	t.observer.OnRequestStart(req.Method, req.Path)
	start := time.Now()

	resp, err := t.send(ctx, req)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	t.observer.OnRequestEnd(req.Method, req.Path, status, time.Since(start), err)
	return resp, err
}

func (t *HTTP) send(ctx context.Context, req *core.Request) (*core.Response, error) {
	token, err := t.config.Credentials.Token(req.Role)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	target := t.URL(req)
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	httpReq.Header.Set("Environment", t.config.Environment)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", t.config.UserAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for key, value := range t.config.Headers {
		httpReq.Header.Set(key, value)
	}

	log := telemetry.EntryWithContext(t.logger, ctx).WithFields(logrus.Fields{
		"method":     req.Method,
		"path":       req.Path,
		"role":       string(req.Role),
		"request_id": requestID,
	})
	log.Debug("Sending Catalyst request")

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		netErr := &NetworkError{Op: req.Method + " " + req.Path, Err: err}
		log.WithError(netErr).Warn("Catalyst request failed")
		return nil, netErr
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		netErr := &NetworkError{Op: "reading response", Err: err}
		log.WithError(netErr).Warn("Catalyst request failed")
		return nil, netErr
	}

	resp := &core.Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		apiErr := parseAPIError(httpResp.StatusCode, respBody)
		apiErr.RequestID = requestID
		log.WithFields(logrus.Fields{
			"status":     apiErr.StatusCode,
			"error_code": apiErr.Code,
		}).Warn("Catalyst request returned an error")
		return resp, apiErr
	}

	log.WithField("status", httpResp.StatusCode).Debug("Catalyst request completed")
	return resp, nil
}

// Close releases idle connections.
func (t *HTTP) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// encodeBody serializes req.Body according to req.Encoding and returns the
// matching Content-Type.
func encodeBody(req *core.Request) (io.Reader, string, error) {
	if req.Body == nil {
		return nil, "", nil
	}

	switch req.Encoding {
	case core.EncodingMultipart:
		form, ok := req.Body.(*core.Multipart)
		if !ok {
			return nil, "", fmt.Errorf("multipart request body must be *core.Multipart, got %T", req.Body)
		}
		return encodeMultipart(form)
	default:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func encodeMultipart(form *core.Multipart) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range form.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", f.Name, err)
		}
	}

	for _, f := range form.Files {
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.FileName))
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file %s: %w", f.FileName, err)
		}
		if f.Content != nil {
			if _, err := io.Copy(part, f.Content); err != nil {
				return nil, "", fmt.Errorf("failed to write form file %s: %w", f.FileName, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
