package testutil

import (
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
)

// ReceivedRequest is what the stub backend saw on the wire.
type ReceivedRequest struct {
	Method string
	Path   string
	Header http.Header
	Query  url.Values
	Body   []byte
	Form   map[string][]string
	Files  map[string][]ReceivedFile
}

// ReceivedFile is one uploaded multipart file.
type ReceivedFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

type cannedReply struct {
	status int
	body   any
}

// Backend is a fiber server standing in for the Catalyst API. It records
// every request and answers from canned replies keyed by "METHOD /path".
type Backend struct {
	URL string

	app      *fiber.App
	mu       sync.Mutex
	replies  map[string]cannedReply
	received []ReceivedRequest
}

// NewBackend starts a backend on a random local port and stops it when
// the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{replies: make(map[string]cannedReply)}
	b.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	b.app.Use(b.handle)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	b.URL = "http://" + ln.Addr().String()

	go func() {
		_ = b.app.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = b.app.Shutdown()
	})
	return b
}

// Reply answers "METHOD path" with status and a JSON body. body may be a
// string, sent verbatim.
func (b *Backend) Reply(method, path string, status int, body any) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[method+" "+path] = cannedReply{status: status, body: body}
	return b
}

// Success answers "METHOD path" with a 200 success envelope around payload.
func (b *Backend) Success(method, path string, payload any) *Backend {
	return b.Reply(method, path, http.StatusOK, fiber.Map{
		"status": "success",
		"data":   payload,
	})
}

// Received returns a copy of every recorded request.
func (b *Backend) Received() []ReceivedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]ReceivedRequest, len(b.received))
	copy(out, b.received)
	return out
}

// Last returns the most recent request, or nil.
func (b *Backend) Last() *ReceivedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.received) == 0 {
		return nil
	}
	r := b.received[len(b.received)-1]
	return &r
}

func (b *Backend) handle(c *fiber.Ctx) error {
	rec := ReceivedRequest{
		Method: c.Method(),
		Path:   c.Path(),
		Header: make(http.Header),
		Body:   append([]byte(nil), c.Body()...),
	}
	for k, values := range c.GetReqHeaders() {
		for _, v := range values {
			rec.Header.Add(k, v)
		}
	}
	rec.Query, _ = url.ParseQuery(string(c.Request().URI().QueryString()))

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status": "failure",
				"data":   fiber.Map{"message": err.Error(), "error_code": "INVALID_INPUT"},
			})
		}
		rec.Form = form.Value
		rec.Files = make(map[string][]ReceivedFile)
		for field, headers := range form.File {
			for _, fh := range headers {
				f, err := fh.Open()
				if err != nil {
					return err
				}
				content, err := io.ReadAll(f)
				f.Close()
				if err != nil {
					return err
				}
				rec.Files[field] = append(rec.Files[field], ReceivedFile{
					FileName:    fh.Filename,
					ContentType: fh.Header.Get("Content-Type"),
					Content:     content,
				})
			}
		}
	}

	b.mu.Lock()
	b.received = append(b.received, rec)
	reply, ok := b.replies[rec.Method+" "+rec.Path]
	b.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status": "failure",
			"data":   fiber.Map{"message": "No such route " + rec.Path, "error_code": "NOT_FOUND"},
		})
	}
	if s, isString := reply.body.(string); isString {
		return c.Status(reply.status).SendString(s)
	}
	return c.Status(reply.status).JSON(reply.body)
}
