// Package transfer is the HTTP client for the remote marker service: form
// posts for log sync, multipart posts with byte progress for photo sync, and
// the gzip bulk-status stream.
package transfer

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")

	// ErrMalformedReply marks a 2xx response whose body failed to parse.
	ErrMalformedReply = errors.New("malformed server reply")
)

// defaultTimeout bounds every request. The original behavior on timeout was
// undefined; here a timeout surfaces as a transport error, never a hang.
const defaultTimeout = 60 * time.Second

// Client is an HTTP client for the marker service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a new transfer client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}
}

// Reply is the JSON body the service returns for both sync endpoints.
// Status 0 means the item was accepted; any other value carries Msg.
type Reply struct {
	Status  int    `json:"status"`
	Msg     string `json:"msg"`
	LogID   int64  `json:"log_id,omitempty"`
	PhotoID int64  `json:"photo_id,omitempty"`
}

// PostForm issues a form-encoded POST and parses the JSON reply.
func (c *Client) PostForm(ctx context.Context, path string, fields url.Values) (*Reply, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path,
		strings.NewReader(fields.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.doReply(req)
}

// PostMultipart issues a multipart POST carrying fields plus one file part.
// onProgress, if non-nil, receives the cumulative count of file bytes sent
// so far; field bytes are not counted, matching the aggregate progress math
// which pre-scans file sizes only.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, fileField, filePath string, onProgress func(sent int64)) (*Reply, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(mw, fields, fileField, filePath, &countingReader{r: f, report: onProgress})
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, pr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.doReply(req)
}

func writeMultipart(mw *multipart.Writer, fields map[string]string, fileField, filePath string, body io.Reader) error {
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("write field %s: %w", name, err)
		}
	}
	part, err := mw.CreateFormFile(fileField, baseName(filePath))
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return fmt.Errorf("copy file body: %w", err)
	}
	return nil
}

func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// GetCompressedStream issues a GET and returns the decompressed body stream.
// The bulk-status feed is always gzip on the wire; transparent decompression
// is bypassed so the stream is decoded exactly once.
func (c *Client) GetCompressedStream(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: not gzip: %v", ErrMalformedReply, err)
	}
	return &streamCloser{Reader: gz, gz: gz, body: resp.Body}, nil
}

// streamCloser closes both the gzip layer and the underlying response body.
type streamCloser struct {
	io.Reader
	gz   *gzip.Reader
	body io.ReadCloser
}

func (s *streamCloser) Close() error {
	gzErr := s.gz.Close()
	bodyErr := s.body.Close()
	if gzErr != nil {
		return gzErr
	}
	return bodyErr
}

func (c *Client) doReply(req *http.Request) (*Reply, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	var reply Reply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return &reply, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 400:
		return fmt.Errorf("HTTP %d", code)
	}
	return nil
}
