// Package telegram implements the upload transport against the Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultBaseURL is the Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// DefaultTimeout is generous: audiobook documents are routinely multi-gigabyte.
const DefaultTimeout = 30 * time.Minute

// DefaultMaxFileSize is the Bot API document cap for premium accounts (4GB).
const DefaultMaxFileSize int64 = 4 << 30

// Error describes a failed Bot API call.
type Error struct {
	StatusCode int
	Reason     string
	RetryAfter time.Duration
	Err        error
	retryable  bool
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("telegram: ")
	sb.WriteString(e.Reason)
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Transient reports whether the failure is safe to retry: network errors,
// server-side errors and rate limiting. Client-side rejections are not.
func (e *Error) Transient() bool { return e.retryable }

// RetryAfterHint returns the backoff floor suggested by the API for rate
// limited requests, or zero.
func (e *Error) RetryAfterHint() time.Duration { return e.RetryAfter }

// ProgressEvent is a snapshot of an in-flight upload, emitted for
// observability only.
type ProgressEvent struct {
	Path    string
	Sent    int64
	Total   int64
	Elapsed time.Duration
}

// Client sends documents and messages to a single chat through a bot.
type Client struct {
	token       string
	chatID      string
	baseURL     string
	httpClient  *http.Client
	maxFileSize int64
	onProgress  func(ProgressEvent)
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the Bot API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithMaxFileSize sets the local pre-check cap on document size.
func WithMaxFileSize(n int64) Option {
	return func(c *Client) {
		c.maxFileSize = n
	}
}

// WithProgress registers a callback for upload progress events.
func WithProgress(fn func(ProgressEvent)) Option {
	return func(c *Client) {
		c.onProgress = fn
	}
}

// NewClient creates a client for the given bot token and destination chat.
func NewClient(token, chatID string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		chatID:  chatID,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		maxFileSize: DefaultMaxFileSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Upload sends the file at path as a document with the caption attached.
// Files above the configured size cap are rejected locally with a permanent
// error; the destination would refuse them anyway.
func (c *Client) Upload(ctx context.Context, path, caption string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &Error{Reason: "stat document", Err: err}
	}
	if info.Size() > c.maxFileSize {
		return &Error{Reason: fmt.Sprintf("document size %d exceeds limit %d", info.Size(), c.maxFileSize)}
	}

	file, err := os.Open(path)
	if err != nil {
		return &Error{Reason: "open document", Err: err}
	}
	defer file.Close()

	var body io.Reader = file
	if c.onProgress != nil {
		body = &progressReader{
			r:     file,
			path:  path,
			total: info.Size(),
			start: time.Now(),
			emit:  c.onProgress,
		}
	}

	// Stream the multipart body through a pipe so large documents never
	// need to fit in memory.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(c.writeDocumentForm(mw, body, filepath.Base(path), caption))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("sendDocument"), pr)
	if err != nil {
		return &Error{Reason: "create request", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

// SendMessage sends a plain text message to the configured chat.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	form := url.Values{
		"chat_id": {c.chatID},
		"text":    {text},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("sendMessage"), strings.NewReader(form.Encode()))
	if err != nil {
		return &Error{Reason: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

func (c *Client) writeDocumentForm(mw *multipart.Writer, r io.Reader, filename, caption string) error {
	if err := mw.WriteField("chat_id", c.chatID); err != nil {
		return err
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return err
		}
	}

	part, err := mw.CreateFormFile("document", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}

	return mw.Close()
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// transportError classifies request-level failures. Cancellation is never
// retried; anything else at this layer is a network-class error.
func transportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Reason: "request cancelled", Err: err}
	}
	return &Error{Reason: "send request", Err: err, retryable: true}
}

// apiResponse is the Bot API response envelope.
type apiResponse struct {
	OK          bool                `json:"ok"`
	ErrorCode   int                 `json:"error_code"`
	Description string              `json:"description"`
	Parameters  *responseParameters `json:"parameters"`
}

type responseParameters struct {
	RetryAfter int `json:"retry_after"`
}

func decodeResponse(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{StatusCode: resp.StatusCode, Reason: "read response", Err: err, retryable: true}
	}

	var api apiResponse
	if err := json.Unmarshal(body, &api); err != nil {
		if resp.StatusCode == http.StatusOK {
			return &Error{StatusCode: resp.StatusCode, Reason: "malformed response", Err: err}
		}
		// Non-JSON error bodies come from proxies and load balancers;
		// fall through to status-based classification.
	}

	if resp.StatusCode == http.StatusOK && api.OK {
		return nil
	}

	e := &Error{
		StatusCode: resp.StatusCode,
		Reason:     api.Description,
	}
	if e.Reason == "" {
		e.Reason = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		e.retryable = true
		if api.Parameters != nil && api.Parameters.RetryAfter > 0 {
			e.RetryAfter = time.Duration(api.Parameters.RetryAfter) * time.Second
		}
	case resp.StatusCode >= 500:
		e.retryable = true
	}

	return e
}

// progressReader wraps the document body and emits throttled progress events.
type progressReader struct {
	r     io.Reader
	path  string
	total int64
	sent  int64
	start time.Time
	last  time.Time
	emit  func(ProgressEvent)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.sent += int64(n)

	now := time.Now()
	// Roughly one event per second, plus a final one at EOF.
	if now.Sub(p.last) >= time.Second || errors.Is(err, io.EOF) {
		p.last = now
		p.emit(ProgressEvent{
			Path:    p.path,
			Sent:    p.sent,
			Total:   p.total,
			Elapsed: now.Sub(p.start),
		})
	}

	return n, err
}
