package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultUserAgent   = "cinema-ticket-cli"
	defaultMaxAttempts = 1
	defaultRetryBase   = 200 * time.Millisecond
	defaultRetryCap    = 1200 * time.Millisecond
	maxResponseBytes   = 8 << 20
)

// Session is the credential slot the client reads the bearer token from and
// empties on a 401.
type Session interface {
	Token() string
	Clear() error
}

// Client wraps HTTP access to the cinema REST API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
	session     Session
	log         logrus.FieldLogger
}

// NewClient creates a new API client rooted at baseURL (including the /api
// prefix). If httpClient is nil, a default client is used.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   defaultUserAgent,
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
		retryCap:    defaultRetryCap,
		log:         log,
	}
}

func (c *Client) SetSession(session Session) {
	c.session = session
}

func (c *Client) SetLogger(log logrus.FieldLogger) {
	if log != nil {
		c.log = log
	}
}

// SetMaxAttempts bounds how often an idempotent GET is tried. Writes are
// always sent once.
func (c *Client) SetMaxAttempts(attempts int) {
	c.maxAttempts = attempts
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in any, out any) error {
	req := request{method: method, path: path}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "encode %s %s", method, path)
		}
		req.body = payload
		req.contentType = "application/json"
	}
	return c.do(ctx, req, out)
}

// formFile is one file part of a multipart request.
type formFile struct {
	field    string
	name     string
	contents io.Reader
}

func (c *Client) sendMultipart(ctx context.Context, method, path string, fields url.Values, file *formFile, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				return errors.Wrapf(err, "encode field %s", key)
			}
		}
	}
	if file != nil {
		part, err := writer.CreateFormFile(file.field, file.name)
		if err != nil {
			return errors.Wrapf(err, "encode file %s", file.name)
		}
		if _, err := io.Copy(part, file.contents); err != nil {
			return errors.Wrapf(err, "read file %s", file.name)
		}
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "close multipart body")
	}
	return c.do(ctx, request{
		method:      method,
		path:        path,
		body:        buf.Bytes(),
		contentType: writer.FormDataContentType(),
	}, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	maxAttempts := c.maxAttempts
	if maxAttempts < 1 || r.method != http.MethodGet {
		maxAttempts = 1
	}
	// One id for every attempt of the same call, so server logs line up
	// with ours.
	requestID := uuid.NewString()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var body io.Reader
		if r.body != nil {
			body = bytes.NewReader(r.body)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
		if err != nil {
			return errors.Wrapf(err, "create request %s %s", r.method, r.path)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if r.contentType != "" {
			req.Header.Set("Content-Type", r.contentType)
		}
		if c.session != nil {
			if token := c.session.Token(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		started := time.Now()
		res, err := c.httpClient.Do(req)
		if err != nil {
			if c.shouldRetryNetworkError(err) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			c.log.WithError(err).WithField("endpoint", r.path).WithField("request_id", requestID).Debug("request failed")
			return errors.Mark(errors.Wrapf(err, "%s %s", r.method, r.path), ErrTransport)
		}

		payload, readErr := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
		_ = res.Body.Close()
		c.log.WithFields(logrus.Fields{
			"method":     r.method,
			"endpoint":   r.path,
			"status":     res.StatusCode,
			"attempt":    attempt,
			"elapsed":    time.Since(started).String(),
			"request_id": requestID,
		}).Debug("api request")
		if readErr != nil {
			return errors.Mark(errors.Wrapf(readErr, "read response from %s", r.path), ErrTransport)
		}

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			apiErr := &APIError{
				StatusCode: res.StatusCode,
				Status:     res.Status,
				Method:     r.method,
				Endpoint:   r.path,
				Message:    serverMessage(payload),
				Body:       strings.TrimSpace(string(truncate(payload, 8<<10))),
				RequestID:  requestID,
			}
			if res.StatusCode == http.StatusUnauthorized {
				c.dropSession()
				return errors.Mark(apiErr, ErrUnauthorized)
			}
			if c.shouldRetryStatus(res.StatusCode) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return apiErr
		}

		return decodeEnvelope(payload, out, r.path)
	}

	return errors.New("request failed after retries")
}

func (c *Client) dropSession() {
	if c.session == nil {
		return
	}
	if err := c.session.Clear(); err != nil {
		c.log.WithError(err).Warn("clear session after 401")
		return
	}
	c.log.Warn("session cleared after 401")
}

// decodeEnvelope unwraps {status_code, message, data} into out. A body that
// is not an envelope is decoded as-is.
func decodeEnvelope(payload []byte, out any, path string) error {
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	data := payload
	var env envelope
	if err := json.Unmarshal(payload, &env); err == nil && env.Data != nil {
		data = env.Data
	}
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decode response from %s", path)
	}
	return nil
}

func serverMessage(payload []byte) string {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return ""
	}
	if env.Message != "" {
		return strings.TrimSpace(env.Message)
	}
	return strings.TrimSpace(env.Error)
}

func truncate(payload []byte, limit int) []byte {
	if len(payload) > limit {
		return payload[:limit]
	}
	return payload
}

func (c *Client) shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	delay := c.retryDelay(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := c.retryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	ceiling := c.retryCap
	if ceiling <= 0 {
		ceiling = defaultRetryCap
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= ceiling/2 {
			return ceiling
		}
		delay *= 2
	}
	if delay > ceiling {
		return ceiling
	}
	return delay
}
