package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// DefaultUserAgent mimics a desktop browser; some image CDNs refuse
// requests without one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// MaxBodySize caps any single response body.
const MaxBodySize = 64 << 20

// ErrBodyTooLarge is returned when a decoded body exceeds the client's limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client issues requests and returns status plus decoded body. It holds no
// state between calls besides the underlying http.Client.
type Client struct {
	Http      *http.Client
	UserAgent string
	// RetryWait is the first backoff interval used by Download.
	RetryWait time.Duration
	MaxTries  uint
	// MaxBody is the largest decoded body accepted, in bytes.
	MaxBody   int64
	log       *zap.Logger
}

func New(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		Http:      httpClient,
		UserAgent: DefaultUserAgent,
		RetryWait: time.Second,
		MaxTries:  3,
		MaxBody:   MaxBodySize,
		log:       logger.Named("fetch"),
	}
}

// Fingerprint hashes the dumped request so log lines from one call can be
// correlated. Credentials in the query string never reach the logs this way.
func Fingerprint(req *http.Request) string {
	reqBytes, err := httputil.DumpRequest(req, true)
	if err != nil {
		reqBytes = []byte(req.Method + " " + req.URL.String())
	}
	sum := md5.Sum(reqBytes)
	return hex.EncodeToString(sum[:6])
}

// Do sends req and reads the whole body, decoding br and gzip encodings.
// A non-2xx status is not an error here; callers inspect StatusCode.
func (c *Client) Do(req *http.Request) (*Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept-Encoding", "br, gzip")

	resp, err := c.Http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp, c.MaxBody)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// JSON sends req and decodes a 2xx body into v. Non-2xx statuses come back
// as *StatusError carrying a snippet of the body.
func (c *Client) JSON(req *http.Request, v any) error {
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	res, err := c.Do(req)
	if err != nil {
		return err
	}
	if !res.OK() {
		return &StatusError{StatusCode: res.StatusCode, Detail: snippet(res.Body)}
	}
	if err := json.Unmarshal(res.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Download fetches a binary payload. Retryable statuses are retried with
// exponential backoff; every other failure is returned at once.
func (c *Client) Download(ctx context.Context, rawUrl string) ([]byte, error) {
	operation := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawUrl, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "image/*,*/*;q=0.8")
		res, err := c.Do(req)
		if errors.Is(err, ErrBodyTooLarge) {
			c.log.Warn("download too large", zap.Int64("limit", c.MaxBody), zap.String("url", rawUrl))
			return nil, backoff.Permanent(err)
		}
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if IsRetryableStatus(res.StatusCode) {
			c.log.Debug("retryable status", zap.Int("status", res.StatusCode), zap.String("url", rawUrl))
			return nil, &StatusError{StatusCode: res.StatusCode}
		}
		if !res.OK() {
			return nil, backoff.Permanent(&StatusError{StatusCode: res.StatusCode})
		}
		return res.Body, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.RetryWait
	bo.MaxInterval = 10 * c.RetryWait

	return backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(c.MaxTries))
}

func readBody(resp *http.Response, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = MaxBodySize
	}
	var r io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		r = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}

func snippet(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
