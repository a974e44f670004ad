// Package backend is the HTTP client for the flood simulation service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"Floodsim_discord_bot/internal/geometry"
	"Floodsim_discord_bot/internal/metrics"
	"Floodsim_discord_bot/internal/utils"
)

// Endpoint names, also used as metric labels.
const (
	EndpointFetchBefore = "fetch_before"
	EndpointSimulate    = "simulate"
	EndpointCompare     = "compare"
)

const (
	DefaultFetchTimeout    = 60 * time.Second
	DefaultSimulateTimeout = 240 * time.Second
	DefaultCompareTimeout  = 240 * time.Second
	DefaultUserAgent       = "floodsim-bot/1.0"

	maxBodyBytes      = 64 << 20
	maxErrorBodyBytes = 4 << 10
)

var debugLogging = os.Getenv("FLOODSIM_DEBUG") == "1"

func debugf(format string, args ...interface{}) {
	if !debugLogging {
		return
	}
	log.Printf(format, args...)
}

func newHTTPClient() *http.Client {
	// per-call timeouts come from the context
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          32,
			MaxIdleConnsPerHost:   8,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Client talks to one backend base URL.
type Client struct {
	baseURL         *url.URL
	httpClient      *http.Client
	limiter         *utils.RateLimiter
	userAgent       string
	fetchTimeout    time.Duration
	simulateTimeout time.Duration
	compareTimeout  time.Duration
	cache           *beforeCache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimiter spaces out calls to the backend host.
func WithRateLimiter(rl *utils.RateLimiter) Option {
	return func(c *Client) { c.limiter = rl }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeouts overrides the per-endpoint timeouts. Zero keeps the default.
func WithTimeouts(fetch, simulate, compare time.Duration) Option {
	return func(c *Client) {
		if fetch > 0 {
			c.fetchTimeout = fetch
		}
		if simulate > 0 {
			c.simulateTimeout = simulate
		}
		if compare > 0 {
			c.compareTimeout = compare
		}
	}
}

// WithBeforeCache keeps fetched baseline images for ttl. Zero disables it.
func WithBeforeCache(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.cache = newBeforeCache(ttl)
		} else {
			c.cache = nil
		}
	}
}

// New creates a client for baseURL (absolute http or https).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend: parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("backend: base url %q must be absolute http(s)", baseURL)
	}

	c := &Client{
		baseURL:         u,
		httpClient:      newHTTPClient(),
		userAgent:       DefaultUserAgent,
		fetchTimeout:    DefaultFetchTimeout,
		simulateTimeout: DefaultSimulateTimeout,
		compareTimeout:  DefaultCompareTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SimulateRequest is one call to /simulate. Image wins over Point.
type SimulateRequest struct {
	Image  []byte
	Point  *geometry.GeoPoint
	Prompt string
}

// SimulateResponse holds the raw generated image and the side-channel headers.
type SimulateResponse struct {
	Image     []byte
	Metrics   string
	Hotspots  string
	RequestID string
}

// FetchBefore downloads the baseline image for a point.
func (c *Client) FetchBefore(ctx context.Context, p geometry.GeoPoint) ([]byte, error) {
	key := p.String()
	if data, ok := c.cache.get(key); ok {
		debugf("backend: fetch_before cache hit %s", key)
		return data, nil
	}

	q := url.Values{}
	q.Set("lat", formatCoord(p.Lat))
	q.Set("lon", formatCoord(p.Lon))

	body, _, err := c.do(ctx, EndpointFetchBefore, c.fetchTimeout, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(EndpointFetchBefore)+"?"+q.Encode(), nil)
	})
	if err != nil {
		return nil, err
	}
	if len(body) > 0 {
		c.cache.put(key, body)
	}
	return body, nil
}

// Simulate asks the backend for a generated post-flood image.
func (c *Client) Simulate(ctx context.Context, req SimulateRequest) (*SimulateResponse, error) {
	if len(req.Image) == 0 && req.Point == nil {
		return nil, errors.New("backend simulate: neither image nor point given")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if len(req.Image) > 0 {
		if err := writeFilePart(mw, "file", "input.png", req.Image); err != nil {
			return nil, err
		}
	} else {
		if err := mw.WriteField("lat", formatCoord(req.Point.Lat)); err != nil {
			return nil, err
		}
		if err := mw.WriteField("lon", formatCoord(req.Point.Lon)); err != nil {
			return nil, err
		}
	}
	if req.Prompt != "" {
		if err := mw.WriteField("prompt", req.Prompt); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	body, header, err := c.do(ctx, EndpointSimulate, c.simulateTimeout, func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(EndpointSimulate), bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", mw.FormDataContentType())
		r.Header.Set("X-Request-ID", requestID)
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	return &SimulateResponse{
		Image:     body,
		Metrics:   header.Get("X-Metrics"),
		Hotspots:  header.Get("X-Hotspots"),
		RequestID: requestID,
	}, nil
}

// Compare sends the generated and real images and returns the decoded JSON object.
func (c *Client) Compare(ctx context.Context, generated, real []byte) (map[string]any, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := writeFilePart(mw, "generated", "generated.png", generated); err != nil {
		return nil, err
	}
	if err := writeFilePart(mw, "real", "real.png", real); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	body, _, err := c.do(ctx, EndpointCompare, c.compareTimeout, func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(EndpointCompare), bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", mw.FormDataContentType())
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("backend compare: decode response: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func (c *Client) endpoint(name string) string {
	return c.baseURL.String() + "/" + name
}

// do runs one request under its own timeout and returns the 2xx body.
func (c *Client) do(
	ctx context.Context,
	endpoint string,
	timeout time.Duration,
	build func(context.Context) (*http.Request, error),
) ([]byte, http.Header, error) {
	start := time.Now()
	outcome := metrics.OutcomeError
	defer func() {
		metrics.RecordBackendRequest(endpoint, outcome, time.Since(start))
	}()

	// 順番待ちの時間はエンドポイントのタイムアウトに含めない
	if err := c.limiter.Wait(ctx, c.baseURL.Host); err != nil {
		return nil, nil, fmt.Errorf("backend %s: waiting for rate limiter: %w", endpoint, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := build(callCtx)
	if err != nil {
		return nil, nil, fmt.Errorf("backend %s: build request: %w", endpoint, err)
	}
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}
	req.Header.Set("User-Agent", c.userAgent)
	debugf("backend: %s %s id=%s", req.Method, req.URL.Path, req.Header.Get("X-Request-ID"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, c.classify(ctx, callCtx, endpoint, timeout, err, &outcome)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		outcome = metrics.OutcomeStatus
		log.Printf("backend: %s returned %s", endpoint, resp.Status)
		return nil, nil, &StatusError{
			Endpoint: endpoint,
			Code:     resp.StatusCode,
			Status:   resp.Status,
			Body:     strings.TrimSpace(string(text)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, nil, c.classify(ctx, callCtx, endpoint, timeout, err, &outcome)
	}
	if len(body) > maxBodyBytes {
		return nil, nil, fmt.Errorf("backend %s: response larger than %d bytes", endpoint, maxBodyBytes)
	}

	outcome = metrics.OutcomeOK
	debugf("backend: %s ok (%d bytes, %v)", endpoint, len(body), time.Since(start))
	return body, resp.Header, nil
}

// classify turns a transport error into a TimeoutError when our own deadline fired.
func (c *Client) classify(parent, callCtx context.Context, endpoint string, timeout time.Duration, err error, outcome *string) error {
	if parent.Err() == nil && (errors.Is(callCtx.Err(), context.DeadlineExceeded) || isNetTimeout(err)) {
		*outcome = metrics.OutcomeTimeout
		log.Printf("backend: %s timed out after %s", endpoint, timeout)
		return &TimeoutError{Endpoint: endpoint, After: timeout, Err: err}
	}
	return fmt.Errorf("backend %s: %w", endpoint, err)
}

func isNetTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func writeFilePart(mw *multipart.Writer, field, filename string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, filename))
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
