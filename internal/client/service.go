package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jarvis-platform/orchestrator/pkg/requestid"
)

const defaultTimeout = 30 * time.Second

var ErrNoResponse = errors.New("no response")

// Response is the outcome of a call through ServiceClient.Get or Post:
// either a JSON payload or NoResponse. Every failure mode of the downstream
// call (transport error, timeout, non-2xx status, malformed body) collapses
// into NoResponse.
type Response struct {
	payload json.RawMessage
}

var NoResponse = Response{}

func (r Response) Ok() bool {
	return r.payload != nil
}

// Decode unmarshals the payload into v. It returns ErrNoResponse when there
// is no payload.
func (r Response) Decode(v any) error {
	if !r.Ok() {
		return ErrNoResponse
	}
	return json.Unmarshal(r.payload, v)
}

// ServiceClient is an HTTP client for one downstream service
type ServiceClient struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

func NewServiceClient(name, baseURL string, timeout time.Duration) *ServiceClient {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &ServiceClient{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *ServiceClient) Name() string {
	return c.name
}

func (c *ServiceClient) Get(ctx context.Context, path string, query url.Values) Response {
	return c.soft(c.Do(ctx, http.MethodGet, path, query, nil))
}

func (c *ServiceClient) Post(ctx context.Context, path string, body any) Response {
	return c.soft(c.Do(ctx, http.MethodPost, path, nil, body))
}

func (c *ServiceClient) soft(payload json.RawMessage, err error) Response {
	if err != nil {
		zap.S().Named("service_client").Errorw("downstream call failed", "service", c.name, "error", err)
		return NoResponse
	}
	return Response{payload: payload}
}

// Do performs the call and reports failures as errors. A nil body sends no
// request body.
func (c *ServiceClient) Do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u = u + "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	requestid.Propagate(ctx, httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s service: %w", c.name, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s service returned status %d on %s %s: %s", c.name, resp.StatusCode, method, path, string(bodyBytes))
	}

	if !json.Valid(bodyBytes) {
		return nil, fmt.Errorf("%s service returned a malformed body on %s %s", c.name, method, path)
	}

	return json.RawMessage(bodyBytes), nil
}

func (c *ServiceClient) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", c.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to call %s service: %w", c.name, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Drain body to enable connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s service health check returned status %d", c.name, resp.StatusCode)
	}

	return nil
}

// CheckHealth probes every client concurrently and returns the failures
// keyed by service name. Healthy services are absent from the map.
func CheckHealth(ctx context.Context, clients ...*ServiceClient) map[string]error {
	var (
		mu       sync.Mutex
		failures = map[string]error{}
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range clients {
		c := c // per-iteration copy; module targets go 1.21 (pre-1.22 loop semantics)
		g.Go(func() error {
			if err := c.HealthCheck(gctx); err != nil {
				mu.Lock()
				failures[c.Name()] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return failures
}
