// Package editor provides an HTTP client for the editor automation
// endpoint. Every invocation is a POST of {method, params} to <base>/rpc;
// the response envelope carries either result or error.
package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Strob0t/editorbridge/internal/domain"
	"github.com/Strob0t/editorbridge/internal/port/backend"
	"github.com/Strob0t/editorbridge/internal/resilience"
)

// RPCPath is appended to the base URL for method invocations.
const RPCPath = "/rpc"

// PingMethod is the liveness method understood by the backend.
const PingMethod = "ping"

const maxResponseBytes = 16 << 20

type envelope struct {
	Result json.RawMessage   `json:"result"`
	Error  *backend.RPCError `json:"error"`
}

// Client talks to the editor automation endpoint.
type Client struct {
	httpClient *http.Client
	breaker    *resilience.Breaker
}

var _ backend.Client = (*Client)(nil)

// NewClient creates a new editor client. Per-call deadlines come from the
// request context, so the http.Client itself has no timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// SetBreaker attaches a circuit breaker to method invocations. Only
// connection-level failures count against it.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	b.CountOnly(func(err error) bool { return errors.Is(err, domain.ErrConnection) })
	c.breaker = b
}

// BreakerState reports the circuit state, or "disabled" without a breaker.
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State()
}

// ResetBreaker closes the circuit, e.g. after the backend URL changed.
func (c *Client) ResetBreaker() {
	if c.breaker != nil {
		c.breaker.Reset()
	}
}

// Call invokes req.Method on the backend at baseURL.
func (c *Client) Call(ctx context.Context, baseURL string, req backend.Request) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", req.Method, err)
	}

	var result json.RawMessage
	call := func() error {
		var err error
		result, err = c.doRequest(ctx, baseURL, body)
		return err
	}

	if c.breaker == nil {
		err = call()
	} else {
		err = c.breaker.Execute(call)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			err = fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Method, err)
	}
	return result, nil
}

// Ping sends the liveness method. It bypasses the breaker so that a liveness check
// can observe recovery; a successful ping closes the circuit.
func (c *Client) Ping(ctx context.Context, baseURL string) error {
	body, err := json.Marshal(backend.Request{Method: PingMethod})
	if err != nil {
		return fmt.Errorf("marshal ping: %w", err)
	}
	if _, err := c.doRequest(ctx, baseURL, body); err != nil {
		var rpcErr *backend.RPCError
		if errors.As(err, &rpcErr) {
			// The backend answered; it is reachable even if it rejects ping.
			c.ResetBreaker()
		}
		return fmt.Errorf("ping: %w", err)
	}
	c.ResetBreaker()
	return nil
}

func (c *Client) doRequest(ctx context.Context, baseURL string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+RPCPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrConnection, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(data, &env)
	if decodeErr == nil && env.Error != nil {
		return nil, env.Error
	}

	switch {
	case resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: endpoint returned %d", domain.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, &backend.RPCError{Code: resp.StatusCode, Message: string(bytes.TrimSpace(data))}
	case decodeErr != nil:
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}

	if len(env.Result) == 0 {
		return json.RawMessage("null"), nil
	}
	return env.Result, nil
}
