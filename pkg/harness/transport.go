/*
Copyright 2024-2025 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync/atomic"
)

// ErrHandleReleased is returned when a client is used after its scope ended.
var ErrHandleReleased = errors.New("client handle has been released")

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Request    *http.Request
}

// JSON decodes the body as a JSON object. It may be called any number of times.
func (r *Response) JSON() (map[string]interface{}, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(r.Body, &data); err != nil {
		return nil, fmt.Errorf("decoding response body: %w", err)
	}

	return data, nil
}

// Client is a raw, blocking HTTP client bound to one endpoint configuration.
// It owns its connection pool, released by Close. It is not tied to any
// context so may be shared for a whole test session.
type Client struct {
	baseURL   string
	client    *http.Client
	headers   http.Header
	endpoints *Endpoints
	released  atomic.Bool
}

// NewClient returns a client with the configuration's auth headers applied to
// every request, the request timeout applied to every exchange, and every
// exchange observed by hooks.
func NewClient(config *TestConfig, hooks *Hooks) *Client {
	return &Client{
		baseURL:   config.BaseURL,
		client:    newHTTPClient(config, hooks),
		headers:   config.AuthHeaders(),
		endpoints: NewEndpoints(),
	}
}

// newHTTPClient builds a client over a private pool so closing it never
// disturbs other handles.
func newHTTPClient(config *TestConfig, hooks *Hooks) *http.Client {
	var pool http.RoundTripper = &http.Transport{}

	if transport, ok := http.DefaultTransport.(*http.Transport); ok {
		pool = transport.Clone()
	}

	if hooks != nil {
		pool = hooks.RoundTripper(pool)
	}

	return &http.Client{
		Transport: pool,
		Timeout:   config.RequestTimeout,
	}
}

func (c *Client) Endpoints() *Endpoints {
	return c.endpoints
}

// Do performs one exchange. A nil body sends no body, []byte and
// json.RawMessage are sent verbatim, and anything else is JSON encoded.
// Any HTTP status is a successful exchange, only transport failures are errors.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	if c.released.Load() {
		return nil, ErrHandleReleased
	}

	reader, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, values := range c.headers {
		req.Header[key] = slices.Clone(values)
	}

	traceParent := createTraceParent()
	req.Header.Set(traceParentHeader, traceParent)
	req.Header.Set(traceStateHeader, traceStateValue)

	//nolint:bodyclose // closed below once read
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed (trace ID: %s): %w", ExtractTraceID(traceParent), err)
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body (trace ID: %s): %w", ExtractTraceID(traceParent), err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       respBody,
		Request:    req,
	}, nil
}

func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// PostRaw sends body verbatim, typically something the typed client would
// refuse to encode.
func (c *Client) PostRaw(ctx context.Context, path string, body []byte) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Close releases the connection pool. It is safe to call more than once.
func (c *Client) Close() {
	if c.released.CompareAndSwap(false, true) {
		c.client.CloseIdleConnections()
	}
}

// Released reports whether Close has been called.
func (c *Client) Released() bool {
	return c.released.Load()
}

func encodeBody(body interface{}) (io.Reader, error) {
	switch t := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(t), nil
	case json.RawMessage:
		return bytes.NewReader(t), nil
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}

		return bytes.NewReader(data), nil
	}
}

// AsyncClient is a raw client bound to the context it was acquired in.
// Exchanges run on their own goroutines under that context, and the handle
// is released as soon as the context ends. It must not outlive the unit of
// work that acquired it.
type AsyncClient struct {
	ctx    context.Context
	client *Client
	stop   func() bool
}

// AcquireAsync returns a client whose lifetime is that of ctx.
func AcquireAsync(ctx context.Context, config *TestConfig, hooks *Hooks) *AsyncClient {
	c := &AsyncClient{
		ctx:    ctx,
		client: NewClient(config, hooks),
	}

	c.stop = context.AfterFunc(ctx, c.client.Close)

	return c
}

func (c *AsyncClient) Endpoints() *Endpoints {
	return c.client.endpoints
}

// Exchange is an in-flight request issued by an AsyncClient.
type Exchange struct {
	done     chan struct{}
	response *Response
	err      error
}

// Wait blocks until the exchange completes.
func (e *Exchange) Wait() (*Response, error) {
	<-e.done

	return e.response, e.err
}

// Go starts an exchange and returns without waiting for it.
func (c *AsyncClient) Go(method, path string, body interface{}) *Exchange {
	e := &Exchange{
		done: make(chan struct{}),
	}

	if c.Released() {
		e.err = ErrHandleReleased
		close(e.done)

		return e
	}

	go func() {
		defer close(e.done)

		e.response, e.err = c.client.Do(c.ctx, method, path, body)
	}()

	return e
}

// Do is Go followed by Wait.
func (c *AsyncClient) Do(method, path string, body interface{}) (*Response, error) {
	return c.Go(method, path, body).Wait()
}

// Close releases the handle ahead of its context ending.
func (c *AsyncClient) Close() {
	c.stop()
	c.client.Close()
}

// Released reports whether the handle may no longer be used.
func (c *AsyncClient) Released() bool {
	return c.client.Released() || c.ctx.Err() != nil
}
