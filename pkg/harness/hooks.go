/*
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

//go:generate mockgen -destination=mock/round_tripper.go -package=mock net/http RoundTripper

package harness

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// Hooks observe every exchange made by a client and write it to a log sink.
// They never alter the outcome of an exchange: status, headers and body
// content reach the caller exactly as received, and a failure inside a hook
// (including a panicking sink) is swallowed.
type Hooks struct {
	log logr.Logger
}

// NewHooks returns hooks writing to the given sink.
func NewHooks(log logr.Logger) *Hooks {
	return &Hooks{
		log: log,
	}
}

// ObserveRequest logs an outbound request before it is sent. The body is
// obtained through GetBody so the request itself is left untouched; requests
// without GetBody are logged without their body.
//
// JSON bodies are logged decoded, as a nested value, so the sink renders
// them as structure rather than as a quoted string with escaped newlines.
func (h *Hooks) ObserveRequest(req *http.Request) {
	defer swallow()

	h.log.Info(">>> request", "method", req.Method, "url", req.URL.String(), "traceparent", req.Header.Get(traceParentHeader))

	if body, ok := requestBody(req); ok {
		if value, ok := decodeJSON(body); ok {
			h.log.Info(">>> body", "body", value)
		}
	}
}

// ObserveResponse logs the status of an inbound response once headers have
// arrived, then materializes the body so it can be logged. The body is
// replaced with a reader yielding the same bytes, and the same read error if
// materialization failed part way.
func (h *Hooks) ObserveResponse(resp *http.Response, duration time.Duration) {
	defer swallow()

	h.log.Info("<<< response", "status", resp.StatusCode, "reason", reasonPhrase(resp), "duration", duration.String())

	if body, ok := materialize(resp); ok {
		if value, ok := decodeJSON(body); ok {
			h.log.Info("<<< body", "body", value)
		}
	}
}

// ObserveFailure logs an exchange that produced no response at all.
func (h *Hooks) ObserveFailure(req *http.Request, duration time.Duration, err error) {
	defer swallow()

	h.log.Info("!!! exchange failed", "method", req.Method, "url", req.URL.String(), "duration", duration.String(), "error", err.Error())
}

// Middleware observes an exchange issued through a client that manages its
// own transport. It is assignable to the generated client's middleware type.
func (h *Hooks) Middleware(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	return h.exchange(req, next)
}

// RoundTripper wraps next so every exchange through it is observed.
func (h *Hooks) RoundTripper(next http.RoundTripper) http.RoundTripper {
	return &observingTransport{
		hooks: h,
		next:  next,
	}
}

func (h *Hooks) exchange(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	h.ObserveRequest(req)

	start := time.Now()

	resp, err := next(req)
	if err != nil {
		h.ObserveFailure(req, time.Since(start), err)
		return resp, err
	}

	h.ObserveResponse(resp, time.Since(start))

	return resp, nil
}

type observingTransport struct {
	hooks *Hooks
	next  http.RoundTripper
}

func (t *observingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.hooks.exchange(req, t.next.RoundTrip)
}

// CloseIdleConnections lets http.Client release the wrapped pool.
func (t *observingTransport) CloseIdleConnections() {
	type closeIdler interface {
		CloseIdleConnections()
	}

	if c, ok := t.next.(closeIdler); ok {
		c.CloseIdleConnections()
	}
}

func swallow() {
	_ = recover()
}

func requestBody(req *http.Request) ([]byte, bool) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody == nil {
		return nil, false
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}

	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return nil, false
	}

	return data, true
}

// materialize reads the whole response body and puts an equivalent reader
// back in its place.
func materialize(resp *http.Response) ([]byte, bool) {
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, false
	}

	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if err != nil {
		resp.Body = &replayBody{
			Reader: io.MultiReader(bytes.NewReader(data), &errorReader{err: err}),
		}

		return nil, false
	}

	resp.Body = &replayBody{
		Reader: bytes.NewReader(data),
	}

	return data, len(data) > 0
}

type replayBody struct {
	io.Reader
}

func (*replayBody) Close() error {
	return nil
}

type errorReader struct {
	err error
}

func (r *errorReader) Read([]byte) (int, error) {
	return 0, r.err
}

func decodeJSON(data []byte) (any, bool) {
	var value any

	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}

	return value, true
}

func reasonPhrase(resp *http.Response) string {
	if reason := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); reason != "" && reason != resp.Status {
		return reason
	}

	return http.StatusText(resp.StatusCode)
}
