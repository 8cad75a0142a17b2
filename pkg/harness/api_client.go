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
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/pagination"
)

// Result is the detailed outcome of a typed operation. Vendor declared
// errors (4xx/5xx) are results, not Go errors: StatusCode is set, Parsed is
// nil, APIError carries the decoded error envelope and Body the raw bytes the
// server sent, so callers can check what a rejection actually contained.
type Result[T any] struct {
	StatusCode   int
	Parsed       *T
	APIError     *openai.Error
	Body         []byte
	HTTPResponse *http.Response
}

// APIClient is the typed client, generated request and response schemas
// over a private connection pool. It is bound to the context it was created
// with and released when that context ends; it must be created per test, a
// handle must never be carried into another test's scope.
type APIClient struct {
	ctx        context.Context
	client     openai.Client
	httpClient *http.Client
	released   atomic.Bool
	stop       func() bool
}

// NewAPIClient returns a typed client configured like the raw client: same
// base URL, credential, timeout and hooks. It never retries.
func NewAPIClient(ctx context.Context, config *TestConfig, hooks *Hooks) *APIClient {
	httpClient := newHTTPClient(config, nil)

	options := []option.RequestOption{
		option.WithBaseURL(NewEndpoints().APIBase(config.BaseURL)),
		option.WithAPIKey(config.APIKey),
		option.WithHeader("Content-Type", "application/json"),
		option.WithHTTPClient(httpClient),
		option.WithRequestTimeout(config.RequestTimeout),
		option.WithMaxRetries(0),
		option.WithMiddleware(traceMiddleware),
	}

	if hooks != nil {
		options = append(options, option.WithMiddleware(hooks.Middleware))
	}

	c := &APIClient{
		ctx:        ctx,
		client:     openai.NewClient(options...),
		httpClient: httpClient,
	}

	c.stop = context.AfterFunc(ctx, c.release)

	return c
}

func (c *APIClient) release() {
	if c.released.CompareAndSwap(false, true) {
		c.httpClient.CloseIdleConnections()
	}
}

// Close releases the handle ahead of its context ending. It is safe to call
// more than once.
func (c *APIClient) Close() {
	c.stop()
	c.release()
}

// Released reports whether the handle may no longer be used.
func (c *APIClient) Released() bool {
	return c.released.Load() || c.ctx.Err() != nil
}

// bind scopes a call to both the caller's context and the handle's lifetime.
func (c *APIClient) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(ctx)

	stop := context.AfterFunc(c.ctx, func() {
		cancel(ErrHandleReleased)
	})

	return ctx, func() {
		stop()
		cancel(nil)
	}
}

func do[T any](ctx context.Context, c *APIClient, operation string, fn func(context.Context, ...option.RequestOption) (*T, error)) (*Result[T], error) {
	if c.Released() {
		return nil, ErrHandleReleased
	}

	ctx, cancel := c.bind(ctx)
	defer cancel()

	var raw *http.Response

	parsed, err := fn(ctx, option.WithResponseInto(&raw))

	result := &Result[T]{
		HTTPResponse: raw,
	}

	if raw != nil {
		result.StatusCode = raw.StatusCode
	}

	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			result.StatusCode = apiErr.StatusCode
			result.APIError = apiErr
			result.Body = errorBody(apiErr)

			return result, nil
		}

		if c.Released() {
			return nil, fmt.Errorf("%s: %w", operation, ErrHandleReleased)
		}

		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	result.Parsed = parsed

	return result, nil
}

// errorBody returns the body of a rejected exchange, leaving a readable copy
// in place.
func errorBody(apiErr *openai.Error) []byte {
	if apiErr.Response == nil || apiErr.Response.Body == nil {
		return nil
	}

	data, err := io.ReadAll(apiErr.Response.Body)
	_ = apiErr.Response.Body.Close()

	apiErr.Response.Body = io.NopCloser(bytes.NewReader(data))

	if err != nil {
		return nil
	}

	return data
}

// ChatCompletion creates a chat completion.
func (c *APIClient) ChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*Result[openai.ChatCompletion], error) {
	return do(ctx, c, "creating chat completion", func(ctx context.Context, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
		return c.client.Chat.Completions.New(ctx, params, opts...)
	})
}

// Embeddings creates one embedding vector per input.
func (c *APIClient) Embeddings(ctx context.Context, params openai.EmbeddingNewParams) (*Result[openai.CreateEmbeddingResponse], error) {
	return do(ctx, c, "creating embeddings", func(ctx context.Context, opts ...option.RequestOption) (*openai.CreateEmbeddingResponse, error) {
		return c.client.Embeddings.New(ctx, params, opts...)
	})
}

// ListModels lists the model registry.
func (c *APIClient) ListModels(ctx context.Context) (*Result[pagination.Page[openai.Model]], error) {
	return do(ctx, c, "listing models", func(ctx context.Context, opts ...option.RequestOption) (*pagination.Page[openai.Model], error) {
		return c.client.Models.List(ctx, opts...)
	})
}

// RetrieveModel retrieves a single model card.
func (c *APIClient) RetrieveModel(ctx context.Context, modelID string) (*Result[openai.Model], error) {
	return do(ctx, c, "retrieving model", func(ctx context.Context, opts ...option.RequestOption) (*openai.Model, error) {
		return c.client.Models.Get(ctx, modelID, opts...)
	})
}

// DeleteModel asks for a model to be deleted.
func (c *APIClient) DeleteModel(ctx context.Context, modelID string) (*Result[openai.ModelDeleted], error) {
	return do(ctx, c, "deleting model", func(ctx context.Context, opts ...option.RequestOption) (*openai.ModelDeleted, error) {
		return c.client.Models.Delete(ctx, modelID, opts...)
	})
}
