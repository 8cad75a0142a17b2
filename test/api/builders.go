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

package api

import (
	"github.com/openai/openai-go"

	"github.com/unikorn-cloud/inference-e2e/pkg/harness"

	"k8s.io/utils/ptr"
)

// Message is a chat turn as sent over the wire by the raw client.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatPayload is a chat completion request for the raw client. Unlike the
// typed parameters every field may be omitted, so invalid requests can be
// expressed.
type ChatPayload struct {
	Model       *string   `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

// ChatPayloadBuilder builds raw chat completion payloads for testing.
type ChatPayloadBuilder struct {
	payload ChatPayload
}

// NewChatPayload creates a builder for a valid single turn request.
func NewChatPayload(config *harness.TestConfig) *ChatPayloadBuilder {
	return &ChatPayloadBuilder{
		payload: ChatPayload{
			Model:    ptr.To(config.ChatModel),
			Messages: []Message{SampleGreeting},
		},
	}
}

// WithoutModel omits the model entirely.
func (b *ChatPayloadBuilder) WithoutModel() *ChatPayloadBuilder {
	b.payload.Model = nil
	return b
}

// WithModel sets the model.
func (b *ChatPayloadBuilder) WithModel(model string) *ChatPayloadBuilder {
	b.payload.Model = ptr.To(model)
	return b
}

// WithMessages replaces the conversation, an empty list is sent as such.
func (b *ChatPayloadBuilder) WithMessages(messages ...Message) *ChatPayloadBuilder {
	b.payload.Messages = append([]Message{}, messages...)
	return b
}

// WithTemperature sets the sampling temperature.
func (b *ChatPayloadBuilder) WithTemperature(temperature float64) *ChatPayloadBuilder {
	b.payload.Temperature = ptr.To(temperature)
	return b
}

// WithMaxTokens bounds the completion length.
func (b *ChatPayloadBuilder) WithMaxTokens(maxTokens int) *ChatPayloadBuilder {
	b.payload.MaxTokens = ptr.To(maxTokens)
	return b
}

// Build returns the completed payload.
func (b *ChatPayloadBuilder) Build() ChatPayload {
	return b.payload
}

// ChatParamsBuilder builds typed chat completion requests.
type ChatParamsBuilder struct {
	params openai.ChatCompletionNewParams
}

// NewChatParams creates a builder for the configured chat model with no
// conversation.
func NewChatParams(config *harness.TestConfig) *ChatParamsBuilder {
	return &ChatParamsBuilder{
		params: openai.ChatCompletionNewParams{
			Model:    config.ChatModel,
			Messages: []openai.ChatCompletionMessageParamUnion{},
		},
	}
}

// WithSystem appends a system turn.
func (b *ChatParamsBuilder) WithSystem(content string) *ChatParamsBuilder {
	b.params.Messages = append(b.params.Messages, openai.SystemMessage(content))
	return b
}

// WithUser appends a user turn.
func (b *ChatParamsBuilder) WithUser(content string) *ChatParamsBuilder {
	b.params.Messages = append(b.params.Messages, openai.UserMessage(content))
	return b
}

// WithAssistant appends an assistant turn, used to replay history.
func (b *ChatParamsBuilder) WithAssistant(content string) *ChatParamsBuilder {
	b.params.Messages = append(b.params.Messages, openai.AssistantMessage(content))
	return b
}

// Deterministic pins temperature to zero and bounds the completion.
func (b *ChatParamsBuilder) Deterministic(maxTokens int64) *ChatParamsBuilder {
	b.params.Temperature = openai.Float(0)
	b.params.MaxTokens = openai.Int(maxTokens)

	return b
}

// Build returns the completed parameters.
func (b *ChatParamsBuilder) Build() openai.ChatCompletionNewParams {
	return b.params
}

// NewEmbeddingParams creates a typed embedding request, a single input is
// sent as a string rather than a list of one.
func NewEmbeddingParams(config *harness.TestConfig, inputs ...string) openai.EmbeddingNewParams {
	params := openai.EmbeddingNewParams{
		Model: config.EmbeddingModel,
	}

	if len(inputs) == 1 {
		params.Input.OfString = openai.String(inputs[0])
	} else {
		params.Input.OfArrayOfStrings = inputs
	}

	return params
}
