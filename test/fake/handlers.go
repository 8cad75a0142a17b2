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

package fake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type message struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type chatCompletionRequest struct {
	Model       *string    `json:"model"`
	Messages    *[]message `json:"messages"`
	Temperature *float64   `json:"temperature"`
	MaxTokens   *int       `json:"max_tokens"`
}

type embeddingRequest struct {
	Model *string         `json:"model"`
	Input json.RawMessage `json:"input"`
}

func (s *Server) chatCompletion(w http.ResponseWriter, r *http.Request) {
	var request chatCompletionRequest

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "Invalid JSON body")
		return
	}

	if request.Model == nil {
		writeMissingField(w, "model")
		return
	}

	if request.Messages == nil {
		writeMissingField(w, "messages")
		return
	}

	if _, ok := s.lookup(*request.Model); !ok {
		writeError(w, http.StatusBadRequest, "invalid_model", "Invalid model: "+*request.Model)
		return
	}

	messages := *request.Messages
	if len(messages) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "Messages must not be empty")
		return
	}

	words := completion(messages)

	if request.MaxTokens != nil && *request.MaxTokens > 0 && len(words) > *request.MaxTokens {
		words = words[:*request.MaxTokens]
	}

	content := strings.Join(words, " ")
	promptTokens := 0

	for _, m := range messages {
		if m.Content != nil {
			promptTokens += len(strings.Fields(*m.Content))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      strings.ReplaceAll(uuid.NewString(), "-", ""),
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   *request.Model,
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": len(words),
			"total_tokens":      promptTokens + len(words),
		},
	})
}

// completion answers deterministically: the last user turn is echoed back,
// prefixed by the persona a system turn sets up.
func completion(messages []message) []string {
	var (
		persona string
		prompt  string
	)

	for _, m := range messages {
		if m.Content == nil {
			continue
		}

		switch m.Role {
		case "system":
			persona = *m.Content
		case "user":
			prompt = *m.Content
		}
	}

	words := []string{"Sure."}

	if persona != "" {
		words = append(words, "As instructed ("+persona+"):")
	}

	words = append(words, "you said")

	return append(words, strings.Fields(prompt)...)
}

func (s *Server) embeddings(w http.ResponseWriter, r *http.Request) {
	var request embeddingRequest

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "Invalid JSON body")
		return
	}

	if request.Model == nil {
		writeMissingField(w, "model")
		return
	}

	if len(request.Input) == 0 {
		writeMissingField(w, "input")
		return
	}

	if _, ok := s.lookup(*request.Model); !ok {
		writeError(w, http.StatusBadRequest, "invalid_model", "Invalid model: "+*request.Model)
		return
	}

	inputs, err := decodeInputs(request.Input)
	if err != nil || len(inputs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "Input must be a string or a non-empty list of strings")
		return
	}

	data := make([]map[string]any, len(inputs))
	tokens := 0

	for i, input := range inputs {
		data[i] = map[string]any{
			"object":    "embedding",
			"embedding": embed(input),
			"index":     i,
		}

		tokens += len(strings.Fields(input))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":     strings.ReplaceAll(uuid.NewString(), "-", ""),
		"object": "list",
		"model":  *request.Model,
		"data":   data,
		"usage": map[string]any{
			"prompt_tokens":     tokens,
			"completion_tokens": 0,
			"total_tokens":      tokens,
		},
	})
}

func decodeInputs(raw json.RawMessage) ([]string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("decoding input: %w", err)
	}

	return many, nil
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	models := slices.Clone(s.models)
	s.lock.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   models,
	})
}

func (s *Server) retrieveModel(w http.ResponseWriter, r *http.Request) {
	model, ok := s.lookup(chi.URLParam(r, "model_id"))
	if !ok {
		writeError(w, http.StatusNotFound, "invalid_request_error", "Model not found")
		return
	}

	writeJSON(w, http.StatusOK, model)
}

func (s *Server) deleteModel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "model_id")

	if _, ok := s.lookup(id); !ok {
		writeError(w, http.StatusNotFound, "invalid_request_error", "Model not found")
		return
	}

	if !strings.HasPrefix(id, FineTunedPrefix) {
		writeError(w, http.StatusForbidden, "permission_error", "Only fine-tuned models may be deleted")
		return
	}

	s.lock.Lock()
	s.models = slices.DeleteFunc(s.models, func(m modelCard) bool {
		return m.ID == id
	})
	s.lock.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      id,
		"object":  "model",
		"deleted": true,
	})
}
