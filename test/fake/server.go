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

// Package fake provides an in-process stand-in for the inference platform
// API. It implements just enough of the documented contract to exercise the
// harness deterministically: bearer authentication, chat completions,
// embeddings and the model registry.
package fake

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/unikorn-cloud/inference-e2e/pkg/harness"
)

// FineTunedPrefix marks models owned by the caller, the only ones that may
// be deleted.
const FineTunedPrefix = "ft:"

type modelCard struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// Server is a running fake. Close it when done.
type Server struct {
	*httptest.Server

	apiKey  string
	latency time.Duration

	lock   sync.Mutex
	models []modelCard
}

// Option customizes a fake server.
type Option func(*Server)

// WithModels adds models to the registry. Identifiers with FineTunedPrefix
// are owned by the caller.
func WithModels(ids ...string) Option {
	return func(s *Server) {
		for _, id := range ids {
			s.addModel(id)
		}
	}
}

// WithLatency delays every response, or until the client gives up.
func WithLatency(latency time.Duration) Option {
	return func(s *Server) {
		s.latency = latency
	}
}

// New starts a fake accepting apiKey as its only valid credential. The
// registry is seeded with the default models used by the suites.
func New(apiKey string, options ...Option) *Server {
	s := &Server{
		apiKey: apiKey,
	}

	WithModels(
		harness.DefaultChatModel,
		harness.DefaultEmbeddingModel,
		harness.DefaultModelID,
		harness.DefaultProtectedModelID,
	)(s)

	for _, option := range options {
		option(s)
	}

	s.Server = httptest.NewServer(s.router())

	return s
}

// Config returns a harness configuration pointing at the fake.
func (s *Server) Config() *harness.TestConfig {
	return harness.NewTestConfig(s.URL, s.apiKey)
}

func (s *Server) addModel(id string) {
	owner := "mistralai"
	if strings.HasPrefix(id, FineTunedPrefix) {
		owner = "user"
	}

	s.models = append(s.models, modelCard{
		ID:      id,
		Object:  "model",
		Created: time.Now().Unix(),
		OwnedBy: owner,
	})
}

func (s *Server) lookup(id string) (modelCard, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, model := range s.models {
		if model.ID == id {
			return model, true
		}
	}

	return modelCard{}, false
}

func (s *Server) router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(s.delay)
	router.Use(s.authenticate)

	router.Route("/v1", func(r chi.Router) {
		r.Post("/chat/completions", s.chatCompletion)
		r.Post("/embeddings", s.embeddings)
		r.Get("/models", s.listModels)
		r.Get("/models/{model_id}", s.retrieveModel)
		r.Delete("/models/{model_id}", s.deleteModel)
	})

	return router
}

func (s *Server) delay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.latency > 0 {
			select {
			case <-time.After(s.latency):
			case <-r.Context().Done():
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.apiKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"message":    "Unauthorized",
				"request_id": uuid.NewString(),
			})

			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, errorType, message string) {
	writeJSON(w, status, map[string]any{
		"object":  "error",
		"message": message,
		"type":    errorType,
	})
}

// writeMissingField mirrors the vendor's request validation envelope.
func writeMissingField(w http.ResponseWriter, field string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"object": "error",
		"message": map[string]any{
			"detail": []map[string]any{
				{
					"type": "missing",
					"loc":  []string{"body", field},
					"msg":  "Field required",
				},
			},
		},
		"type": "invalid_request_message_error",
	})
}
