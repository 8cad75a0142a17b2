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
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/unikorn-cloud/inference-e2e/pkg/openapi"
)

const (
	// DefaultBaseURL is the vendor's production API host.
	DefaultBaseURL = "https://api.mistral.ai"

	// DefaultRequestTimeout bounds every exchange end to end.
	DefaultRequestTimeout = 60 * time.Second

	DefaultChatModel        = "mistral-small-latest"
	DefaultEmbeddingModel   = "mistral-embed"
	DefaultModelID          = "devstral-small-latest"
	DefaultProtectedModelID = "devstral-latest"
	DefaultUnknownModelID   = "devstral-xxl"
)

// ErrMissingCredential is returned when no API key is configured. Tests treat
// it as "cannot run" rather than as a failure.
var ErrMissingCredential = errors.New("MISTRAL_API_KEY environment variable not set")

// TestConfig is the endpoint configuration for one test session. It is not
// modified once loaded.
type TestConfig struct {
	BaseURL          string
	APIKey           string
	RequestTimeout   time.Duration
	ChatModel        string
	EmbeddingModel   string
	ModelID          string
	ProtectedModelID string
	UnknownModelID   string
}

// LoadTestConfig loads configuration from environment variables and .env files.
// Returns ErrMissingCredential if no API key is available.
func LoadTestConfig() (*TestConfig, error) {
	loadEnvFile()

	config := &TestConfig{
		BaseURL:          strings.TrimSuffix(getStringWithDefault("MISTRAL_BASE_URL", DefaultBaseURL), "/"),
		APIKey:           os.Getenv("MISTRAL_API_KEY"),
		RequestTimeout:   getDurationWithDefault("REQUEST_TIMEOUT", DefaultRequestTimeout),
		ChatModel:        getModelWithDefault("TEST_CHAT_MODEL", DefaultChatModel),
		EmbeddingModel:   getModelWithDefault("TEST_EMBEDDING_MODEL", DefaultEmbeddingModel),
		ModelID:          getModelWithDefault("TEST_MODEL_ID", DefaultModelID),
		ProtectedModelID: getModelWithDefault("TEST_PROTECTED_MODEL_ID", DefaultProtectedModelID),
		UnknownModelID:   getModelWithDefault("TEST_UNKNOWN_MODEL_ID", DefaultUnknownModelID),
	}

	if config.APIKey == "" {
		return nil, ErrMissingCredential
	}

	return config, nil
}

// NewTestConfig returns a configuration with defaults for everything but the
// endpoint and credential.
func NewTestConfig(baseURL, apiKey string) *TestConfig {
	return &TestConfig{
		BaseURL:          strings.TrimSuffix(baseURL, "/"),
		APIKey:           apiKey,
		RequestTimeout:   DefaultRequestTimeout,
		ChatModel:        DefaultChatModel,
		EmbeddingModel:   DefaultEmbeddingModel,
		ModelID:          DefaultModelID,
		ProtectedModelID: DefaultProtectedModelID,
		UnknownModelID:   DefaultUnknownModelID,
	}
}

// AuthHeaders returns the headers every request carries. A new map is returned
// on each call.
func (c *TestConfig) AuthHeaders() http.Header {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.APIKey)
	header.Set("Content-Type", "application/json")

	return header
}

// String implements fmt.Stringer without exposing the credential.
func (c *TestConfig) String() string {
	return fmt.Sprintf("baseURL=%s timeout=%s chatModel=%s embeddingModel=%s apiKey=<redacted>", c.BaseURL, c.RequestTimeout, c.ChatModel, c.EmbeddingModel)
}

func getStringWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getDurationWithDefault gets a duration from environment variable or returns default.
func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil || duration <= 0 {
		return defaultValue
	}

	return duration
}

// getModelWithDefault gets a model identifier from environment variable or returns default.
func getModelWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var id openapi.ModelID
	if err := id.UnmarshalText([]byte(value)); err != nil {
		return defaultValue
	}

	return id.String()
}

// loadEnvFile looks for test/.env from the working directory upwards, suites
// run from arbitrarily nested package directories.
func loadEnvFile() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}

	for {
		path := filepath.Join(dir, "test", ".env")

		if _, err := os.Stat(path); err == nil {
			// Variables already set in the environment take precedence.
			if err := godotenv.Load(path); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to load .env file from %s: %v\n", path, err)
			}

			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// .env file not found - this is OK in CI/CD where env vars are set directly
			return
		}

		dir = parent
	}
}
