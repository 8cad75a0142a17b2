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

//nolint:revive,staticcheck // dot imports are standard for Ginkgo/Gomega test code
package api

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/inference-e2e/pkg/harness"
)

// Sample chat turns.
//
//nolint:gochecknoglobals
var (
	SampleGreeting = Message{
		Role:    "user",
		Content: "Hello",
	}

	SampleArithmetic         = "What is 2 + 2? Reply with just the number."
	SampleFollowUpQuestion   = "What about 3 + 3?"
	SampleFollowUpPreamble   = "What is 2 + 2?"
	SampleSystemPrompt       = "You are a helpful assistant. Always respond in one word."
	SampleSystemPromptedTurn = "Are you ready?"
)

// SemanticAnchors are three texts where the first two share a topic and the
// last does not.
//
//nolint:gochecknoglobals
var SemanticAnchors = [3]string{
	"weather is bad today",
	"but I live in Sweden",
	"Tim Cook is investing in AI",
}

// SampleBatch is a batch of unrelated texts to embed.
//
//nolint:gochecknoglobals
var SampleBatch = []string{
	"The weather is awful today.",
	"But I live in Sweden",
	"Right!!!",
}

// LoadConfigOrSkip resolves the endpoint configuration, skipping the current
// node when no credential is available.
func LoadConfigOrSkip() *harness.TestConfig {
	GinkgoHelper()

	config, err := harness.LoadTestConfig()
	if errors.Is(err, harness.ErrMissingCredential) {
		Skip("MISTRAL_API_KEY not set, skipping end to end tests")
	}

	Expect(err).NotTo(HaveOccurred())

	GinkgoWriter.Printf("Testing against %s\n", config)

	return config
}

// NewHooks returns hooks that write every exchange to GinkgoWriter.
func NewHooks() *harness.Hooks {
	return harness.NewHooks(GinkgoLogr)
}

// scope returns a context that ends when the current node does, whatever
// its outcome.
func scope() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	DeferCleanup(cancel)

	return ctx
}

// AcquireClient returns a blocking raw client released by DeferCleanup. In a
// BeforeSuite it lives for the whole suite.
func AcquireClient(config *harness.TestConfig) *harness.Client {
	client := harness.NewClient(config, NewHooks())

	DeferCleanup(func() {
		client.Close()
	})

	return client
}

// AcquireAPIClient returns a typed client bound to the current test. It must
// not be stored anywhere that outlives the test.
func AcquireAPIClient(config *harness.TestConfig) *harness.APIClient {
	client := harness.NewAPIClient(scope(), config, NewHooks())

	DeferCleanup(func() {
		client.Close()
	})

	return client
}

// AcquireAsyncClient returns an asynchronous raw client bound to the current
// test.
func AcquireAsyncClient(config *harness.TestConfig) *harness.AsyncClient {
	client := harness.AcquireAsync(scope(), config, NewHooks())

	DeferCleanup(func() {
		client.Close()
	})

	return client
}
