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

package api_test

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2" //nolint:revive
	. "github.com/onsi/gomega"    //nolint:revive
	"github.com/spjmurray/go-util/pkg/set"

	"github.com/unikorn-cloud/inference-e2e/pkg/harness"
	"github.com/unikorn-cloud/inference-e2e/test/api"
	"github.com/unikorn-cloud/inference-e2e/test/fake"
)

const apiKey = "fake-key"

var _ = Describe("Response Assertions", func() {
	var (
		server *fake.Server
		config *harness.TestConfig
		client *harness.Client
	)

	BeforeEach(func() {
		server = fake.New(apiKey)
		DeferCleanup(server.Close)

		config = server.Config()
		client = api.AcquireClient(config)
	})

	Describe("ExpectValidResponse", func() {
		It("returns the decoded body when the contract holds", func(ctx SpecContext) {
			resp, err := client.Get(ctx, client.Endpoints().ListModels())
			Expect(err).NotTo(HaveOccurred())

			data := api.ExpectValidResponse(resp, 0, "object", "data")
			Expect(data["object"]).To(Equal("list"))

			// Inspection is repeatable.
			Expect(api.ExpectValidResponse(resp, http.StatusOK, "object")).To(Equal(data))
		})

		It("fails on an unexpected status", func(ctx SpecContext) {
			path, err := client.Endpoints().Model(config.UnknownModelID)
			Expect(err).NotTo(HaveOccurred())

			resp, err := client.Get(ctx, path)
			Expect(err).NotTo(HaveOccurred())

			failures := InterceptGomegaFailures(func() {
				api.ExpectValidResponse(resp, 0)
			})
			Expect(failures).NotTo(BeEmpty())

			api.ExpectValidResponse(resp, http.StatusNotFound, "message")
		})

		It("fails on a missing field", func(ctx SpecContext) {
			resp, err := client.Get(ctx, client.Endpoints().ListModels())
			Expect(err).NotTo(HaveOccurred())

			failures := InterceptGomegaFailures(func() {
				api.ExpectValidResponse(resp, 0, "object", "next_page")
			})
			Expect(failures).To(HaveLen(1))
			Expect(failures[0]).To(ContainSubstring("next_page"))
		})
	})

	Describe("ExpectStatusIn", func() {
		It("accepts members and rejects others", func() {
			api.ExpectStatusIn(http.StatusUnprocessableEntity, api.ValidationRejections())
			api.ExpectStatusIn(http.StatusMethodNotAllowed, api.ProtectedDeleteRejections())

			failures := InterceptGomegaFailures(func() {
				api.ExpectStatusIn(http.StatusOK, set.New[int](http.StatusForbidden))
			})
			Expect(failures).NotTo(BeEmpty())
		})
	})

	Describe("ExpectRejected", func() {
		It("accepts a rejection carrying an error envelope", func(ctx SpecContext) {
			result, err := api.AcquireAPIClient(config).RetrieveModel(ctx, config.UnknownModelID)
			Expect(err).NotTo(HaveOccurred())

			api.ExpectRejected(result, set.New[int](http.StatusNotFound), "id", "owned_by")
		})

		It("fails when a rejection carries the resource anyway", func(ctx SpecContext) {
			card := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"id":"devstral-xxl","object":"model","created":1,"owned_by":"mistralai"}`))
			}))
			DeferCleanup(card.Close)

			typed := api.AcquireAPIClient(harness.NewTestConfig(card.URL, apiKey))

			result, err := typed.RetrieveModel(ctx, config.UnknownModelID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Parsed).To(BeNil())

			failures := InterceptGomegaFailures(func() {
				api.ExpectRejected(result, set.New[int](http.StatusNotFound), "id", "owned_by")
			})
			Expect(failures).NotTo(BeEmpty())
			Expect(failures[0]).To(ContainSubstring("id"))
		})

		It("fails on a status outside the allowed set", func(ctx SpecContext) {
			result, err := api.AcquireAPIClient(config).DeleteModel(ctx, config.ProtectedModelID)
			Expect(err).NotTo(HaveOccurred())

			failures := InterceptGomegaFailures(func() {
				api.ExpectRejected(result, set.New[int](http.StatusNotFound))
			})
			Expect(failures).NotTo(BeEmpty())
		})
	})

	Describe("ExpectContract", func() {
		It("accepts documented exchanges", func(ctx SpecContext) {
			resp, err := client.Get(ctx, client.Endpoints().ListModels())
			Expect(err).NotTo(HaveOccurred())

			api.ExpectContract(ctx, resp)

			path, err := client.Endpoints().Model(config.ProtectedModelID)
			Expect(err).NotTo(HaveOccurred())

			resp, err = client.Delete(ctx, path)
			Expect(err).NotTo(HaveOccurred())

			api.ExpectContract(ctx, resp)
		})
	})

	Describe("Embedding helpers", func() {
		It("computes inner products", func() {
			Expect(api.InnerProduct([]float64{1, 2, 3}, []float64{4, 5, 6})).To(BeNumerically("==", 32))
		})

		It("detects ragged batches", func() {
			api.ExpectUniformDimensions([][]float64{{1, 2}, {3, 4}}, 2)

			failures := InterceptGomegaFailures(func() {
				api.ExpectUniformDimensions([][]float64{{1, 2}, {3}}, 2)
			})
			Expect(failures).NotTo(BeEmpty())
		})
	})
})

var _ = Describe("Scoped Acquisition", func() {
	var server *fake.Server

	BeforeEach(func() {
		server = fake.New(apiKey)
		DeferCleanup(server.Close)
	})

	Context("across specs", Ordered, func() {
		var leaked *harness.APIClient

		It("acquires a typed client for the spec", func(ctx SpecContext) {
			leaked = api.AcquireAPIClient(server.Config())
			Expect(leaked.Released()).To(BeFalse())

			result, err := leaked.ListModels(ctx)
			Expect(err).NotTo(HaveOccurred())
			api.ExpectParsed(result)
		})

		It("has released it once the spec ended", func(ctx SpecContext) {
			Expect(leaked.Released()).To(BeTrue())

			_, err := leaked.ListModels(ctx)
			Expect(err).To(MatchError(harness.ErrHandleReleased))
		})
	})

	It("runs asynchronous exchanges", func() {
		client := api.AcquireAsyncClient(server.Config())

		resp, err := client.Do(http.MethodGet, client.Endpoints().ListModels(), nil)
		Expect(err).NotTo(HaveOccurred())
		api.ExpectValidResponse(resp, 0, "data")
	})
})
