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

//nolint:testpackage,revive // test package in suites is standard for these tests, dot imports standard for Ginkgo
package suites

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spjmurray/go-util/pkg/set"

	"github.com/unikorn-cloud/inference-e2e/pkg/harness"
	"github.com/unikorn-cloud/inference-e2e/test/api"
)

// withCredential returns a copy of the suite configuration presenting a
// different credential.
func withCredential(apiKey string) *harness.TestConfig {
	c := *config
	c.APIKey = apiKey

	return &c
}

var _ = Describe("Security and Authentication", Label("e2e"), func() {
	Context("When accessing the API with different authentication states", func() {
		Describe("Given an invalid token", func() {
			It("should reject raw requests with 401 Unauthorized", func(ctx SpecContext) {
				unauthenticated := api.AcquireAsyncClient(withCredential("invalid-token"))

				resp, err := unauthenticated.Do(http.MethodGet, unauthenticated.Endpoints().ListModels(), nil)
				Expect(err).NotTo(HaveOccurred())

				api.ExpectValidResponse(resp, http.StatusUnauthorized)
				api.ExpectContract(ctx, resp)
			})

			It("should reject typed requests with 401 Unauthorized", func(ctx SpecContext) {
				typed := api.AcquireAPIClient(withCredential("invalid-token"))

				result, err := typed.ListModels(ctx)
				Expect(err).NotTo(HaveOccurred())

				api.ExpectRejected(result, set.New[int](http.StatusUnauthorized))
			})
		})

		Describe("Given no token", func() {
			It("should reject the request with 401 Unauthorized", func(ctx SpecContext) {
				typed := api.AcquireAPIClient(withCredential(""))

				result, err := typed.RetrieveModel(ctx, config.ModelID)
				Expect(err).NotTo(HaveOccurred())

				api.ExpectRejected(result, set.New[int](http.StatusUnauthorized))
			})
		})
	})
})
