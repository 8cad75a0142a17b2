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

//nolint:testpackage,revive // test package in suites is standard for these tests, dot imports standard for Ginkgo
package suites

import (
	"github.com/openai/openai-go"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/inference-e2e/pkg/harness"
	"github.com/unikorn-cloud/inference-e2e/test/api"
)

func vectors(response *openai.CreateEmbeddingResponse) [][]float64 {
	result := make([][]float64, len(response.Data))

	for i, item := range response.Data {
		Expect(item.Index).To(BeNumerically("==", i), "embeddings returned out of input order")

		result[i] = item.Embedding
	}

	return result
}

var _ = Describe("Embeddings", Label("e2e"), func() {
	var typed *harness.APIClient

	BeforeEach(func() {
		typed = api.AcquireAPIClient(config)
	})

	Context("When embedding text", func() {
		Describe("Given a single input", func() {
			It("should return one non-empty vector", func(ctx SpecContext) {
				result, err := typed.Embeddings(ctx, api.NewEmbeddingParams(config, "Hello, world!"))
				Expect(err).NotTo(HaveOccurred())

				api.ExpectUniformDimensions(vectors(api.ExpectParsed(result)), 1)
			})
		})

		Describe("Given a batch of inputs", func() {
			It("should return one vector per input of identical dimensions", func(ctx SpecContext) {
				result, err := typed.Embeddings(ctx, api.NewEmbeddingParams(config, api.SampleBatch...))
				Expect(err).NotTo(HaveOccurred())

				api.ExpectUniformDimensions(vectors(api.ExpectParsed(result)), len(api.SampleBatch))
			})
		})

		Describe("Given texts with and without a shared topic", func() {
			It("should place related texts closer together", func(ctx SpecContext) {
				a, b, c := api.SemanticAnchors[0], api.SemanticAnchors[1], api.SemanticAnchors[2]

				result, err := typed.Embeddings(ctx, api.NewEmbeddingParams(config, a, b, c))
				Expect(err).NotTo(HaveOccurred())

				embeddings := vectors(api.ExpectParsed(result))
				api.ExpectUniformDimensions(embeddings, 3)

				related := api.InnerProduct(embeddings[0], embeddings[1])
				unrelated := api.InnerProduct(embeddings[1], embeddings[2])

				GinkgoWriter.Printf("sim(A,B)=%f sim(B,C)=%f\n", related, unrelated)

				Expect(related).To(BeNumerically(">", unrelated))
			})
		})
	})

	Context("When embedding without a model", func() {
		It("should be rejected by server side validation", func(ctx SpecContext) {
			resp, err := client.Post(ctx, client.Endpoints().Embeddings(), map[string]any{
				"input": []string{"Hello"},
			})
			Expect(err).NotTo(HaveOccurred())

			api.ExpectStatusIn(resp.StatusCode, api.ValidationRejections())
			api.ExpectContract(ctx, resp)
		})
	})
})
