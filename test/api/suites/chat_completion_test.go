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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/inference-e2e/pkg/harness"
	"github.com/unikorn-cloud/inference-e2e/test/api"
)

var _ = Describe("Chat Completions", Label("e2e"), func() {
	var typed *harness.APIClient

	BeforeEach(func() {
		typed = api.AcquireAPIClient(config)
	})

	Context("When sending a valid conversation", func() {
		Describe("Given a single user turn", func() {
			It("should return a non-empty completion", func(ctx SpecContext) {
				result, err := typed.ChatCompletion(ctx, api.NewChatParams(config).
					WithUser(api.SampleArithmetic).
					Deterministic(10).
					Build())
				Expect(err).NotTo(HaveOccurred())

				completion := api.ExpectParsed(result)
				Expect(completion.Choices).NotTo(BeEmpty())
				Expect(completion.Choices[0].Message.Content).NotTo(BeEmpty())
			})
		})

		Describe("Given a multi-turn conversation", func() {
			It("should answer the follow-up with the history attached", func(ctx SpecContext) {
				first, err := typed.ChatCompletion(ctx, api.NewChatParams(config).
					WithUser(api.SampleFollowUpPreamble).
					Deterministic(50).
					Build())
				Expect(err).NotTo(HaveOccurred())

				answer := api.ExpectParsed(first)
				Expect(answer.Choices).NotTo(BeEmpty())

				second, err := typed.ChatCompletion(ctx, api.NewChatParams(config).
					WithUser(api.SampleFollowUpPreamble).
					WithAssistant(answer.Choices[0].Message.Content).
					WithUser(api.SampleFollowUpQuestion).
					Deterministic(50).
					Build())
				Expect(err).NotTo(HaveOccurred())

				followUp := api.ExpectParsed(second)
				Expect(followUp.Choices).NotTo(BeEmpty())
				Expect(followUp.Choices[0].Message.Content).NotTo(BeEmpty())
			})
		})

		Describe("Given a system prompt", func() {
			It("should return a completion", func(ctx SpecContext) {
				result, err := typed.ChatCompletion(ctx, api.NewChatParams(config).
					WithSystem(api.SampleSystemPrompt).
					WithUser(api.SampleSystemPromptedTurn).
					Deterministic(20).
					Build())
				Expect(err).NotTo(HaveOccurred())

				completion := api.ExpectParsed(result)
				Expect(completion.Choices).NotTo(BeEmpty())
			})
		})

		Describe("Given the same request twice at temperature zero", func() {
			It("should succeed structurally both times", func(ctx SpecContext) {
				params := api.NewChatParams(config).
					WithUser(api.SampleArithmetic).
					Deterministic(10).
					Build()

				for range 2 {
					result, err := typed.ChatCompletion(ctx, params)
					Expect(err).NotTo(HaveOccurred())

					completion := api.ExpectParsed(result)
					Expect(completion.Choices).NotTo(BeEmpty())
					Expect(completion.Choices[0].Message.Content).NotTo(BeEmpty())
				}
			})
		})
	})

	Context("When sending an invalid conversation", func() {
		Describe("Given no model", func() {
			It("should be rejected by server side validation", func(ctx SpecContext) {
				resp, err := client.Post(ctx, client.Endpoints().ChatCompletions(), api.NewChatPayload(config).
					WithoutModel().
					Build())
				Expect(err).NotTo(HaveOccurred())

				api.ExpectStatusIn(resp.StatusCode, api.ValidationRejections())
				api.ExpectContract(ctx, resp)
			})
		})

		Describe("Given an empty message list", func() {
			It("should be rejected", func(ctx SpecContext) {
				result, err := typed.ChatCompletion(ctx, api.NewChatParams(config).Build())
				Expect(err).NotTo(HaveOccurred())

				api.ExpectRejected(result, api.ValidationRejections())
			})
		})

		Describe("Given a malformed body", func() {
			It("should be rejected", func(ctx SpecContext) {
				resp, err := client.PostRaw(ctx, client.Endpoints().ChatCompletions(), []byte(`{"model": "`+config.ChatModel+`", "messages": [`))
				Expect(err).NotTo(HaveOccurred())

				api.ExpectStatusIn(resp.StatusCode, api.ValidationRejections())
			})
		})
	})
})
