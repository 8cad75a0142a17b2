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

//nolint:revive,staticcheck // dot imports are standard for Ginkgo/Gomega test code
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spjmurray/go-util/pkg/set"

	"github.com/unikorn-cloud/inference-e2e/pkg/harness"
	"github.com/unikorn-cloud/inference-e2e/pkg/openapi"
)

// ValidationRejections are the statuses a request failing server side
// validation may produce.
func ValidationRejections() set.Set[int] {
	return set.New[int](http.StatusBadRequest, http.StatusUnprocessableEntity)
}

// ProtectedDeleteRejections are the statuses accepted for an attempt to
// delete a model the caller does not own.
// TODO: narrow to the single documented status once the platform publishes
// its access control contract for model deletion.
func ProtectedDeleteRejections() set.Set[int] {
	return set.New[int](http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusMethodNotAllowed)
}

// ExpectValidResponse asserts the response has the expected status, zero
// meaning 200, and that its body is a JSON object carrying every one of
// keys. The decoded body is returned.
func ExpectValidResponse(resp *harness.Response, expectedStatus int, keys ...string) map[string]any {
	GinkgoHelper()

	if expectedStatus == 0 {
		expectedStatus = http.StatusOK
	}

	Expect(resp.StatusCode).To(Equal(expectedStatus), "unexpected status, body: %s", resp.Body)

	data, err := resp.JSON()
	Expect(err).NotTo(HaveOccurred(), "body is not a JSON object: %s", resp.Body)

	for _, key := range keys {
		Expect(data).To(HaveKey(key), "body is missing required field %q", key)
	}

	return data
}

// ExpectStatusIn asserts status is one of allowed.
func ExpectStatusIn(status int, allowed set.Set[int]) {
	GinkgoHelper()

	var codes []int

	for code := range allowed.All() {
		codes = append(codes, code)
	}

	slices.Sort(codes)

	Expect(codes).To(ContainElement(status), "status %d is not one of %v", status, codes)
}

// ExpectParsed asserts a typed result succeeded and returns its body.
func ExpectParsed[T any](result *harness.Result[T]) *T {
	GinkgoHelper()

	Expect(result).NotTo(BeNil())
	Expect(result.StatusCode).To(Equal(http.StatusOK), "unexpected status: %v", result.APIError)
	Expect(result.Parsed).NotTo(BeNil())

	return result.Parsed
}

// ExpectRejected asserts a typed result failed with one of allowed and that
// the body the server sent carries none of absent. A rejection is never
// decoded into T, so the raw body is the only place a resource that should
// not be there can show up.
func ExpectRejected[T any](result *harness.Result[T], allowed set.Set[int], absent ...string) {
	GinkgoHelper()

	Expect(result).NotTo(BeNil())
	ExpectStatusIn(result.StatusCode, allowed)
	Expect(result.APIError).NotTo(BeNil(), "rejection carried no error")

	if len(absent) == 0 || len(result.Body) == 0 {
		return
	}

	var data map[string]any

	// Non-object bodies cannot carry the fields.
	if err := json.Unmarshal(result.Body, &data); err != nil {
		return
	}

	ExpectAbsent(data, absent...)
}

// ExpectAbsent asserts a decoded body carries none of keys.
func ExpectAbsent(data map[string]any, keys ...string) {
	GinkgoHelper()

	for _, key := range keys {
		Expect(data).NotTo(HaveKey(key), "body carries unexpected field %q", key)
	}
}

//nolint:gochecknoglobals
var contractValidator = sync.OnceValues(openapi.NewValidator)

// ExpectContract asserts the response status is documented for the operation
// and the body conforms to its documented schema.
func ExpectContract(ctx context.Context, resp *harness.Response) {
	GinkgoHelper()

	validator, err := contractValidator()
	Expect(err).NotTo(HaveOccurred())

	Expect(validator.ValidateResponse(ctx, resp.Request, resp.StatusCode, resp.Header, resp.Body)).To(Succeed())
}

// InnerProduct returns the dot product of two vectors of equal length.
func InnerProduct(a, b []float64) float64 {
	GinkgoHelper()

	Expect(a).To(HaveLen(len(b)), "vectors have different dimensions")

	var sum float64

	for i := range a {
		sum += a[i] * b[i]
	}

	return sum
}

// ExpectUniformDimensions asserts there are n non-empty vectors, all of the
// same length.
func ExpectUniformDimensions(vectors [][]float64, n int) {
	GinkgoHelper()

	Expect(vectors).To(HaveLen(n))

	if n == 0 {
		return
	}

	Expect(vectors[0]).NotTo(BeEmpty())

	for i, vector := range vectors {
		Expect(vector).To(HaveLen(len(vectors[0])), "vector %d has different dimensions", i)
	}
}
