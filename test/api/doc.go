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

// Package api provides end to end test utilities for the inference platform
// API: response assertions, request payload builders, sample data and
// scoped client acquisition.
//
// # Two Clients
//
// Scenarios talk to the platform through two clients from pkg/harness. The
// typed client is built over the generated request and response schemas, so
// a scenario that compiles cannot send a request the schema forbids. The raw
// client sends arbitrary JSON and is used for the negative cases the typed
// client would refuse to encode, such as a chat completion without a model.
//
// Both are configured from the same TestConfig and observed by the same
// hooks, which write every exchange to GinkgoWriter with its trace context.
//
// # Scoping
//
// The raw blocking client may be shared by a whole suite. Typed and
// asynchronous clients are bound to the test that acquired them and are
// released by DeferCleanup when it ends, whatever the outcome.
package api
