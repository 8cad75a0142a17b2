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
	"fmt"

	"github.com/oapi-codegen/runtime"
)

const apiVersionPrefix = "/v1"

// Endpoints contains all API endpoint patterns.
type Endpoints struct{}

// NewEndpoints creates a new Endpoints instance.
func NewEndpoints() *Endpoints {
	return &Endpoints{}
}

// APIBase is the root the generated client resolves its relative paths against.
func (e *Endpoints) APIBase(baseURL string) string {
	return baseURL + apiVersionPrefix + "/"
}

// Inference endpoints.
func (e *Endpoints) ChatCompletions() string {
	return apiVersionPrefix + "/chat/completions"
}

func (e *Endpoints) Embeddings() string {
	return apiVersionPrefix + "/embeddings"
}

// Model registry endpoints.
func (e *Endpoints) ListModels() string {
	return apiVersionPrefix + "/models"
}

// Model addresses a single model card, used for retrieval and deletion.
func (e *Endpoints) Model(modelID string) (string, error) {
	pathParam, err := runtime.StyleParamWithLocation("simple", false, "model_id", runtime.ParamLocationPath, modelID)
	if err != nil {
		return "", fmt.Errorf("encoding model_id: %w", err)
	}

	return apiVersionPrefix + "/models/" + pathParam, nil
}
