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

// Package probe is a one shot smoke check of an inference platform endpoint,
// run outside of any test framework.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"

	"github.com/unikorn-cloud/inference-e2e/pkg/harness"
	"github.com/unikorn-cloud/inference-e2e/pkg/openapi"
)

// ErrProbeFailed is returned when the endpoint answers but not as documented.
var ErrProbeFailed = errors.New("probe failed")

// Run lists models with the raw client and validates the listing against the
// contract, then retrieves one model with the typed client. An empty model
// retrieves the first one listed.
func Run(ctx context.Context, config *harness.TestConfig, log logr.Logger, model string) error {
	hooks := harness.NewHooks(log.V(1))

	validator, err := openapi.NewValidator()
	if err != nil {
		return err
	}

	client := harness.NewClient(config, hooks)
	defer client.Close()

	resp, err := client.Get(ctx, client.Endpoints().ListModels())
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: listing models returned %s", ErrProbeFailed, resp.Status)
	}

	if err := validator.ValidateResponse(ctx, resp.Request, resp.StatusCode, resp.Header, resp.Body); err != nil {
		return fmt.Errorf("%w: %w", ErrProbeFailed, err)
	}

	typed := harness.NewAPIClient(ctx, config, hooks)
	defer typed.Close()

	list, err := typed.ListModels(ctx)
	if err != nil {
		return err
	}

	if list.Parsed == nil || len(list.Parsed.Data) == 0 {
		return fmt.Errorf("%w: no models listed", ErrProbeFailed)
	}

	log.Info("models listed", "count", len(list.Parsed.Data))

	if model == "" {
		model = list.Parsed.Data[0].ID
	}

	result, err := typed.RetrieveModel(ctx, model)
	if err != nil {
		return err
	}

	if result.Parsed == nil {
		return fmt.Errorf("%w: retrieving model %s returned %d", ErrProbeFailed, model, result.StatusCode)
	}

	if result.Parsed.ID != model {
		return fmt.Errorf("%w: requested model %s, got %s", ErrProbeFailed, model, result.Parsed.ID)
	}

	log.Info("model retrieved", "id", result.Parsed.ID, "ownedBy", result.Parsed.OwnedBy, "created", result.Parsed.Created)

	return nil
}
