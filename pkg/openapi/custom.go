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

package openapi

import (
	"errors"
	"regexp"
)

var ErrInvalidModelID = errors.New("invalid model ID: must consist of alphanumeric characters, '.', '_', ':' or '-', and must start with an alphanumeric character")

// Fine-tuned models use colon separated identifiers e.g. ft:open-mistral-7b:abc123.
var modelIDValidationRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,127}$`)

// ModelID is a model registry identifier as accepted in the {model_id} path parameter.
type ModelID struct {
	Value string
}

func (n *ModelID) UnmarshalText(text []byte) error {
	if !modelIDValidationRegex.Match(text) {
		return ErrInvalidModelID
	}

	*n = ModelID{
		Value: string(text),
	}

	return nil
}

func (n ModelID) String() string {
	return n.Value
}
