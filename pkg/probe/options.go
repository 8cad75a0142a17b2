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

package probe

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/unikorn-cloud/inference-e2e/pkg/harness"
	"github.com/unikorn-cloud/inference-e2e/pkg/openapi"
)

// Options are command line overrides for the environment configuration.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Model   string
	Verbose bool
}

// AddFlags registers the options with a flag set.
func (o *Options) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&o.BaseURL, "base-url", "", "API base URL, overrides MISTRAL_BASE_URL.")
	f.DurationVar(&o.Timeout, "timeout", 0, "Per request timeout, overrides REQUEST_TIMEOUT.")
	f.StringVar(&o.Model, "model", "", "Model to retrieve, defaults to the first one listed.")
	f.BoolVar(&o.Verbose, "verbose", false, "Log every exchange including bodies.")
}

// Validate checks flag values that cannot be checked by the flag parser.
// An explicit model is held to the same rules as one from the environment.
func (o *Options) Validate() error {
	if o.Model == "" {
		return nil
	}

	var id openapi.ModelID
	if err := id.UnmarshalText([]byte(o.Model)); err != nil {
		return fmt.Errorf("--model %q: %w", o.Model, err)
	}

	return nil
}

// Apply returns a copy of config with any overrides set.
func (o *Options) Apply(config *harness.TestConfig) *harness.TestConfig {
	c := *config

	if o.BaseURL != "" {
		c.BaseURL = strings.TrimSuffix(o.BaseURL, "/")
	}

	if o.Timeout > 0 {
		c.RequestTimeout = o.Timeout
	}

	return &c
}

// Logger returns a structured logger and a function to flush it. Exchanges
// are logged at V(1), which is only enabled when verbose.
func (o *Options) Logger() (logr.Logger, func(), error) {
	config := zap.NewProductionConfig()

	if o.Verbose {
		config = zap.NewDevelopmentConfig()
	}

	zl, err := config.Build()
	if err != nil {
		return logr.Discard(), nil, fmt.Errorf("building logger: %w", err)
	}

	return zapr.NewLogger(zl), func() { _ = zl.Sync() }, nil
}
