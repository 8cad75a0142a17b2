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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/unikorn-cloud/inference-e2e/pkg/harness"
	"github.com/unikorn-cloud/inference-e2e/pkg/probe"
)

func run() int {
	var options probe.Options

	options.AddFlags(pflag.CommandLine)

	pflag.Parse()

	if err := options.Validate(); err != nil {
		fmt.Println(err)
		return 1
	}

	log, flush, err := options.Logger()
	if err != nil {
		fmt.Println(err)
		return 1
	}

	defer flush()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config, err := harness.LoadTestConfig()
	if err != nil {
		log.Error(err, "unable to load configuration")
		return 1
	}

	config = options.Apply(config)

	log.Info("probe starting", "config", config.String())

	if err := probe.Run(ctx, config, log, options.Model); err != nil {
		log.Error(err, "probe failed")
		return 1
	}

	log.Info("probe succeeded")

	return 0
}

func main() {
	os.Exit(run())
}
