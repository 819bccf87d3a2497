// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/lsbug/pkg/burner"
)

const burnCommand = "burn"

// burnCmd is re-executed by the CPPC check to load a single CPU. It runs until
// terminated.
func burnCmd() *cli.Command {
	return &cli.Command{
		Name:   burnCommand,
		Usage:  "Keep one CPU busy until terminated",
		Hidden: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "cpu",
				Usage:    "CPU to pin the busy loop to",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return burner.Spin(ctx, int(cmd.Int("cpu")))
		},
	}
}
