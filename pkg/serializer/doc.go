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

// Package serializer writes run reports in multiple formats.
//
// # Supported Formats
//
// JSON:
//   - Machine-parseable, indented representation
//   - Standard encoding/json package
//
// YAML:
//   - Human-readable, durations rendered as strings ("1.5s")
//   - gopkg.in/yaml.v3
//
// Table:
//   - One row per record for values implementing Tabular
//   - Flattened FIELD/VALUE rows for anything else
//   - github.com/jedib0t/go-pretty/v6/table
//
// # Usage
//
//	w, err := serializer.NewFileWriter(serializer.FormatYAML, "report.yaml")
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//	return w.Serialize(ctx, report)
package serializer
