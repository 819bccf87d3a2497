// Package header provides the envelope written at the top of every lsbug
// document, such as the run report.
//
// A Header carries the document kind, the schema version and free-form
// metadata. Init fills in the generation timestamp, the lsbug version and
// the host name:
//
//	var r runner.Report
//	r.Init(header.KindTestRunReport, version)
//
// The header is embedded inline, so serialized documents start with:
//
//	kind: TestRunReport
//	apiVersion: lsbug.nvidia.com/v1alpha1
//	metadata:
//	  hostname: node-1
//	  timestamp: "2025-01-01T00:00:00Z"
//	  version: v0.1.0
package header
