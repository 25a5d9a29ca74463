// Package services defines the shared error taxonomy and context carriers
// used by provider clients and the pipeline orchestrator.
//
// Errors are tagged with sentinel markers so the orchestrator can classify
// failures (fatal to the run, degraded-but-recoverable, per-event terminal)
// without inspecting provider-specific detail.
package services
