// Package pipeline orchestrates a session through the production stages:
// detection, creative direction, asset production, quality review, and the
// bounded regeneration loop that re-sources rejected events. The orchestrator
// owns stage ordering and status transitions; providers and the asset engine
// are injected so every stage can be exercised in isolation.
package pipeline
