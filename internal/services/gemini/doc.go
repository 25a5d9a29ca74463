// Package gemini wraps the Gemini REST API for the three analysis providers
// (detection, direction, review) and the text embedding provider.
package gemini
