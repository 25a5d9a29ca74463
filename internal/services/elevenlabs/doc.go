// Package elevenlabs wraps the ElevenLabs sound generation API used when the
// library has no acceptable match and a new asset must be synthesized.
package elevenlabs
