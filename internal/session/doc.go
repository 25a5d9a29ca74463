// Package session holds the sound event data model, its status state
// machine, and the per-video session that owns the event sequence and the
// cached detection output.
package session
