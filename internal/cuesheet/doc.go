// Package cuesheet exports a session's event sequence as a production cue
// sheet document.
package cuesheet
