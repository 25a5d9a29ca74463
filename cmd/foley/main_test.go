package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"foley/internal/session"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected output to mention %s, got %q", target, out)
	}

	// A second init without --overwrite must refuse.
	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init to fail without --overwrite")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, err := runCommand(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestEventsWithoutSessionFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := runCommand(t, "events")
	if err == nil || !strings.Contains(err.Error(), "no active session") {
		t.Fatalf("expected no-active-session error, got %v", err)
	}
}

func TestRenderTableUsesASCIIWhenPiped(t *testing.T) {
	out := renderTable(
		[]string{"#", "Event"},
		[][]string{{"1", "door slams"}},
		[]columnAlignment{alignRight, alignLeft},
	)
	if strings.ContainsAny(out, "╭╮╰╯─│") {
		t.Fatalf("expected plain ASCII borders off-terminal, got %q", out)
	}
	if !strings.Contains(out, "door slams") {
		t.Fatalf("row content missing from %q", out)
	}
}

func TestResetWithoutSessionFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := runCommand(t, "reset")
	if err == nil || !strings.Contains(err.Error(), "no active session") {
		t.Fatalf("expected no-active-session error, got %v", err)
	}
}

func TestResolveEventIDByPrefix(t *testing.T) {
	sess := &session.Session{
		Events: []*session.SoundEvent{
			{ID: "aaaa-1111", Description: "door slams"},
			{ID: "aabb-2222", Description: "keys drop"},
			{ID: "cccc-3333", Description: "chair scrapes"},
		},
	}

	if id, err := resolveEventID(sess, "cccc"); err != nil || id != "cccc-3333" {
		t.Fatalf("unique prefix: got %q, %v", id, err)
	}
	if id, err := resolveEventID(sess, "aaaa-1111"); err != nil || id != "aaaa-1111" {
		t.Fatalf("exact id: got %q, %v", id, err)
	}
	if _, err := resolveEventID(sess, "aa"); err == nil {
		t.Fatal("ambiguous prefix must fail")
	}
	if _, err := resolveEventID(sess, "zz"); err == nil {
		t.Fatal("unknown prefix must fail")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate(short) = %q", got)
	}
	long := strings.Repeat("x", 60)
	got := truncate(long, 10)
	if len(got) != 10 || !strings.HasSuffix(got, "...") {
		t.Fatalf("truncate(long) = %q", got)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abcdefghijk"); got != "abcdefgh" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("shortID = %q", got)
	}
}
