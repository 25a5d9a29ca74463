package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"foley/internal/session"
)

func renderEventsTable(sess *session.Session) string {
	headers := []string{"#", "ID", "Time", "Status", "Event", "Provenance", "Regen", "Asset"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}

	rows := make([][]string, 0, len(sess.Events))
	for i, event := range sess.Events {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			shortID(event.ID),
			event.Timestamp,
			colorStatus(event.Status),
			truncate(event.Description, 48),
			string(event.Provenance),
			fmt.Sprintf("%d", event.RegenerationCount),
			shortAsset(event.Asset),
		})
	}
	return renderTable(headers, rows, aligns)
}

func colorStatus(status session.Status) string {
	if !stdoutIsTerminal() {
		return string(status)
	}
	switch status {
	case session.StatusReady:
		return text.FgGreen.Sprint(string(status))
	case session.StatusRejected:
		return text.FgRed.Sprint(string(status))
	case session.StatusReviewing, session.StatusSourcing:
		return text.FgYellow.Sprint(string(status))
	default:
		return string(status)
	}
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func truncate(value string, max int) string {
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}

func shortAsset(asset session.AssetRef) string {
	if asset.IsZero() {
		return "-"
	}
	return shortID(asset.ID)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
