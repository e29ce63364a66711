package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/trail/archive"
	"github.com/pthm-cable/trail/telemetry"
)

func TestSummarizeArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	arc, err := archive.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer arc.Close()

	if _, err := arc.BeginRun(7, 8, false); err != nil {
		t.Fatal(err)
	}
	arc.RecordEvent(0, "neutral", "A new group embarks on their journey...")
	arc.RecordEvent(12, "negative", "Koko has died")
	if err := arc.RecordBookmark(telemetry.Bookmark{Type: telemetry.BookmarkExtinction, Tick: 600}); err != nil {
		t.Fatal(err)
	}
	if err := arc.FinishRun(600, 0, 1, "Ape"); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	summarizeArchive(arc, path)

	out := buf.String()
	for _, want := range []string{`"text":"Koko has died"`, `"bookmarks":1`, `"runs":1`} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %s:\n%s", want, out)
		}
	}
	if strings.Index(out, "Koko has died") > strings.Index(out, "embarks") {
		t.Error("archived events should be listed newest first")
	}
}
