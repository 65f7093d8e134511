
package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{Level: "warn", Format: "json"})
	l.Info("hidden")
	l.Warn("shown", "page", 2)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered: %s", out)
	}
	if !strings.Contains(out, `"page":2`) {
		t.Fatalf("want json attrs, got %s", out)
	}
}

func TestNewTeesToFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "scraper.log")
	l := New(&buf, Options{Level: "debug", File: path})
	l.Debug("page parsed", "plates", 3)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "plates=3") || !strings.Contains(buf.String(), "plates=3") {
		t.Fatalf("expected line in both outputs, file=%q stdout=%q", data, buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != slog.LevelDebug || ParseLevel("bogus") != slog.LevelInfo {
		t.Fatal("unexpected level mapping")
	}
}
