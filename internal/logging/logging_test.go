package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	l, err := New(Config{Level: "debug", OutputPath: path})
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("hello")
	l.Sync()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.Contains(s, `"msg":"hello"`) || !strings.Contains(s, `"service":"meshrecon"`) {
		t.Errorf("unexpected log output %q", s)
	}
}

func TestNewBadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	l, err := New(Config{Level: "loud", Format: "console", OutputPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if l.Core().Enabled(-1) {
		t.Error("debug enabled with fallback info level")
	}
	if OrNop(nil) == nil || OrNop(l) != l {
		t.Error("OrNop misbehaves")
	}
}
