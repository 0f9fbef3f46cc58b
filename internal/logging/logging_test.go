package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Debug("hidden")
	New(&buf, false).Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output %q", buf.String())
	}

	buf.Reset()
	New(&buf, true).Debug("verbose")
	if !strings.Contains(buf.String(), "verbose") {
		t.Errorf("debug logger dropped a debug record: %q", buf.String())
	}
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "autocommit.log")

	log, closer, err := Open(path, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	log.Info("hello", "k", "v")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "msg=hello") || !strings.Contains(string(data), "k=v") {
		t.Errorf("log file content %q", data)
	}
}

func TestDefaultPathUsesXDGStateHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	p, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join("/tmp/state", "autocommit", "autocommit.log") {
		t.Errorf("DefaultPath = %q", p)
	}
}
