package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_BasicLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.Debug("dbg", String("k", "v"))
	log.Info("info", Int("n", 42))
	log.Warn("warn", Bool("ok", true))
	log.Error("err", Error(nil))

	out := buf.String()
	// Expect all levels present (debug is the lowest configured)
	for _, s := range []string{
		`"level":"debug"`, `"message":"dbg"`, `"k":"v"`,
		`"level":"info"`, `"message":"info"`, `"n":42`,
		`"level":"warn"`, `"message":"warn"`, `"ok":true`,
		`"level":"error"`, `"message":"err"`, `"error":"nil"`,
	} {
		if !strings.Contains(out, s) {
			t.Fatalf("expected output to contain %q, got: %s", s, out)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "error", Format: "json", Output: &buf})

	log.Debug("dbg")
	log.Info("info")
	log.Warn("warn")

	if buf.Len() != 0 {
		t.Fatalf("expected no output below the configured error level, got: %s", buf.String())
	}

	log.Error("err")
	if !strings.Contains(buf.String(), `"message":"err"`) {
		t.Fatalf("expected the error line to be emitted, got: %s", buf.String())
	}
}

func TestLogger_WithComponentField(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: "info", Format: "json", Output: &buf})
	comp := base.WithComponent("network.server")

	comp.Info("started")

	out := buf.String()
	if !strings.Contains(out, `"component":"network.server"`) {
		t.Fatalf("expected component field in output, got: %s", out)
	}
	if !strings.Contains(out, `"message":"started"`) {
		t.Fatalf("expected info message in output, got: %s", out)
	}
}
