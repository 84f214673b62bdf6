package logging

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
)

func TestStd_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewStd(log.New(&buf, "", 0), false)

	l.Debug("hidden")
	l.Info("digitized", Int("curves", 3))
	l.Warn("axis failed", String("axis", "y2"), Err(errors.New("too few labels")))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message written with debug disabled: %q", out)
	}
	if !strings.Contains(out, "INFO digitized curves=3") {
		t.Errorf("missing info line in %q", out)
	}
	if !strings.Contains(out, "WARN axis failed axis=y2 error=too few labels") {
		t.Errorf("missing warn line in %q", out)
	}
}

func TestStd_DebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := NewStd(log.New(&buf, "", 0), true)
	l.Debug("stage done", Float("seconds", 0.5))

	if !strings.Contains(buf.String(), "DEBUG stage done seconds=0.5") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestStd_With(t *testing.T) {
	var buf bytes.Buffer
	base := NewStd(log.New(&buf, "", 0), false)
	l := base.With(String("source", "chart.png"))
	l.Error("decode failed")
	base.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if lines[0] != "ERROR decode failed source=chart.png" {
		t.Errorf("line 0: got %q", lines[0])
	}
	if lines[1] != "INFO plain" {
		t.Errorf("With leaked fields into the parent logger: %q", lines[1])
	}
}

func TestNop(t *testing.T) {
	var l Logger = Nop{}
	l.Info("ignored")
	if _, ok := l.With(String("k", "v")).(Nop); !ok {
		t.Error("Nop.With should return Nop")
	}
}
