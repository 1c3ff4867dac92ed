package control_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/momentics/hioload-coop/api"
	"github.com/momentics/hioload-coop/control"
)

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := control.NewLogger(&buf, control.LevelInfo)
	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)
	l.Errorf("boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line leaked: %q", out)
	}
	if !strings.Contains(out, "[INFO] shown 2") || !strings.Contains(out, "[ERROR] boom") {
		t.Errorf("unexpected output: %q", out)
	}

	buf.Reset()
	l.SetLevel(control.LevelDebug)
	l.Debugf("now visible")
	if !strings.Contains(buf.String(), "[DEBUG] now visible") {
		t.Errorf("SetLevel not applied: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]control.Level{
		"debug": control.LevelDebug,
		"INFO":  control.LevelInfo,
		"":      control.LevelInfo,
		"warn":  control.LevelWarn,
		"error": control.LevelError,
	}
	for in, want := range cases {
		got, err := control.ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := control.ParseLevel("loud"); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestConfigStoreTypedReads(t *testing.T) {
	cs := control.NewConfigStore()
	cs.SetConfig(map[string]any{
		"port":    9000,
		"level":   "debug",
		"isolate": true,
		"poll":    "50ms",
	})
	if cs.Int("port", 0) != 9000 {
		t.Error("Int")
	}
	if cs.Int("missing", 42) != 42 {
		t.Error("Int default")
	}
	if cs.String("level", "") != "debug" {
		t.Error("String")
	}
	if !cs.Bool("isolate", false) {
		t.Error("Bool")
	}
	if cs.Duration("poll", 0) != 50*time.Millisecond {
		t.Error("Duration from string")
	}
	snap := cs.GetSnapshot()
	snap["port"] = 1
	if cs.Int("port", 0) != 9000 {
		t.Error("snapshot is not a copy")
	}
}

func TestMetricsRegistryAdd(t *testing.T) {
	mr := control.NewMetricsRegistry()
	mr.Add("c", 2)
	if got := mr.Add("c", 3); got != 5 {
		t.Errorf("Add = %d", got)
	}
	if mr.Updated().IsZero() {
		t.Error("Updated not tracked")
	}
}

func TestDebugProbesNames(t *testing.T) {
	dp := control.NewDebugProbes()
	dp.RegisterProbe("b", func() any { return 2 })
	dp.RegisterProbe("a", func() any { return 1 })
	names := dp.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names = %v", names)
	}
	if dp.DumpState()["b"] != 2 {
		t.Error("DumpState")
	}
}
