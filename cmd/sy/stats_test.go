package main

import (
	"strings"
	"testing"
)

func TestStatsCompleted(t *testing.T) {
	cfg := writeConfig(t, "")
	pid := createdID(t, mustRun(t, "project", "create", "-c", cfg, "--name", "P"))
	mustRun(t, "task", "create", "-c", cfg, "-p", pid, "--title", "a", "--status", "done")
	tid := createdID(t, mustRun(t, "task", "create", "-c", cfg, "-p", pid, "--title", "b"))
	mustRun(t, "task", "move", "-c", cfg, tid, "done")
	mustRun(t, "task", "create", "-c", cfg, "-p", pid, "--title", "c", "--status", "canceled")

	out := mustRun(t, "stats", "completed-today", "-c", cfg)
	if !strings.HasPrefix(out, "2 task(s) completed since") {
		t.Errorf("stats output = %s", out)
	}

	out = mustRun(t, "stats", "completed-today", "-c", cfg, "--since", "1h")
	if !strings.HasPrefix(out, "2 task(s)") {
		t.Errorf("stats --since output = %s", out)
	}
}

func TestServe_InvalidSchedule(t *testing.T) {
	cfg := writeConfig(t, "repair:\n  schedule: \"not a cron\"\n")
	_, err := run(t, "serve", "-c", cfg)
	if err == nil {
		t.Fatal("expected schedule parse error")
	}
	if !strings.Contains(err.Error(), "schedule: parse") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestServeCmd_Help(t *testing.T) {
	out := mustRun(t, "serve", "--help")
	if !strings.Contains(out, "--port") {
		t.Errorf("expected --port flag, got: %s", out)
	}
}
