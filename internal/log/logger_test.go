package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestEveryRecordCarriesServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Component: ComponentReport,
		Handler:   slog.NewTextHandler(&buf, nil),
	})

	logger.Info("Income summary computed", FieldGymID, "g1")

	out := buf.String()
	for _, want := range []string{"service=gymdesk", "component=report", "gym_id=g1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}

func TestWithComponentOverrides(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewTextHandler(&buf, nil)})

	worker := logger.WithComponent(ComponentWorker)
	if worker.Component() != ComponentWorker {
		t.Fatalf("component = %q, want %q", worker.Component(), ComponentWorker)
	}

	worker.Info("Outbox drained")
	if !strings.Contains(buf.String(), "component=worker") {
		t.Fatalf("log line missing component: %s", buf.String())
	}
}

func TestDefaultConfigFallsBackToAppComponent(t *testing.T) {
	logger := New(Config{})
	if logger.Component() != ComponentApp {
		t.Fatalf("component = %q, want %q", logger.Component(), ComponentApp)
	}
}
