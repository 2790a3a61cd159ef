package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cstroie/XRayVision-sub000/internal/logging"
)

func TestNewConsoleFormatsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("instance stored",
		logging.String(logging.FieldInstanceUID, "1.2.840.1"),
		logging.Int("queue_depth", 3),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO") {
		t.Errorf("expected level label, got %q", line)
	}
	if !strings.Contains(line, "instance stored") {
		t.Errorf("expected message, got %q", line)
	}
	if !strings.Contains(line, "instance_uid=1.2.840.1") {
		t.Errorf("expected instance_uid attr, got %q", line)
	}
	if !strings.Contains(line, "queue_depth=3") {
		t.Errorf("expected queue_depth attr, got %q", line)
	}
}

func TestNewConsoleQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("received", logging.String("patient_name", "DOE JOHN"))
	if !strings.Contains(buf.String(), `patient_name="DOE JOHN"`) {
		t.Errorf("expected quoted value, got %q", buf.String())
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn record should be emitted: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("relay complete", logging.Bool("success", true))
	if !strings.Contains(buf.String(), `"success":true`) {
		t.Errorf("expected JSON attr, got %q", buf.String())
	}
}

func TestNewComponentLoggerNilBase(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "worker")
	// Must not panic and must swallow output.
	logger.Info("noop")
}
