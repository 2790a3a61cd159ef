package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
}

func TestMissingSkipsOptional(t *testing.T) {
	statuses := []Status{
		{Name: "a", Available: false},
		{Name: "b", Available: false, Optional: true},
		{Name: "c", Available: true},
	}
	missing := Missing(statuses)
	if len(missing) != 1 || missing[0].Name != "a" {
		t.Fatalf("unexpected missing set: %#v", missing)
	}
}

func TestRequirementsCoverDCMTKTools(t *testing.T) {
	names := map[string]bool{}
	for _, req := range Requirements() {
		names[req.Command] = true
	}
	for _, want := range []string{"storescp", "echoscu", "findscu", "movescu"} {
		if !names[want] {
			t.Fatalf("expected requirement for %s", want)
		}
	}
}
