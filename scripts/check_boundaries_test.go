package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSource(t *testing.T, path string, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCollectViolations(t *testing.T) {
	t.Chdir(t.TempDir())
	writeSource(t, "go.mod", "module example.com/app\n\ngo 1.24\n")
	writeSource(t, "contexts/gov/voting/application/ok.go", `package application

import (
	"context"

	"example.com/app/contexts/gov/voting/domain/entities"
	"example.com/app/contexts/gov/voting/ports"
	"example.com/app/contracts/events/v1"
)
`)
	writeSource(t, "contexts/gov/voting/application/bad.go", `package application

import (
	"example.com/app/contexts/gov/voting/adapters/memory"
	"example.com/app/internal/platform/db"
	"example.com/app/contexts/other/service/domain"
	"gorm.io/gorm"
)
`)
	writeSource(t, "contexts/gov/voting/adapters/memory/store.go", `package memory

import "gorm.io/gorm"
`)

	modulePath, err := readModulePath("go.mod")
	if err != nil || modulePath != "example.com/app" {
		t.Fatalf("unexpected module path %q: %v", modulePath, err)
	}

	violations := collectViolations("contexts", modulePath)
	rules := map[string]int{}
	for _, v := range violations {
		if v.File != "contexts/gov/voting/application/bad.go" {
			t.Fatalf("unexpected violation in %s: %+v", v.File, v)
		}
		rules[v.Rule]++
	}
	if rules["application must not import adapters"] != 1 {
		t.Fatalf("expected adapter import flagged, got %v", rules)
	}
	if rules["application must not import runtime infrastructure"] != 1 {
		t.Fatalf("expected infrastructure import flagged, got %v", rules)
	}
	if rules["cross-context imports are forbidden"] != 1 {
		t.Fatalf("expected cross-context import flagged, got %v", rules)
	}
	if rules["application import is outside explicit allowlist"] != 4 {
		t.Fatalf("expected 4 allowlist violations, got %v", rules)
	}
}
