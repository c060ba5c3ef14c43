package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunWithoutArgsPrintsUsage(t *testing.T) {
	t.Setenv("POKEROSTER_STORAGE_DRIVER", "memory")
	if err := run(nil); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	t.Setenv("POKEROSTER_STORAGE_DRIVER", "memory")
	err := run([]string{"bogus"})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"25", "6"})
	if err != nil || len(ids) != 2 || ids[0] != 25 || ids[1] != 6 {
		t.Fatalf("unexpected result %v %v", ids, err)
	}
	if _, err := parseIDs([]string{"25", "pikachu"}); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}

func TestImportCreateEvaluateExportFlow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("POKEROSTER_STORAGE_DRIVER", "sqlite")
	t.Setenv("POKEROSTER_SQLITE_PATH", filepath.Join(dir, "roster.db"))
	t.Setenv("POKEROSTER_BLOB_DRIVER", "fs")
	t.Setenv("POKEROSTER_BLOB_FS_ROOT", filepath.Join(dir, "blobs"))
	t.Setenv("POKEROSTER_EXPORT_TIMEOUT_SECONDS", "10")

	importPath := filepath.Join(dir, "catalog.json")
	catalog := `{
  "pages": [
    {"page": 0, "name": "pikachu", "url": "https://pokeapi.co/api/v2/pokemon/25/"},
    {"page": 0, "name": "charizard", "url": "https://pokeapi.co/api/v2/pokemon/6/"}
  ],
  "creatures": [
    {"id": 25, "name": "pikachu", "types": ["electric"], "stats": {"hp": 35, "attack": 55, "defense": 40, "speed": 90}},
    {"id": 6, "name": "charizard", "types": ["fire", "flying"], "stats": {"hp": 78, "attack": 84, "defense": 78, "speed": 100}}
  ]
}`
	if err := os.WriteFile(importPath, []byte(catalog), 0o644); err != nil {
		t.Fatalf("write import file: %v", err)
	}

	if err := run([]string{"import", importPath}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := run([]string{"create", "alpha", "25", "6"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := run([]string{"teams"}); err != nil {
		t.Fatalf("teams: %v", err)
	}
	if err := run([]string{"evaluate", "1"}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if err := run([]string{"export", "1"}); err != nil {
		t.Fatalf("export: %v", err)
	}

	exportsDir := filepath.Join(dir, "blobs", "exports", "team-1")
	entries, err := os.ReadDir(exportsDir)
	if err != nil {
		t.Fatalf("read exports dir: %v", err)
	}
	var artifacts int
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".meta") {
			artifacts++
		}
	}
	if artifacts != 2 {
		t.Fatalf("expected json and csv artifacts, found %d files in %s", artifacts, exportsDir)
	}
}

func TestRunImportRejectsMissingFile(t *testing.T) {
	t.Setenv("POKEROSTER_STORAGE_DRIVER", "memory")
	if err := run([]string{"import", filepath.Join(t.TempDir(), "absent.json")}); err == nil {
		t.Fatalf("expected error for missing import file")
	}
}
