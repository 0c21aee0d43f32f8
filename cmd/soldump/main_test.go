package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goccy "github.com/goccy/go-json"

	"github.com/chazu/kestrel/lso"
	"github.com/chazu/kestrel/vm"
)

// setupDir writes a kestrel.toml and a database holding two records.
func setupDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	toml := "[shared-objects]\npath = \"saves.db\"\n\n[log]\nverbosity = 0\n"
	if err := os.WriteFile(filepath.Join(dir, "kestrel.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	lib, err := lso.Open(filepath.Join(dir, "saves.db"))
	if err != nil {
		t.Fatalf("lso.Open: %v", err)
	}
	v := vm.NewVM(8, &vm.ManualClock{})
	for _, name := range []string{"prefs", "scores"} {
		so, err := lib.GetLocal(v, name, "/game.swf")
		if err != nil {
			t.Fatalf("GetLocal: %v", err)
		}
		so.Data().Set("owner", vm.String(name))
	}
	if err := lib.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return dir
}

func TestList(t *testing.T) {
	dir := setupDir(t)
	cfg := filepath.Join(dir, "kestrel.toml")

	var buf bytes.Buffer
	if err := run(&buf, options{configPath: cfg, list: true}); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "ROOT") {
		t.Fatalf("listing:\n%s", buf.String())
	}
	if !strings.Contains(lines[1], "prefs") || !strings.Contains(lines[2], "scores") {
		t.Errorf("listing out of order:\n%s", buf.String())
	}

	buf.Reset()
	if err := run(&buf, options{configPath: cfg, list: true, asJSON: true}); err != nil {
		t.Fatalf("run -json: %v", err)
	}
	var entries []lso.Entry
	if err := goccy.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatalf("listing is not JSON: %v\n%s", err, buf.String())
	}
	if len(entries) != 2 || entries[0].Root != "/game.swf" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestExportAndDelete(t *testing.T) {
	dir := setupDir(t)
	cfg := filepath.Join(dir, "kestrel.toml")

	var buf bytes.Buffer
	if err := run(&buf, options{configPath: cfg, name: "scores", root: "/game.swf"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	var one map[string]any
	if err := goccy.Unmarshal(buf.Bytes(), &one); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if one["owner"] != "scores" {
		t.Errorf("exported %v", one)
	}

	if err := run(&buf, options{configPath: cfg, name: "scores", root: "/game.swf", remove: true}); err != nil {
		t.Fatalf("run -delete: %v", err)
	}
	buf.Reset()
	if err := run(&buf, options{configPath: cfg}); err != nil {
		t.Fatalf("run: %v", err)
	}
	var all map[string]map[string]any
	if err := goccy.Unmarshal(buf.Bytes(), &all); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if _, ok := all["/game.swfscores"]; ok || len(all) != 1 {
		t.Errorf("after delete: %v", all)
	}

	if err := run(&buf, options{configPath: cfg, remove: true}); err == nil {
		t.Errorf("-delete without -name succeeded")
	}
}

func TestMissingDatabase(t *testing.T) {
	err := run(&bytes.Buffer{}, options{dbPath: filepath.Join(t.TempDir(), "none.db"), list: true})
	if err == nil {
		t.Errorf("run succeeded without a database")
	}
}
