package lso

import (
	"bytes"
	"path/filepath"
	"testing"

	goccy "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/chazu/kestrel/vm"
)

func openTemp(t *testing.T) *Library {
	t.Helper()
	lib, err := Open(filepath.Join(t.TempDir(), "lso.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"prefs", true},
		{"game/save1", true},
		{"", false},
		{"high score", false},
		{"a;b", false},
		{"what?", false},
	}
	for _, tt := range tests {
		if got := ValidName(tt.name); got != tt.want {
			t.Errorf("ValidName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFlushAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lso.db")
	lib, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	v := vm.NewVM(8, &vm.ManualClock{})
	so, err := lib.GetLocal(v, "prefs", "/games/")
	if err != nil {
		t.Fatalf("GetLocal: %v", err)
	}
	data := so.Data()
	data.Set("volume", vm.Number(0.5))
	data.Set("player", vm.String("ada"))
	data.Set("muted", vm.False)
	nested := v.NewObject()
	nested.Set("level", vm.Int(3))
	data.Set("progress", vm.ObjectValue(nested))
	data.Set("onSync", vm.ObjectValue(v.NewFunction(func(fn *vm.FnCall) vm.Value { return vm.Undefined })))

	if err := lib.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lib, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer lib.Close()

	v2 := vm.NewVM(8, &vm.ManualClock{})
	so2, err := lib.GetLocal(v2, "prefs", "/games/")
	if err != nil {
		t.Fatalf("GetLocal after reopen: %v", err)
	}
	got := ToPlain(so2.Data())
	want := map[string]any{
		"muted":    false,
		"player":   "ada",
		"progress": map[string]any{"level": 3.0},
		"volume":   0.5,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reloaded data mismatch (-want +got):\n%s", diff)
	}
}

func TestGetLocalReturnsSameObject(t *testing.T) {
	lib := openTemp(t)
	v := vm.NewVM(8, &vm.ManualClock{})
	a, err := lib.GetLocal(v, "prefs", "/")
	if err != nil {
		t.Fatalf("GetLocal: %v", err)
	}
	b, _ := lib.GetLocal(v, "prefs", "/")
	if a != b {
		t.Errorf("second GetLocal returned a different object")
	}
	other, _ := lib.GetLocal(v, "prefs", "/other/")
	if other == a {
		t.Errorf("different roots share an object")
	}
	if _, err := lib.GetLocal(v, "bad name", "/"); err == nil {
		t.Errorf("GetLocal accepted an invalid name")
	}
}

func TestCircularReferencesAreCut(t *testing.T) {
	v := vm.NewVM(8, &vm.ManualClock{})
	a := v.NewObject()
	b := v.NewObject()
	a.Set("b", vm.ObjectValue(b))
	a.Set("name", vm.String("a"))
	b.Set("a", vm.ObjectValue(a))

	want := map[string]any{
		"b":    map[string]any{},
		"name": "a",
	}
	if diff := cmp.Diff(want, ToPlain(a)); diff != "" {
		t.Errorf("plain form mismatch (-want +got):\n%s", diff)
	}
	if _, err := Encode(a); err != nil {
		t.Errorf("Encode: %v", err)
	}
}

func TestClearDeletesRecord(t *testing.T) {
	lib := openTemp(t)
	v := vm.NewVM(8, &vm.ManualClock{})
	so, _ := lib.GetLocal(v, "prefs", "/")
	so.Data().Set("x", vm.Int(1))
	if err := so.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := so.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if names := so.Data().EnumerateNames(); len(names) != 0 {
		t.Errorf("data still has %v", names)
	}
	if _, err := lib.Load("prefs", "/"); err != ErrNotFound {
		t.Errorf("Load after Clear: err = %v, want ErrNotFound", err)
	}
}

func TestListAndExport(t *testing.T) {
	lib := openTemp(t)
	v := vm.NewVM(8, &vm.ManualClock{})
	for _, k := range []struct{ name, root string }{{"b", "/x/"}, {"a", "/x/"}, {"c", "/"}} {
		so, err := lib.GetLocal(v, k.name, k.root)
		if err != nil {
			t.Fatalf("GetLocal: %v", err)
		}
		so.Data().Set("id", vm.String(k.root+k.name))
	}
	if err := lib.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	entries, err := lib.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Root+e.Name)
		if e.Size == 0 {
			t.Errorf("%s%s has size 0", e.Root, e.Name)
		}
	}
	if diff := cmp.Diff([]string{"/c", "/x/a", "/x/b"}, got); diff != "" {
		t.Errorf("List order mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := lib.ExportJSON(&buf, "a", "/x/"); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	var one map[string]any
	if err := goccy.Unmarshal(buf.Bytes(), &one); err != nil {
		t.Fatalf("exported JSON does not parse: %v\n%s", err, buf.String())
	}
	if one["id"] != "/x/a" {
		t.Errorf("exported id = %v, want /x/a", one["id"])
	}

	buf.Reset()
	if err := lib.ExportJSON(&buf, "", ""); err != nil {
		t.Fatalf("ExportJSON all: %v", err)
	}
	var all map[string]map[string]any
	if err := goccy.Unmarshal(buf.Bytes(), &all); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if len(all) != 3 || all["/c"]["id"] != "/c" {
		t.Errorf("export of all records = %v", all)
	}
}

func TestDataSurvivesCollection(t *testing.T) {
	lib := openTemp(t)
	v := vm.NewVM(8, &vm.ManualClock{})
	v.Collector().AddRoot(lib)
	so, _ := lib.GetLocal(v, "prefs", "/")
	inner := v.NewObject()
	so.Data().Set("inner", vm.ObjectValue(inner))

	v.Collector().Collect()
	if !so.Data().Reachable() || !inner.Reachable() {
		t.Errorf("shared object data was not marked")
	}
}
