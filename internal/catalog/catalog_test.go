package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultOrderAndLookup(t *testing.T) {
	c := Default()

	wantFirst := []string{"VISal", "VISam", "VISl", "VISp"}
	names := c.Names()
	if len(names) != 13 {
		t.Fatalf("Len() = %d, want 13", len(names))
	}
	for i, w := range wantFirst {
		if names[i] != w {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], w)
		}
	}

	id, ok := c.StructureID("VISp")
	if !ok || id != 385 {
		t.Errorf("StructureID(VISp) = %d, %v, want 385, true", id, ok)
	}

	area, ok := c.AreaByStructureID("312782574")
	if !ok || area != "VISli" {
		t.Errorf("AreaByStructureID(312782574) = %q, %v, want VISli, true", area, ok)
	}

	if _, ok := c.AreaByStructureID("999"); ok {
		t.Error("AreaByStructureID(999) matched, want no match")
	}

	primary, ok := c.PrimaryStructureID()
	if !ok || primary != "385" {
		t.Errorf("PrimaryStructureID() = %q, %v, want 385, true", primary, ok)
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]Area{{"VISp", 385}, {"VISp", 385}})
	if err == nil {
		t.Fatal("New() accepted a duplicate area name")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "areas.yaml")
	content := "- area: VISp\n  structure_id: 385\n- area: VISl\n  structure_id: 409\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := c.Names(); len(got) != 2 || got[0] != "VISp" || got[1] != "VISl" {
		t.Errorf("Names() = %v, want [VISp VISl]", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() succeeded on a missing file")
	}
}
