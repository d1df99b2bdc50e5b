// charts/disk_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmp/vicecharts/log"
)

func TestChartPathLayouts(t *testing.T) {
	flat := chartPath("/cache", "faa", 2407, LayoutFlat, "KXYZ", "10-9.pdf")
	if want := filepath.Join("/cache", "faa", "2407", "10-9.pdf"); flat != want {
		t.Errorf("flat layout = %q, want %q", flat, want)
	}

	hier := chartPath("/cache", "autorouter", 2407, LayoutHierarchical, "KXYZ", "10-9.pdf")
	if want := filepath.Join("/cache", "autorouter", "2407", "KXYZ", "10-9.pdf"); hier != want {
		t.Errorf("hierarchical layout = %q, want %q", hier, want)
	}
}

func TestSweepObsoleteAIRACBoundaries(t *testing.T) {
	root := t.TempDir()
	provDir := filepath.Join(root, "faa")

	mk := func(name string, age time.Duration) {
		dir := filepath.Join(provDir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		old := time.Now().Add(-age)
		if err := os.Chtimes(dir, old, old); err != nil {
			t.Fatal(err)
		}
	}

	mk("0999", 60*24*time.Hour)  // below valid range: ignored regardless of age
	mk("2407", 60*24*time.Hour)  // == current: ignored (not strictly less)
	mk("2404", 60*24*time.Hour)  // obsolete and old enough: swept
	mk("2406", 1*time.Hour)      // obsolete but too fresh: kept

	lg := log.New("", t.TempDir())
	sweepObsoleteAIRAC(root, "faa", 2407, 30*24*time.Hour, lg)

	for _, name := range []string{"0999", "2407", "2406"} {
		if _, err := os.Stat(filepath.Join(provDir, name)); err != nil {
			t.Errorf("%s should have survived the sweep: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(provDir, "2404")); !os.IsNotExist(err) {
		t.Errorf("2404 should have been swept, stat err = %v", err)
	}
}

func TestSweepObsoleteAIRACMissingRoot(t *testing.T) {
	lg := log.New("", t.TempDir())
	// Must not panic or error loudly when the provider directory doesn't
	// exist yet (first run).
	sweepObsoleteAIRAC(t.TempDir(), "nonexistent", 2407, ObsoleteAIRACMaxAge, lg)
}
