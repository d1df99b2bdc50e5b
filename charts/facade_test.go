// charts/facade_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"testing"
	"time"
)

// waitFor polls fn until it returns true or the deadline passes, giving
// the background worker a chance to catch up without a fixed sleep.
func waitFor(t *testing.T, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !fn() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for worker to catch up")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestColdFetchSurfaceBecomesReady(t *testing.T) {
	db := openTestDB(t, newFakeProvider(true), false)

	names := db.GetChartNames("KXYZ", ChartTypeAll)
	if len(names) != 2 {
		t.Fatalf("expected 2 eagerly-discovered charts, got %v", names)
	}

	ok, ref, _ := db.GetChartSurface("KXYZ", "10-9", 0, 1.0, false)
	if !ok {
		t.Fatal("GetChartSurface should resolve the chart")
	}
	if ref != nil {
		ref.Release()
		t.Fatal("first call should not already have a surface resident")
	}

	var surf *SurfaceRef
	waitFor(t, func() bool {
		ok, surf, _ = db.GetChartSurface("KXYZ", "10-9", 0, 1.0, false)
		return ok && surf != nil
	})
	defer surf.Release()

	s := surf.Surface()
	if s.Width != 4 || s.Height != 4 {
		t.Errorf("surface = %dx%d, want 4x4", s.Width, s.Height)
	}
}

func TestNightSwitchInvertsColors(t *testing.T) {
	db := openTestDB(t, newFakeProvider(true), false)

	var day *SurfaceRef
	waitFor(t, func() bool {
		_, day, _ = db.GetChartSurface("KXYZ", "10-9", 0, 1.0, false)
		return day != nil
	})
	dayPix := append([]byte(nil), day.Surface().Pix...)
	day.Release()

	var night *SurfaceRef
	waitFor(t, func() bool {
		_, night, _ = db.GetChartSurface("KXYZ", "10-9", 0, 1.0, true)
		return night != nil
	})
	defer night.Release()
	nightPix := night.Surface().Pix

	for i := 0; i+3 < len(dayPix); i += 4 {
		for ch := 0; ch < 3; ch++ {
			want := byte(255 - dayPix[i+ch])
			if nightPix[i+ch] != want {
				t.Fatalf("pixel byte %d = %d, want %d (255-daytime)", i+ch, nightPix[i+ch], want)
			}
		}
		if nightPix[i+3] != dayPix[i+3] {
			t.Fatalf("alpha byte %d changed by night inversion", i+3)
		}
	}
}

func TestGetChartSurfaceUnknownChart(t *testing.T) {
	db := openTestDB(t, newFakeProvider(true), false)
	ok, ref, _ := db.GetChartSurface("KXYZ", "no-such-chart", 0, 1.0, false)
	if ok || ref != nil {
		t.Error("unknown chart name should report not-found")
	}
}

func TestLoadErrorIsSticky(t *testing.T) {
	p := newFakeProvider(true)
	p.failFetches = true
	db := openTestDB(t, p, false)

	waitFor(t, func() bool {
		ok, ref, _ := db.GetChartSurface("KXYZ", "10-9", 0, 1.0, false)
		if ref != nil {
			ref.Release()
		}
		return !ok
	})

	p.mu.Lock()
	before := p.fetchCount["KXYZ/10-9"]
	p.mu.Unlock()

	ok, ref, _ := db.GetChartSurface("KXYZ", "10-9", 0, 1.0, false)
	if ok || ref != nil {
		t.Error("a sticky load-error should keep reporting failure")
	}

	p.mu.Lock()
	after := p.fetchCount["KXYZ/10-9"]
	p.mu.Unlock()
	if after != before {
		t.Error("a sticky load-error must not re-enter the fetch queue")
	}
}

func TestPurgeThenReloadIsIdempotent(t *testing.T) {
	db := openTestDB(t, newFakeProvider(true), false)

	var first *SurfaceRef
	waitFor(t, func() bool {
		_, first, _ = db.GetChartSurface("KXYZ", "10-9", 0, 1.0, false)
		return first != nil
	})
	firstPix := append([]byte(nil), first.Surface().Pix...)
	first.Release()

	db.Purge()

	waitFor(t, func() bool {
		ok, ref, _ := db.GetChartSurface("KXYZ", "10-9", 0, 1.0, false)
		if ref != nil {
			ref.Release()
		}
		// The purge drops the surface but not the naming entry: the
		// chart must remain resolvable by name throughout.
		return ok
	})

	var second *SurfaceRef
	waitFor(t, func() bool {
		_, second, _ = db.GetChartSurface("KXYZ", "10-9", 0, 1.0, false)
		return second != nil
	})
	defer second.Release()

	secondPix := second.Surface().Pix
	if len(firstPix) != len(secondPix) {
		t.Fatalf("pixel buffer length changed across purge: %d vs %d", len(firstPix), len(secondPix))
	}
	for i := range firstPix {
		if firstPix[i] != secondPix[i] {
			t.Fatalf("byte %d differs after purge+reload: %d vs %d", i, firstPix[i], secondPix[i])
		}
	}
}

func TestZoomClamping(t *testing.T) {
	if got := clampZoom(0.01); got != 0.1 {
		t.Errorf("clampZoom(0.01) = %v, want 0.1", got)
	}
	if got := clampZoom(50.0); got != 10.0 {
		t.Errorf("clampZoom(50.0) = %v, want 10.0", got)
	}
	if got := clampZoom(2.5); got != 2.5 {
		t.Errorf("clampZoom(2.5) = %v, want 2.5", got)
	}
}

func TestSetLoadLimitFloor(t *testing.T) {
	db := openTestDB(t, newFakeProvider(true), false)
	db.SetLoadLimit(1024)
	db.mu.Lock()
	budget := db.lru.budget
	db.mu.Unlock()
	if budget != MinLoadLimit {
		t.Errorf("budget = %d, want floor %d", budget, MinLoadLimit)
	}
}
