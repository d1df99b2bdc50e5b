// charts/index_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import "testing"

func openTestDB(t *testing.T, p Provider, normalizeNonICAO bool) *Database {
	t.Helper()
	db, err := Open(Config{
		CacheRoot:        t.TempDir(),
		AIRACCycle:       2407,
		Provider:         p,
		NormalizeNonICAO: normalizeNonICAO,
		LogDir:           t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestAddAirportIdempotent(t *testing.T) {
	db := openTestDB(t, newFakeProvider(true), false)

	a1 := db.AddAirport("KAAA", "First", "City", "ST")
	a2 := db.AddAirport("KAAA", "Second", "Other", "XY")
	if a1 != a2 {
		t.Fatal("AddAirport should return the same instance on a repeat insert")
	}
	if a1.Name != "First" {
		t.Errorf("name = %q, want original %q (idempotent insert must not overwrite)", a1.Name, "First")
	}
	if db.FindAirport("KAAA") != a1 {
		t.Error("FindAirport should resolve to the same instance")
	}
}

func TestAddChartRejectsDuplicateName(t *testing.T) {
	db := openTestDB(t, newFakeProvider(true), false)
	a := db.AddAirport("KBBB", "B", "C", "S")

	c1 := NewChart("10-9", ChartTypeAirportDiagram)
	if !db.AddChart(a, c1) {
		t.Fatal("first AddChart should succeed")
	}

	c2 := NewChart("10-9", ChartTypeApproach)
	if db.AddChart(a, c2) {
		t.Fatal("duplicate-named AddChart should be rejected")
	}
	if got := db.FindChart("KBBB", "10-9"); got != c1 {
		t.Error("the original chart must survive a rejected duplicate insert")
	}
}

func TestFindAirportICAONormalization(t *testing.T) {
	p := newFakeProvider(true)
	dbNorm := openTestDB(t, p, true)
	if dbNorm.FindAirport("XYZ") == nil {
		t.Error("3-char code should resolve via K-prefix normalization")
	}
	if dbNorm.FindAirport("KXYZ") == nil {
		t.Error("4-char code should resolve directly")
	}
	if dbNorm.FindAirport("XY") != nil {
		t.Error("2-char code should never resolve")
	}
	if dbNorm.FindAirport("KXYZZ") != nil {
		t.Error("5-char code should never resolve")
	}

	p2 := newFakeProvider(true)
	dbNoNorm := openTestDB(t, p2, false)
	if dbNoNorm.FindAirport("XYZ") != nil {
		t.Error("3-char code should not resolve when normalization is disabled")
	}
}
