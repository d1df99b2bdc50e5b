// charts/weather_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"testing"
	"time"
)

func TestWeatherFreshnessAndRefresh(t *testing.T) {
	db := openTestDB(t, newFakeProvider(true), false)

	calls := 0
	db.mu.Lock()
	db.weatherFetch = func(icao string, kind weatherKind) (string, error) {
		calls++
		return "METAR " + icao + " 00000KT", nil
	}
	db.mu.Unlock()

	// t=0: nothing cached yet, so the first call enqueues and returns "".
	if got := db.GetMETAR("KXYZ"); got != "" {
		t.Fatalf("first call should return empty before any fetch completes, got %q", got)
	}

	var text string
	deadline := time.Now().Add(2 * time.Second)
	for {
		text = db.GetMETAR("KXYZ")
		if text != "" || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if text == "" {
		t.Fatal("timed out waiting for the worker to populate the METAR cache")
	}

	// A call immediately afterward must be served from cache, not
	// trigger a second fetch.
	callsBefore := calls
	db.GetMETAR("KXYZ")
	if calls != callsBefore {
		t.Error("a fresh cached value should not trigger a re-fetch")
	}
}

func TestWeatherRefreshFailureRewindsForRetry(t *testing.T) {
	db := openTestDB(t, newFakeProvider(true), false)
	a := db.AddAirport("KFAIL", "Fail Field", "", "")

	db.mu.Lock()
	db.weatherFetch = func(icao string, kind weatherKind) (string, error) {
		return "", ErrFetchFailed
	}
	before := time.Now()
	db.runWeatherRefreshLocked(a, weatherMETAR)
	after := a.metar.fetched
	db.mu.Unlock()

	// On failure the timestamp should be rewound so the freshness check
	// comes due again after roughly the retry interval, not the full
	// max-age window.
	wantApprox := before.Add(weatherRetry - metarMaxAge)
	if d := after.Sub(wantApprox); d < -time.Second || d > time.Second {
		t.Errorf("fetched timestamp = %v, want approximately %v", after, wantApprox)
	}
	if a.metar.haveAny {
		t.Error("a failed fetch must not mark haveAny")
	}
	if a.metarQueued {
		t.Error("metarQueued should be cleared once the refresh attempt completes")
	}
}

func TestGetMETARUnknownAirport(t *testing.T) {
	db := openTestDB(t, newFakeProvider(true), false)
	if got := db.GetMETAR("KNOPE"); got != "" {
		t.Errorf("unknown airport should return empty METAR, got %q", got)
	}
}
