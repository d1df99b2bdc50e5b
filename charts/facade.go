// charts/facade.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"net/http"
	"sort"

	"github.com/brunoga/deep"
)

// C6: the request facade. Every exported method here returns promptly:
// it acquires db.mu, does O(log n) or O(n) in-memory work, may enqueue
// work for the background worker, and returns without touching the
// network, disk, or a subprocess (§4.7, §5). The exceptions are the
// provider hooks called synchronously: LazyDiscover on an airport lookup
// miss, TestConnection, and PendingExtAccountSetup; their cost is
// whatever the provider's implementation does.

// GetChartNames returns the names of charts at icao matching filter, in
// the provider's preferred order if it implements ChartNameComparator,
// otherwise insertion order. Returns an empty slice while the airport is
// still being lazily discovered.
func (db *Database) GetChartNames(icao string, filter ChartType) []string {
	db.mu.Lock()
	defer db.mu.Unlock()

	a := db.findAirportLocked(icao)
	if a == nil {
		return nil
	}
	if !a.discovered {
		db.dropPendingChartWorkLocked()
		db.enqueueAirportLocked(a)
		return nil
	}

	var names []string
	for _, name := range a.charts.Keys() {
		c, ok := a.charts.Get(name)
		if ok && c.Type.Matches(filter) {
			names = append(names, name)
		}
	}

	if cmp, ok := db.provider.(ChartNameComparator); ok {
		sort.Slice(names, func(i, j int) bool { return cmp.CompareChartNames(names[i], names[j]) < 0 })
	}
	return names
}

// GetChartSurface returns (ok, surfaceRef, numPages). ok is false only
// when the chart doesn't resolve or has a sticky load-error. A true
// result with a nil surfaceRef means the load is still pending; the
// caller is expected to poll again. zoom is clamped to [0.1, 10.0]
// before comparison against the chart's last-loaded parameters (§4.3,
// §8).
func (db *Database) GetChartSurface(icao, name string, page int, zoom float64, night bool) (bool, *SurfaceRef, int) {
	db.mu.Lock()
	defer db.mu.Unlock()

	a := db.findAirportLocked(icao)
	if a == nil {
		return false, nil, -1
	}
	c, ok := a.charts.Get(name)
	if !ok {
		return false, nil, -1
	}
	if c.loadError != nil {
		return false, nil, c.numPages
	}

	zoom = clampZoom(zoom)

	paramsMatch := c.surface != nil && c.curPage == page && c.zoom == zoom && c.nightPrev == night
	if !paramsMatch && !c.queued {
		c.loadPage = page
		c.zoom = zoom
		c.night = night
		db.dropPendingChartWorkLocked()
		db.enqueueChartLocked(c)
	}

	if !paramsMatch || c.surface == nil {
		return true, nil, c.numPages
	}
	return true, c.surface.ref(), c.numPages
}

func clampZoom(z float64) float64 {
	if z < 0.1 {
		return 0.1
	}
	if z > 10.0 {
		return 10.0
	}
	return z
}

// GetChartCodename returns a copy of the chart's opaque provider token,
// or "" on error.
func (db *Database) GetChartCodename(icao, name string) string {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := db.findChartLocked(icao, name)
	if c == nil {
		return ""
	}
	return c.Codename
}

// GetChartType returns the chart's type, or ChartTypeUnknown on error.
func (db *Database) GetChartType(icao, name string) ChartType {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := db.findChartLocked(icao, name)
	if c == nil {
		return ChartTypeUnknown
	}
	return c.Type
}

// GetChartGeoRef returns a deep copy of the chart's geo-reference, or nil
// if the chart is absent, errored, or has none.
func (db *Database) GetChartGeoRef(icao, name string) *GeoRef {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := db.findChartLocked(icao, name)
	if c == nil || c.GeoRef == nil {
		return nil
	}
	cp, err := deep.Copy(c.GeoRef)
	if err != nil {
		return nil
	}
	return cp
}

// GetChartView returns a copy of the chart's named view regions, or nil.
func (db *Database) GetChartView(icao, name string) *Views {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := db.findChartLocked(icao, name)
	if c == nil || c.Views == nil {
		return nil
	}
	v := *c.Views
	return &v
}

// GetChartProcs returns a copy of the chart's linked ARINC-424 procedure
// names, or nil.
func (db *Database) GetChartProcs(icao, name string) []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := db.findChartLocked(icao, name)
	if c == nil || c.Procs == nil {
		return nil
	}
	out := make([]string, len(c.Procs))
	copy(out, c.Procs)
	return out
}

func (db *Database) findChartLocked(icao, name string) *Chart {
	a := db.findAirportLocked(icao)
	if a == nil {
		return nil
	}
	c, ok := a.charts.Get(name)
	if !ok || c.loadError != nil {
		return nil
	}
	return c
}

// GetAirportName, GetAirportCity, and GetAirportState return copies of
// the respective field, or "" if the airport is unknown.
func (db *Database) GetAirportName(icao string) string  { return db.airportField(icao, func(a *Airport) string { return a.Name }) }
func (db *Database) GetAirportCity(icao string) string  { return db.airportField(icao, func(a *Airport) string { return a.City }) }
func (db *Database) GetAirportState(icao string) string { return db.airportField(icao, func(a *Airport) string { return a.State }) }

func (db *Database) airportField(icao string, get func(*Airport) string) string {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := db.findAirportLocked(icao)
	if a == nil {
		return ""
	}
	return get(a)
}

// SetLoadLimit sets the LRU byte budget, raising it to MinLoadLimit if
// below that floor (§4.5, §8), and wakes the worker so it can
// re-evaluate eviction against the new budget.
func (db *Database) SetLoadLimit(bytes int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if bytes < MinLoadLimit {
		bytes = MinLoadLimit
	}
	db.lru.setBudget(bytes)
	db.cond.Broadcast()
}

// SetProxy updates the HTTP proxy used for weather traffic by replacing
// the core's HTTP client. The HTTPClient the provider received in
// ProviderEnv at Init is not changed and keeps the proxy configured at
// Open.
func (db *Database) SetProxy(proxyURL string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.proxy = proxyURL
	if proxyURL == "" {
		db.httpClient = &http.Client{}
	} else {
		db.httpClient = proxiedClient(proxyURL)
	}
}

// GetProxy returns the currently configured proxy URL, or "" if none.
func (db *Database) GetProxy() string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.proxy
}

// Purge drops pending chart work and enqueues an LRU purge, asynchronously
// discarding every evictable surface and payload. Naming entries survive.
func (db *Database) Purge() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.enqueuePurgeLocked()
}

// IsReady reports whether the provider has finished its initial
// discovery pass. Open does not return until Init completes, so once a
// Database exists this is always true; it exists to mirror the C
// original's API surface for callers migrating from it.
func (db *Database) IsReady() bool {
	return true
}

// TestConnection delegates to the provider's ConnectionTester hook, if it
// implements one; providers without a meaningful connectivity check
// always report success (§6.1).
func (db *Database) TestConnection(creds Credentials, proxy string) bool {
	if ct, ok := db.provider.(ConnectionTester); ok {
		return ct.TestConnection(creds, proxy)
	}
	return true
}

// PendingExtAccountSetup reports whether the provider has an outstanding
// out-of-band authentication step (e.g. a device-code flow awaiting
// completion in a browser).
func (db *Database) PendingExtAccountSetup() bool {
	db.mu.Lock()
	p := db.provider
	db.mu.Unlock()
	if pa, ok := p.(PendingAccountSetuper); ok {
		return pa.PendingExtAccountSetup(db)
	}
	return false
}
