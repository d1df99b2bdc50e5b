// charts/index.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"github.com/mmp/vicecharts/internal/util"
)

// C1: the two-level naming index. Database.mu protects db.airports and
// every Airport's charts map; the *Locked methods assume the caller
// already holds that lock, while the exported methods take it themselves
// so that providers (which run with the lock dropped, per §5) can call
// them directly.

// AddAirport idempotently inserts an airport, returning the resident
// instance either way (§4.1).
func (db *Database) AddAirport(icao, name, city, state string) *Airport {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.addAirportLocked(icao, name, city, state)
}

func (db *Database) addAirportLocked(icao, name, city, state string) *Airport {
	if a, ok := db.airports.Get(icao); ok {
		return a
	}
	a := &Airport{
		ICAO:   icao,
		Name:   name,
		City:   city,
		State:  state,
		charts: util.NewOrderedMap[*Chart](),
	}
	db.airports.Set(icao, a)
	return a
}

// AddChart inserts chart into airport's set iff no chart with the same
// name is already present, and marks the airport discovered as a side
// effect. Returns whether the insert occurred.
func (db *Database) AddChart(a *Airport, c *Chart) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.addChartLocked(a, c)
}

func (db *Database) addChartLocked(a *Airport, c *Chart) bool {
	c.Airport = a
	ok := a.charts.SetIfAbsent(c.Name, c)
	a.discovered = true
	return ok
}

// FindAirport looks up an airport by ICAO code, optionally normalizing a
// 3-character US non-ICAO code by prepending "K" (§4.1). A code whose
// length is neither 3 nor 4 returns nil without a lookup. On a miss, the
// provider's optional lazy-discovery hook is consulted.
func (db *Database) FindAirport(icao string) *Airport {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.findAirportLocked(icao)
}

func (db *Database) findAirportLocked(icao string) *Airport {
	key := db.normalizeICAOLocked(icao)
	if key == "" {
		return nil
	}
	if a, ok := db.airports.Get(key); ok {
		return a
	}
	if ld, ok := db.provider.(LazyDiscoverer); ok {
		db.mu.Unlock()
		a := ld.LazyDiscover(db, key)
		db.mu.Lock()
		if a != nil {
			// The provider is expected to have called db.AddAirport
			// itself (which re-enters the lock independently); just
			// confirm it's resident under the normalized key.
			if resident, ok := db.airports.Get(key); ok {
				return resident
			}
			return a
		}
	}
	return nil
}

func (db *Database) normalizeICAOLocked(icao string) string {
	switch len(icao) {
	case 4:
		return icao
	case 3:
		if db.normalizeNonICAO {
			return "K" + icao
		}
		return ""
	default:
		return ""
	}
}

// FindChart composes FindAirport with an airport-local chart lookup.
func (db *Database) FindChart(icao, name string) *Chart {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := db.findAirportLocked(icao)
	if a == nil {
		return nil
	}
	c, _ := a.charts.Get(name)
	return c
}

// IsArptKnown reports whether icao resolves to a resident, discovered
// airport, without triggering lazy discovery or expansion.
func (db *Database) IsArptKnown(icao string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	key := db.normalizeICAOLocked(icao)
	if key == "" {
		return false
	}
	a, ok := db.airports.Get(key)
	return ok && a.discovered
}
