// charts/weather.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"time"
)

// weatherKind distinguishes the two independently-aged text products a
// airport caches (§4.8). The C original shares a single sentinel type
// between them; here they're the symmetric Metar/Taf tagged variant
// called for by §9 design note #1.
type weatherKind int

const (
	weatherMETAR weatherKind = iota
	weatherTAF
)

const (
	metarMaxAge         = 60 * time.Second
	tafMaxAge           = 300 * time.Second
	weatherRetry        = 30 * time.Second
	weatherFetchTimeout = 10 * time.Second
)

func (k weatherKind) maxAge() time.Duration {
	if k == weatherTAF {
		return tafMaxAge
	}
	return metarMaxAge
}

func (k weatherKind) cache(a *Airport) *weatherCache {
	if k == weatherTAF {
		return &a.taf
	}
	return &a.metar
}

// GetMETAR returns the most recently cached METAR text for icao, or ""
// if the airport is unknown or nothing has been fetched yet. A stale or
// missing value triggers an asynchronous refresh (§4.8), no sooner than
// roughly weatherRetry after a failed attempt; callers are expected to
// poll again shortly.
func (db *Database) GetMETAR(icao string) string {
	return db.getWeather(icao, weatherMETAR)
}

// GetTAF is GetMETAR's symmetric counterpart for TAF text.
func (db *Database) GetTAF(icao string) string {
	return db.getWeather(icao, weatherTAF)
}

func (db *Database) getWeather(icao string, kind weatherKind) string {
	db.mu.Lock()
	defer db.mu.Unlock()

	a := db.findAirportLocked(icao)
	if a == nil {
		return ""
	}

	wc := kind.cache(a)
	fresh := !wc.fetched.IsZero() && time.Since(wc.fetched) < kind.maxAge()
	if !fresh {
		if kind == weatherTAF {
			db.enqueueTafLocked(a)
		} else {
			db.enqueueMetarLocked(a)
		}
	}
	return wc.text
}

// runWeatherRefreshLocked performs the worker-side refresh for one
// airport/kind pair (§4.8, called from workerLoop). The timestamp is
// stamped to "now" before the lock is dropped, so a concurrent GetMETAR/
// GetTAF call sees the fetch as already in flight rather than enqueuing a
// second one; on failure the timestamp is rewound so the next call's
// freshness check comes due after roughly the retry interval rather than
// the full max-age window. Caller must hold db.mu.
func (db *Database) runWeatherRefreshLocked(a *Airport, kind weatherKind) {
	wc := kind.cache(a)
	now := time.Now()
	wc.fetched = now

	fetch := db.weatherFetch
	db.mu.Unlock()
	text, err := fetch(a.ICAO, kind)
	db.mu.Lock()

	if kind == weatherTAF {
		a.tafQueued = false
	} else {
		a.metarQueued = false
	}

	if err != nil || text == "" {
		db.lg.Warnf("%s: weather refresh failed: %v", a.ICAO, err)
		wc.fetched = now.Add(weatherRetry - kind.maxAge())
		return
	}

	wc.text = text
	wc.haveAny = true
	wc.fetched = now
}

// rawTextDoc matches the <response><data><METAR|TAF><raw_text> shape of
// the public aviation weather data server's XML format; only the one
// field this package needs is pulled out.
type rawTextDoc struct {
	Data struct {
		Items []struct {
			RawText string `xml:"raw_text"`
		} `xml:",any"`
	} `xml:"data"`
}

// fetchWeather downloads and extracts the raw text element for one
// airport from the fixed public weather endpoint (§4.8). The request
// uses the database's plain HTTP client (proxy-aware, but carrying no
// provider credentials): weather fetches are explicitly not
// authenticated against the chart provider.
func (db *Database) fetchWeather(icao string, kind weatherKind) (string, error) {
	endpoint := "https://aviationweather.gov/api/data/metar"
	if kind == weatherTAF {
		endpoint = "https://aviationweather.gov/api/data/taf"
	}

	ctx, cancel := context.WithTimeout(context.Background(), weatherFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	q := req.URL.Query()
	q.Set("ids", icao)
	q.Set("format", "xml")
	req.URL.RawQuery = q.Encode()

	client := db.httpClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrFetchFailed
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var doc rawTextDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", err
	}
	if len(doc.Data.Items) == 0 {
		return "", nil
	}
	return doc.Data.Items[0].RawText, nil
}
