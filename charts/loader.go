// charts/loader.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// workKind tags a loader-queue entry. The C original encodes "purge",
// "fetch METAR", and "fetch TAF" as pointer-identity sentinels embedded
// in the database; here they're an explicit tagged variant instead
// (§9 design note #1).
type workKind int

const (
	workChart workKind = iota
	workPurge
	workMetar
	workTaf
)

type workItem struct {
	kind    workKind
	chart   *Chart
	airport *Airport
}

///////////////////////////////////////////////////////////////////////////
// Enqueue / jump-the-line

// enqueueChartLocked appends a chart load request unless one is already
// queued for this chart (the "loader-queue link active" check, §8's
// at-most-one-fetch-in-flight invariant). Caller must hold db.mu.
func (db *Database) enqueueChartLocked(c *Chart) {
	if c.queued {
		return
	}
	c.queued = true
	db.chartQueue = append(db.chartQueue, workItem{kind: workChart, chart: c})
	db.cond.Broadcast()
}

// dropPendingChartWorkLocked discards (does not dequeue/interrupt) every
// chart-load item still sitting in the queue, implementing "jump the
// line" as specified in §4.4/§5: already-dequeued (in-flight) work is
// never interrupted, only items still waiting are dropped. Weather and
// purge items are left in place; nothing in the facade ever asks to drop
// them (§4.7 only ever drains "pending chart work").
func (db *Database) dropPendingChartWorkLocked() {
	if len(db.chartQueue) == 0 {
		return
	}
	kept := db.chartQueue[:0]
	for _, item := range db.chartQueue {
		if item.kind == workChart {
			item.chart.queued = false
			continue
		}
		kept = append(kept, item)
	}
	db.chartQueue = kept
}

func (db *Database) enqueueAirportLocked(a *Airport) {
	if a.inArptQueue || a.discovered {
		return
	}
	a.inArptQueue = true
	db.arptQueue = append(db.arptQueue, a)
	db.cond.Broadcast()
}

func (db *Database) enqueuePurgeLocked() {
	db.dropPendingChartWorkLocked()
	if db.purgeQueued {
		return
	}
	db.purgeQueued = true
	db.chartQueue = append(db.chartQueue, workItem{kind: workPurge})
	db.cond.Broadcast()
}

func (db *Database) enqueueMetarLocked(a *Airport) {
	if a.metarQueued {
		return
	}
	a.metarQueued = true
	db.chartQueue = append(db.chartQueue, workItem{kind: workMetar, airport: a})
	db.cond.Broadcast()
}

func (db *Database) enqueueTafLocked(a *Airport) {
	if a.tafQueued {
		return
	}
	a.tafQueued = true
	db.chartQueue = append(db.chartQueue, workItem{kind: workTaf, airport: a})
	db.cond.Broadcast()
}

///////////////////////////////////////////////////////////////////////////
// Worker loop (§4.4, §5)

func (db *Database) workerLoop() {
	defer close(db.workerDone)

	db.mu.Lock()
	defer db.mu.Unlock()

	for {
		// Step 1: drain pending airport-expansion requests before any
		// chart work, per §5's cross-class ordering guarantee.
		for len(db.arptQueue) > 0 {
			a := db.arptQueue[0]
			db.arptQueue = db.arptQueue[1:]
			a.inArptQueue = false

			if loader, ok := db.provider.(LazyLoader); ok && !a.discovered {
				db.mu.Unlock()
				loader.LazyLoad(a)
				db.mu.Lock()
				a.discovered = true
			}
		}

		if len(db.chartQueue) == 0 {
			if db.closed {
				return
			}
			db.cond.Wait()
			continue
		}

		item := db.chartQueue[0]
		db.chartQueue = db.chartQueue[1:]

		switch item.kind {
		case workPurge:
			db.purgeQueued = false
			db.lru.clear(func(c *Chart) {
				db.releaseChartResidencyLocked(c)
			})

		case workMetar:
			db.runWeatherRefreshLocked(item.airport, weatherMETAR)

		case workTaf:
			db.runWeatherRefreshLocked(item.airport, weatherTAF)

		case workChart:
			item.chart.queued = false
			db.mu.Unlock()
			db.loadChartRecovering(item.chart)
			db.mu.Lock()

			db.lru.touch(item.chart)
			db.lru.evict(func(c *Chart) {
				db.releaseChartResidencyLocked(c)
			})
		}

		if db.closed {
			return
		}
	}
}

// releaseChartResidencyLocked drops a chart's surface and in-memory
// payload on eviction/purge. The naming entry is never touched (§4.5).
func (db *Database) releaseChartResidencyLocked(c *Chart) {
	if c.surface != nil {
		c.surface.dropOwn()
		c.surface = nil
	}
	c.payload = nil
}

///////////////////////////////////////////////////////////////////////////
// Surface load procedure (§4.6), run with the lock dropped.

// loadChartRecovering runs loadChart with a panic guard: a provider or
// codec bug takes down this one chart as a load-error rather than the
// worker goroutine itself (§7, "the worker thread is never allowed to
// exit on error").
func (db *Database) loadChartRecovering(c *Chart) {
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			db.lg.Errorf("%s/%s: panic in load: %v\n%s", c.Airport.ICAO, c.Name, r, stack)
			db.mu.Lock()
			c.loadError = fmt.Errorf("charts: panic during load: %v", r)
			db.mu.Unlock()
		}
	}()
	db.loadChart(c)
}

func (db *Database) loadChart(c *Chart) {
	db.mu.Lock()
	page, zoom, night := c.loadPage, c.zoom, c.night
	loader := c.loader
	db.mu.Unlock()

	if loader != nil {
		surf, err := loader(c)
		if err != nil {
			db.mu.Lock()
			c.loadError = err
			db.mu.Unlock()
			return
		}
		// A custom-supplied surface still gets night-inversion and
		// watermarking; only the fetch/disk/decode steps are skipped.
		if night && c.FilenameNight == "" {
			invertNight(&surf)
		}
		applyWatermark(db.provider, c, &surf)
		db.finishDecode(c, surf, page, night)
		return
	}

	allowDisk := db.provider.AllowsDiskCache()

	var artifactPath string
	if allowDisk {
		artifactPath = chartPath(db.cacheRoot, db.providerName, db.airacCycle, db.provider.ArtifactLayout(),
			c.Airport.ICAO, c.Filename)
	}

	needsFetch := db.chartNeedsGet(c, allowDisk, artifactPath, night)

	if needsFetch {
		db.mu.Lock()
		if allowDisk {
			c.refreshed = true
		}
		db.mu.Unlock()

		if err := db.provider.GetChart(c); err != nil {
			if allowDisk && fileExists(artifactPath) {
				db.lg.Warnf("%s/%s: fetch failed, falling back to stale cached artifact: %v",
					c.Airport.ICAO, c.Name, err)
			} else {
				db.lg.Errorf("%s/%s: fetch failed: %v", c.Airport.ICAO, c.Name, err)
				db.mu.Lock()
				c.loadError = fmt.Errorf("%w: %v", ErrFetchFailed, err)
				db.mu.Unlock()
				return
			}
		} else if allowDisk {
			db.mu.Lock()
			_ = writeChartMeta(artifactPath, c)
			db.mu.Unlock()
		}
	}

	db.mu.Lock()
	c.nightPrev = night
	db.mu.Unlock()

	var surf Surface
	var err error

	if !allowDisk {
		surf, err = decodePNGToSurface(decompressPayload(c.payload))
	} else if strings.EqualFold(filepath.Ext(artifactPath), ".pdf") {
		surf, err = db.loadPDFPage(c, artifactPath, page, zoom)
	} else {
		db.mu.Lock()
		loadChartMeta(artifactPath, c)
		db.mu.Unlock()
		var data []byte
		data, err = os.ReadFile(artifactPath)
		if err == nil {
			surf, err = decodePNGToSurface(data)
		}
	}

	if err != nil {
		db.mu.Lock()
		c.loadError = err
		db.mu.Unlock()
		return
	}

	if night && c.FilenameNight == "" {
		invertNight(&surf)
	}
	applyWatermark(db.provider, c, &surf)

	db.finishDecode(c, surf, page, night)
}

// finishDecode installs a freshly decoded surface under the lock
// (§4.6 step 9), dropping the chart's previous strong reference.
func (db *Database) finishDecode(c *Chart, surf Surface, page int, night bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if c.surface != nil {
		c.surface.dropOwn()
	}
	c.surface = newSharedSurface(surf)
	c.curPage = page
	c.nightPrev = night
	c.loadError = nil
}

// chartNeedsGet implements §4.6 step 2, resolving the open question in
// §9 by also testing night-mismatch in the caching-permitted branch (the
// spec's own recommended resolution): a provider that supplies distinct
// day/night artifacts needs a fresh GetChart call when the requested
// light mode no longer matches what's on disk, exactly as it already
// does in the caching-forbidden branch.
func (db *Database) chartNeedsGet(c *Chart, allowDisk bool, artifactPath string, night bool) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	nightSwitch := c.FilenameNight != "" && c.nightPrev != night

	if allowDisk {
		return !c.refreshed || !fileExists(artifactPath) || nightSwitch
	}
	return c.payload == nil || nightSwitch
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// loadPDFPage implements §4.6 step 6's PDF branch: count pages once
// (caching the result on the chart), rasterize the requested page, write
// the PNG to a sibling file, and decode the rasterized PNG bytes.
func (db *Database) loadPDFPage(c *Chart, pdfPath string, page int, zoom float64) (Surface, error) {
	if !db.pdfTools.available() {
		return Surface{}, ErrToolMissing
	}

	pdfData, err := os.ReadFile(pdfPath)
	if err != nil {
		return Surface{}, err
	}

	db.mu.Lock()
	numPages := c.numPages
	db.mu.Unlock()

	ctx := context.Background()

	if numPages == -1 {
		n, err := db.pdfTools.CountPages(ctx, pdfData)
		if err != nil || n <= 0 {
			return Surface{}, ErrPageCountFailed
		}
		db.mu.Lock()
		if c.numPages == -1 {
			c.numPages = n
		}
		numPages = c.numPages
		db.mu.Unlock()
	}

	png, err := db.pdfTools.Rasterize(ctx, pdfData, page, zoom)
	if err != nil {
		return Surface{}, err
	}

	rasterPath := pdfPath + ".page" + itoa(page) + ".png"
	_ = os.WriteFile(rasterPath, png, 0o644)
	db.mu.Lock()
	loadChartMeta(pdfPath, c)
	db.mu.Unlock()

	return decodePNGToSurface(png)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

///////////////////////////////////////////////////////////////////////////
// Payload compression (klauspost/compress/zstd) for caching-forbidden
// providers: the core holds the artifact only in memory, and it counts
// against the LRU byte budget, so compressing it here keeps that
// accounting honest for providers whose artifacts (often PDFs) don't
// already carry PNG-grade compression.

var zstdEncoder, _ = zstd.NewWriter(nil)
var zstdDecoder, _ = zstd.NewReader(nil)

func compressPayload(data []byte) []byte {
	if zstdEncoder == nil {
		return data
	}
	return zstdEncoder.EncodeAll(data, nil)
}

func decompressPayload(data []byte) []byte {
	if zstdDecoder == nil {
		return data
	}
	out, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return data
	}
	return out
}
