// cmd/chartcache/main.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Command chartcache is a small developer harness around the charts
// package: it opens a database against a single configured provider,
// issues a handful of requests, and polls until they're ready or a
// timeout elapses. It is not meant to be the flight-sim avionics
// integration; it exists for interactively exercising the cache from a
// terminal during development, mirroring the flag-driven developer mode
// of the parent application's own main().
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/apenwarr/fixconsole"

	"github.com/mmp/vicecharts/charts"
	"github.com/mmp/vicecharts/charts/providers/demo"
)

var (
	cacheDir    = flag.String("cache", "chartcache-data", "on-disk cache root")
	airac       = flag.Int("airac", currentAIRAC(), "AIRAC cycle, e.g. 2407")
	proxy       = flag.String("proxy", "", "HTTP proxy URL")
	logLevel    = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir      = flag.String("logdir", "", "directory for rotated log files")
	icao        = flag.String("icao", "KXYZ", "airport to query")
	chartName   = flag.String("chart", "", "chart name to request a surface for; lists names if empty")
	pageCount   = flag.String("pdftool-pagecount", "", "absolute path to the PDF page-count tool")
	pdfRaster   = flag.String("pdftool-raster", "", "absolute path to the PDF rasterization tool")
	pollTimeout = flag.Duration("timeout", 10*time.Second, "how long to poll for a result before giving up")
)

func currentAIRAC() int {
	// Not a real AIRAC calendar computation; just a plausible-looking
	// default so -airac can be omitted during ad hoc testing.
	y := time.Now().Year() % 100
	return y*100 + 1
}

func main() {
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Fprintf(os.Stderr, "fixconsole: %v\n", err)
	}

	db, err := charts.Open(charts.Config{
		CacheRoot:        *cacheDir,
		AIRACCycle:       *airac,
		Provider:         demo.New(),
		Proxy:            *proxy,
		PDFPageCountTool: *pageCount,
		PDFRasterTool:    *pdfRaster,
		NormalizeNonICAO: true,
		LogLevel:         *logLevel,
		LogDir:           *logDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if *chartName == "" {
		names := pollNames(db, *icao)
		fmt.Printf("%s: %d chart(s): %v\n", *icao, len(names), names)
		return
	}

	surf, numPages := pollSurface(db, *icao, *chartName)
	if surf == nil {
		fmt.Printf("%s/%s: no surface (load-error or still pending past timeout)\n", *icao, *chartName)
		return
	}
	defer surf.Release()
	s := surf.Surface()
	fmt.Printf("%s/%s: %dx%d pixels, %d page(s)\n", *icao, *chartName, s.Width, s.Height, numPages)
}

func pollNames(db *charts.Database, icao string) []string {
	deadline := time.Now().Add(*pollTimeout)
	for {
		names := db.GetChartNames(icao, charts.ChartTypeAll)
		if len(names) > 0 || time.Now().After(deadline) {
			return names
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func pollSurface(db *charts.Database, icao, name string) (*charts.SurfaceRef, int) {
	deadline := time.Now().Add(*pollTimeout)
	for {
		ok, ref, numPages := db.GetChartSurface(icao, name, 0, 1.0, false)
		if !ok {
			return nil, numPages
		}
		if ref != nil || time.Now().After(deadline) {
			return ref, numPages
		}
		time.Sleep(100 * time.Millisecond)
	}
}
