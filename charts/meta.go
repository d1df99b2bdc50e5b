// charts/meta.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"os"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// chartMeta is the on-disk representation of the provider-populated
// fields a chart doesn't strictly need a re-fetch to recover: GeoRef,
// Views, and Procs. Without persisting these, a restart would keep the
// raster artifact on disk but lose the geo-referencing that made it
// useful, forcing a re-fetch purely for metadata (§1 SUPPLEMENTED
// FEATURES: sidecar metadata persistence).
type chartMeta struct {
	GeoRef *GeoRef
	Views  *Views
	Procs  []string
}

func metaSidecarPath(artifactPath string) string {
	ext := ""
	if i := strings.LastIndexByte(artifactPath, '.'); i >= 0 {
		ext = artifactPath[i:]
	}
	return strings.TrimSuffix(artifactPath, ext) + ".meta.msgpack"
}

func writeChartMeta(artifactPath string, c *Chart) error {
	if c.GeoRef == nil && c.Views == nil && len(c.Procs) == 0 {
		return nil
	}
	m := chartMeta{GeoRef: c.GeoRef, Views: c.Views, Procs: c.Procs}
	b, err := msgpack.Marshal(&m)
	if err != nil {
		return err
	}
	return os.WriteFile(metaSidecarPath(artifactPath), b, 0o644)
}

// loadChartMeta populates c's GeoRef/Views/Procs from a sidecar file if
// one exists and the chart doesn't already carry these fields (a fresh
// provider fetch always takes priority over the cached sidecar). Caller
// must hold db.mu: it mutates fields the facade reads under lock.
func loadChartMeta(artifactPath string, c *Chart) {
	if c.GeoRef != nil || c.Views != nil || len(c.Procs) != 0 {
		return
	}
	b, err := os.ReadFile(metaSidecarPath(artifactPath))
	if err != nil {
		return
	}
	var m chartMeta
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return
	}
	c.GeoRef = m.GeoRef
	c.Views = m.Views
	c.Procs = m.Procs
}
