// charts/fake_provider_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
)

// fakeProvider is a minimal, deterministic Provider used across the
// package's tests: it serves one eagerly-discovered airport with a
// couple of charts, optionally fails GetChart, and writes real PNG
// bytes so the decode path gets exercised end-to-end.
type fakeProvider struct {
	mu          sync.Mutex
	allowDisk   bool
	failFetches bool
	fetchCount  map[string]int

	cacheRoot  string
	airacCycle int
}

func newFakeProvider(allowDisk bool) *fakeProvider {
	return &fakeProvider{allowDisk: allowDisk, fetchCount: map[string]int{}}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Init(db *Database, env ProviderEnv) error {
	p.cacheRoot = env.CacheRoot
	p.airacCycle = env.AIRACCycle

	a := db.AddAirport("KXYZ", "Test Field", "Testville", "XX")

	diagram := newChart(a, "10-9", ChartTypeAirportDiagram)
	diagram.Filename = "10-9.png"
	db.AddChart(a, diagram)

	approach := newChart(a, "ILS-18", ChartTypeApproach)
	approach.Filename = "ils18.png"
	db.AddChart(a, approach)

	return nil
}

func (p *fakeProvider) Fini(db *Database) {}

func (p *fakeProvider) GetChart(c *Chart) error {
	p.mu.Lock()
	p.fetchCount[c.lruKey()]++
	fail := p.failFetches
	p.mu.Unlock()

	if fail {
		return ErrFetchFailed
	}

	data := encodeSolidPNG(4, 4, 50, 120, 200)

	if !p.allowDisk {
		c.SetPayload(data)
		return nil
	}
	path := chartPath(p.cacheRoot, p.Name(), p.airacCycle, p.ArtifactLayout(), c.Airport.ICAO, c.Filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (p *fakeProvider) AllowsDiskCache() bool    { return p.allowDisk }
func (p *fakeProvider) ArtifactLayout() Layout   { return LayoutFlat }

func encodeSolidPNG(w, h int, r, g, b byte) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	c := color.RGBA{r, g, b, 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
