// charts/providers/demo/demo.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package demo implements charts.Provider with a single synthesized
// in-memory airport, for use by the cmd/chartcache developer harness. (The
// charts package's own tests use a separate fake provider.) It never
// touches the network or
// disk; every chart uses the custom-loader escape hatch (§4.6 step 1) to
// paint a flat color directly.
package demo

import (
	"github.com/mmp/vicecharts/charts"
)

// Provider is a Provider implementation with one fixed airport, KXYZ,
// and a couple of synthesized charts.
type Provider struct {
	db *charts.Database
}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string { return "demo" }

func (p *Provider) Init(db *charts.Database, env charts.ProviderEnv) error {
	p.db = db

	a := db.AddAirport("KXYZ", "Demo Field", "Anytown", "XX")
	db.AddChart(a, synthesizedChart(a, "10-9", charts.ChartTypeAirportDiagram, 200, 150, 64, 64, 64))
	db.AddChart(a, synthesizedChart(a, "ILS-18", charts.ChartTypeApproach, 300, 400, 32, 96, 32))
	return nil
}

func (p *Provider) Fini(db *charts.Database) {}

// GetChart is never called for these charts: every one of them carries a
// custom loader, so the core's fetch/disk/decode pipeline never engages
// it (§4.6 step 1). It's implemented to satisfy the interface and to
// make that contract explicit rather than leaving it a documented-only
// invariant.
func (p *Provider) GetChart(c *charts.Chart) error { return nil }

func (p *Provider) AllowsDiskCache() bool         { return false }
func (p *Provider) ArtifactLayout() charts.Layout { return charts.LayoutFlat }

// TestConnection always succeeds; the demo provider has nothing to
// authenticate against.
func (p *Provider) TestConnection(creds charts.Credentials, proxy string) bool { return true }

func synthesizedChart(a *charts.Airport, name string, typ charts.ChartType, w, h int, r, g, b byte) *charts.Chart {
	c := charts.NewChart(name, typ)
	c.SetLoader(func(*charts.Chart) (charts.Surface, error) {
		pix := make([]byte, w*h*4)
		for i := 0; i < w*h; i++ {
			pix[i*4+0] = r
			pix[i*4+1] = g
			pix[i*4+2] = b
			pix[i*4+3] = 255
		}
		return charts.Surface{Width: w, Height: h, Stride: w, Pix: pix}, nil
	})
	return c
}
