// charts/postprocess_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import "testing"

func TestInvertNightLeavesAlphaAlone(t *testing.T) {
	s := Surface{
		Width: 2, Height: 1, Stride: 2,
		Pix: []byte{10, 20, 30, 255, 200, 150, 100, 128},
	}
	invertNight(&s)

	want := []byte{245, 235, 225, 255, 55, 105, 155, 128}
	for i := range want {
		if s.Pix[i] != want[i] {
			t.Errorf("Pix[%d] = %d, want %d", i, s.Pix[i], want[i])
		}
	}
}

func TestInvertNightNilSafe(t *testing.T) {
	invertNight(nil) // must not panic
}

type watermarkProvider struct{ called bool }

func (w *watermarkProvider) Name() string                       { return "wm" }
func (w *watermarkProvider) Init(*Database, ProviderEnv) error { return nil }
func (w *watermarkProvider) Fini(*Database)                     {}
func (w *watermarkProvider) GetChart(*Chart) error               { return nil }
func (w *watermarkProvider) AllowsDiskCache() bool               { return false }
func (w *watermarkProvider) ArtifactLayout() Layout              { return LayoutFlat }
func (w *watermarkProvider) Watermark(*Chart, *Surface)          { w.called = true }

func TestApplyWatermarkOptional(t *testing.T) {
	wp := &watermarkProvider{}
	s := Surface{}
	applyWatermark(wp, &Chart{}, &s)
	if !wp.called {
		t.Error("Watermark hook should have been invoked")
	}
}
