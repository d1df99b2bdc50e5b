// charts/types.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"sync/atomic"
	"time"

	"github.com/mmp/vicecharts/internal/util"
)

// ChartType is a bitmask so that query filters (e.g. "all approach
// charts") can be expressed as a bitwise OR and matched with a bitwise
// AND against a chart's own (single) type.
type ChartType uint16

const (
	ChartTypeAirportDiagram ChartType = 1 << iota
	ChartTypeApproach
	ChartTypeDeparture
	ChartTypeObstacleDeparture
	ChartTypeArrival
	ChartTypeMinimums
	ChartTypeAirportInfo
	ChartTypeUnknown

	ChartTypeAll = ChartTypeAirportDiagram | ChartTypeApproach | ChartTypeDeparture |
		ChartTypeObstacleDeparture | ChartTypeArrival | ChartTypeMinimums |
		ChartTypeAirportInfo | ChartTypeUnknown
)

// Matches reports whether the chart's type intersects the given filter
// mask (an empty filter matches nothing, per §4.7's query-filter semantics).
func (t ChartType) Matches(filter ChartType) bool {
	return t&filter != 0
}

// GeoRefPoint is one half of a pixel<->geographic correspondence.
type GeoRefPoint struct {
	PixelX, PixelY int
	Lat, Lon       float64
}

// Rect is an axis-aligned pixel rectangle, used both for georef invalid
// insets and for the chart view regions.
type Rect struct {
	X0, Y0, X1, Y1 int
}

// MaxInvalidRects is the cap on georef invalid-inset rectangles (§3).
const MaxInvalidRects = 16

// MaxProcs is the cap on ARINC-424 procedure names linked to a chart (§3).
const MaxProcs = 24

// GeoRef is the optional pixel<->geographic correspondence for a chart,
// plus regions of the chart where that correspondence does not hold
// (insets, legend boxes, etc).
type GeoRef struct {
	P0, P1       GeoRefPoint
	InvalidRects []Rect // len() <= MaxInvalidRects
}

// Views holds the four named regions the avionics caller may want to crop
// to independently of the full chart image.
type Views struct {
	Header, PlanView, Profile, Minimums Rect
}

// Surface is a decoded pixel buffer: Stride pixels per row, Height rows,
// 4 bytes per pixel (RGBA order; night inversion treats it as RGB-with-
// alpha per §4.9 and leaves the alpha channel alone).
type Surface struct {
	Width, Height, Stride int
	Pix                   []byte
}

// ByteCost is the number of bytes this surface contributes to the LRU
// byte budget (§4.5): stride * height * 4.
func (s *Surface) ByteCost() int64 {
	if s == nil {
		return 0
	}
	return int64(s.Stride) * int64(s.Height) * 4
}

///////////////////////////////////////////////////////////////////////////
// SurfaceRef: a refcounted strong reference to a Surface.

type sharedSurface struct {
	Surface
	refs atomic.Int32
}

func newSharedSurface(s Surface) *sharedSurface {
	ss := &sharedSurface{Surface: s}
	ss.refs.Store(1)
	return ss
}

// ref takes out an additional strong reference and returns a handle the
// new owner is responsible for releasing.
func (s *sharedSurface) ref() *SurfaceRef {
	s.refs.Add(1)
	return &SurfaceRef{s: s}
}

// dropOwn drops the core's own strong reference, e.g. on eviction or
// replacement; the pixel memory itself is only actually reclaimable once
// every outstanding SurfaceRef has also been released (the Go GC handles
// the actual reclamation once refs and all copies of the pointer are gone,
// but tracking refs still lets callers assert "am I the last reference").
func (s *sharedSurface) dropOwn() {
	s.refs.Add(-1)
}

// SurfaceRef is a scoped strong reference to a Chart's decoded Surface, as
// returned by Database.GetChartSurface. Callers must call Release when
// done; failing to do so only leaks the refcount bookkeeping; the
// underlying Surface is reclaimed by the garbage collector once nothing,
// core or caller, still holds a pointer to it.
type SurfaceRef struct {
	s        *sharedSurface
	released atomic.Bool
}

// Surface returns the pixel buffer this reference protects. It remains
// valid until Release is called.
func (r *SurfaceRef) Surface() *Surface {
	if r == nil || r.s == nil {
		return nil
	}
	return &r.s.Surface
}

// Release drops this strong reference. Safe to call more than once; only
// the first call has an effect.
func (r *SurfaceRef) Release() {
	if r == nil || r.s == nil {
		return
	}
	if r.released.CompareAndSwap(false, true) {
		r.s.dropOwn()
	}
}

///////////////////////////////////////////////////////////////////////////
// Airport

// Airport is identified by a 4-character ICAO code, unique within a
// Database. It owns an ordered set of Charts and caches the last METAR/TAF
// text fetched on its behalf.
type Airport struct {
	ICAO     string
	Name     string
	City     string
	State    string
	Codename string // opaque provider token

	// charts is the C1 per-airport ordered set, keyed by chart name.
	charts *util.OrderedMap[*Chart]

	// discovered is false until the provider has populated this
	// airport's chart list (eagerly at Init, or lazily on demand).
	discovered bool

	// inArptQueue suppresses duplicate enqueues into the
	// airport-expansion queue.
	inArptQueue bool

	// weather cache, protected by the owning Database's mutex.
	metar        weatherCache
	taf          weatherCache
	metarQueued  bool
	tafQueued    bool
}

type weatherCache struct {
	text    string
	haveAny bool
	fetched time.Time
}

// Chart is identified by an ICAO-scoped unique name. The naming/type/
// filename fields are set once by a provider during airport expansion and
// never mutated afterward; the remaining fields are mutable and protected
// by the owning Database's mutex.
type Chart struct {
	Name     string
	Airport  *Airport // stable back-reference for the chart's lifetime
	Type     ChartType
	Codename string // opaque provider token, may be empty

	Filename      string // provider-chosen on-disk artifact name
	FilenameNight string // "" unless the provider supplies distinct night art

	GeoRef *GeoRef // optional
	Views  *Views  // optional
	Procs  []string

	// loader is an optional custom loader callback for synthesized,
	// purely in-memory charts (§4.6 step 1); when set, the provider
	// fetch/decode pipeline is bypassed entirely.
	loader func(*Chart) (Surface, error)

	// --- mutable, protected by Database.mu below this line ---

	surface   *sharedSurface
	zoom      float64
	curPage   int
	loadPage  int
	numPages  int // -1 until known; monotonically set once
	loadError error
	night     bool
	nightPrev bool
	refreshed bool
	payload   []byte // zstd-compressed artifact bytes, held only when the provider forbids on-disk caching

	queued   bool // true while an entry for this chart sits in the loader queue
	inLRU    bool // true while resident in the LRU list
}

func newChart(a *Airport, name string, typ ChartType) *Chart {
	return &Chart{
		Name:     name,
		Airport:  a,
		Type:     typ,
		numPages: -1,
		zoom:     1.0,
	}
}

// NewChart constructs a chart for a provider to hand to Database.AddChart.
// The Airport back-reference is filled in by AddChart itself.
func NewChart(name string, typ ChartType) *Chart {
	return newChart(nil, name, typ)
}

// SetLoader installs a custom, purely in-memory surface loader on c,
// bypassing the provider fetch/disk/decode pipeline entirely (§4.6 step
// 1). Intended for providers that synthesize chart imagery rather than
// fetching it (e.g. a generated airport-diagram overlay).
func (c *Chart) SetLoader(fn func(*Chart) (Surface, error)) {
	c.loader = fn
}

// SetPayload installs data (the raw, uncompressed artifact bytes a
// GetChart call just fetched) as c's in-memory payload, compressing it
// before it counts against the LRU byte budget. This is how a
// disk-cache-forbidden provider (AllowsDiskCache() == false) satisfies
// its §6.3/§4.6 step 5 contract from outside the package.
func (c *Chart) SetPayload(data []byte) {
	c.payload = compressPayload(data)
}

// lruKey is the stable identifier used as the LRU cache key.
func (c *Chart) lruKey() string {
	return c.Airport.ICAO + "/" + c.Name
}
