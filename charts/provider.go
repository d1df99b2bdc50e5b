// charts/provider.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"net/http"

	"golang.org/x/oauth2"

	"github.com/mmp/vicecharts/log"
)

// Layout describes how a provider arranges chart artifacts on disk (§4.2).
type Layout int

const (
	// LayoutFlat stores all of a cycle's artifacts directly under the
	// AIRAC directory: <cache>/<provider>/<AIRAC>/<filename>.
	LayoutFlat Layout = iota
	// LayoutHierarchical nests artifacts one level deeper by ICAO:
	// <cache>/<provider>/<AIRAC>/<ICAO>/<filename>.
	LayoutHierarchical
)

// Credentials carries whatever a provider needs to authenticate. Username/
// Password cover simple providers (e.g. webdav-style logins); TokenSource
// covers OAuth-based providers (e.g. a Navigraph-shaped API) without the
// core ever performing the OAuth dance itself — it is purely a pass-
// through value the provider's Init reads out of ProviderEnv.
type Credentials struct {
	Username string
	Password string

	TokenSource oauth2.TokenSource
}

// ProviderEnv is what the core hands a provider at Init time: everything
// the provider needs to know about its execution context, without the
// provider ever reaching back into Database internals.
type ProviderEnv struct {
	CacheRoot   string
	AIRACCycle  int
	Credentials Credentials
	HTTPClient  *http.Client // pre-configured with the current proxy, if any
	Logger      *log.Logger
}

// Provider is the capability surface the core depends on (§6.3). Concrete
// drivers (Aeronav FAA, Autorouter webdav, Navigraph OAuth, ...) are
// external collaborators, modeled here only by this interface.
type Provider interface {
	// Name identifies the provider for disk-path purposes
	// (<cache>/<name>/...).
	Name() string

	// Init discovers the provider-global index, eagerly or lazily
	// populating Airports/Charts via the Database passed in, and returns
	// an error if setup failed (which aborts Open).
	Init(db *Database, env ProviderEnv) error

	// Fini releases provider-private state. Called after the worker
	// stops accepting new work.
	Fini(db *Database)

	// GetChart fetches the chart's artifact, writing it to disk (if
	// AllowsDiskCache) or calling chart.SetPayload with the fetched bytes
	// otherwise. It may also populate GeoRef/Views/Procs on first fetch.
	GetChart(chart *Chart) error

	// AllowsDiskCache reports whether this provider's license terms
	// permit the core to persist fetched artifacts to disk. When false,
	// artifacts are held only as an in-memory, LRU-accounted payload.
	AllowsDiskCache() bool

	// ArtifactLayout reports the on-disk layout this provider uses.
	ArtifactLayout() Layout
}

// LazyDiscoverer is implemented by providers with an open-ended namespace
// (e.g. worldwide webdav indices) that can't enumerate every airport
// eagerly at Init.
type LazyDiscoverer interface {
	// LazyDiscover synthesizes an Airport for an ICAO not present in the
	// eagerly-loaded index, or returns nil if the provider has nothing
	// for that code.
	LazyDiscover(db *Database, icao string) *Airport
}

// LazyLoader is implemented by providers that populate an airport's chart
// list on demand rather than eagerly at Init.
type LazyLoader interface {
	// LazyLoad populates the airport's charts (via db.AddChart). The core
	// marks the airport discovered once LazyLoad returns, so
	// implementations need not do it themselves.
	LazyLoad(airport *Airport)
}

// Watermarker is implemented by providers whose license requires a
// visible mark on rendered charts.
type Watermarker interface {
	Watermark(chart *Chart, surface *Surface)
}

// ConnectionTester is implemented by providers that can proactively
// validate credentials/connectivity (§6.1 test-connection).
type ConnectionTester interface {
	TestConnection(creds Credentials, proxy string) bool
}

// PendingAccountSetuper is implemented by providers with an out-of-band
// authentication step outstanding (e.g. a device-code OAuth flow the user
// still needs to complete in a browser).
type PendingAccountSetuper interface {
	PendingExtAccountSetup(db *Database) bool
}

// ChartNameComparator is implemented by providers that want
// GetChartNames to return names in something other than insertion order
// (e.g. a provider-defined canonical ordering).
type ChartNameComparator interface {
	CompareChartNames(a, b string) int
}
