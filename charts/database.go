// charts/database.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package charts implements a non-blocking aeronautical chart cache: a
// two-level ICAO/chart-name naming index, a single-worker loader pipeline
// that mediates provider fetches and PDF rasterization, and an LRU memory
// accountant that keeps decoded chart surfaces within a byte budget.
//
// The owning application asks for chart names, types, and rasterized
// surfaces through Database's methods; every one of them returns
// promptly. A miss enqueues work for the background worker and the
// caller is expected to poll again shortly.
package charts

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"

	"github.com/mmp/vicecharts/internal/util"
	"github.com/mmp/vicecharts/log"
)

// Config configures a call to Open.
type Config struct {
	// CacheRoot is the on-disk cache directory root (§4.2, §6.2).
	CacheRoot string

	// AIRACCycle is the currently-effective AIRAC cycle, used both for
	// the disk layout and the obsolete-cycle sweep (§4.2).
	AIRACCycle int

	// Provider is the chart source driving this database (§6.3). Must be
	// non-nil.
	Provider Provider

	Credentials Credentials
	Proxy       string

	// PDFPageCountTool and PDFRasterTool are absolute paths to the
	// external PDF toolkit binaries (§4.3). Either being empty disables
	// PDF chart support; requests for PDF charts then fail with a sticky
	// load-error.
	PDFPageCountTool string
	PDFRasterTool    string

	// LoadLimit is the LRU byte budget (§4.5). Zero or a negative value
	// selects the default of min(physical_memory/32, 256MiB); any
	// positive value below MinLoadLimit is raised to it.
	LoadLimit int64

	// NormalizeNonICAO enables prepending "K" to 3-character airport
	// codes before lookup (§4.1).
	NormalizeNonICAO bool

	LogLevel string
	LogDir   string
}

// Database is the chart cache core: C1 naming index, C4 loader queue, C5
// LRU accountant, and the C6 request facade, all guarded by a single
// coarse mutex per §5.
type Database struct {
	mu   sync.Mutex
	cond *sync.Cond

	airports         *util.OrderedMap[*Airport]
	normalizeNonICAO bool

	provider     Provider
	providerName string
	cacheRoot    string
	airacCycle   int

	pdfTools *PDFTools
	lru      *lruAccountant

	chartQueue   []workItem
	arptQueue    []*Airport
	purgeQueued  bool

	closed     bool
	workerDone chan struct{}

	proxy      string
	httpClient *http.Client

	// weatherFetch performs the actual C8 network fetch; overridable so
	// tests can exercise the cache/refresh logic without reaching the
	// network.
	weatherFetch func(icao string, kind weatherKind) (string, error)

	lg *log.Logger
}

// Open creates the on-disk cache directory if needed, runs the obsolete-
// AIRAC sweep, initializes the provider, and spawns the background
// worker (§4.4 init/work/fini, §6.1 open).
func Open(cfg Config) (*Database, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("charts: Config.Provider must not be nil")
	}
	if !ValidAIRAC(cfg.AIRACCycle) {
		return nil, fmt.Errorf("charts: invalid AIRAC cycle %d", cfg.AIRACCycle)
	}

	budget := cfg.LoadLimit
	if budget <= 0 {
		budget = defaultLoadLimit()
	} else if budget < MinLoadLimit {
		budget = MinLoadLimit
	}

	lg := log.New(cfg.LogLevel, cfg.LogDir)

	db := &Database{
		airports:         util.NewOrderedMap[*Airport](),
		normalizeNonICAO: cfg.NormalizeNonICAO,
		provider:         cfg.Provider,
		providerName:     cfg.Provider.Name(),
		cacheRoot:        cfg.CacheRoot,
		airacCycle:       cfg.AIRACCycle,
		lru:              newLRUAccountant(budget),
		proxy:            cfg.Proxy,
		workerDone:       make(chan struct{}),
		lg:               lg,
	}
	db.cond = sync.NewCond(&db.mu)
	db.weatherFetch = db.fetchWeather
	db.pdfTools = &PDFTools{PageCountPath: cfg.PDFPageCountTool, RasterPath: cfg.PDFRasterTool, lg: lg}
	db.httpClient = &http.Client{}
	if cfg.Proxy != "" {
		db.httpClient = proxiedClient(cfg.Proxy)
	}

	if cfg.CacheRoot != "" {
		if err := os.MkdirAll(cfg.CacheRoot, 0o755); err != nil {
			return nil, fmt.Errorf("charts: unable to create cache root: %w", err)
		}
	}

	sweepObsoleteAIRAC(db.cacheRoot, db.providerName, db.airacCycle, ObsoleteAIRACMaxAge, lg)

	env := ProviderEnv{
		CacheRoot:   db.cacheRoot,
		AIRACCycle:  db.airacCycle,
		Credentials: cfg.Credentials,
		HTTPClient:  db.httpClient,
		Logger:      lg,
	}
	if err := cfg.Provider.Init(db, env); err != nil {
		return nil, fmt.Errorf("charts: provider init failed: %w", err)
	}

	go db.workerLoop()

	return db, nil
}

// Close stops the worker, runs the provider's Fini hook, and releases all
// state. It blocks until the worker's current item (if any) finishes or
// aborts.
func (db *Database) Close() {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return
	}
	db.closed = true
	db.cond.Broadcast()
	db.mu.Unlock()

	<-db.workerDone

	db.provider.Fini(db)
}

func proxiedClient(proxyURL string) *http.Client {
	// Providers are free to ignore this client and build their own; it's
	// offered as a convenience pre-wired with the configured proxy so
	// most providers don't each need their own proxy plumbing.
	transport := &http.Transport{}
	if u, err := url.Parse(proxyURL); err == nil {
		transport.Proxy = http.ProxyURL(u)
	}
	return &http.Client{Transport: transport}
}
