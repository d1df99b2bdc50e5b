// charts/errors.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import "errors"

// Sentinel errors per §7's taxonomy. Not-found and not-ready are
// deliberately not part of this list: they are reported as plain
// zero-value/false returns rather than errors, since they are routine,
// expected outcomes of a non-blocking API, not failures.
var (
	// ErrToolMissing is returned (and recorded as a sticky load-error)
	// when a PDF chart is requested but no page-count or raster tool
	// path was configured.
	ErrToolMissing = errors.New("charts: pdf tool path not configured")

	// ErrRasterFailed indicates the raster subprocess could not be run,
	// exited non-zero, or produced no output.
	ErrRasterFailed = errors.New("charts: pdf rasterization failed")

	// ErrPageCountFailed indicates the page-count subprocess failed or
	// produced output without a "Pages:" line.
	ErrPageCountFailed = errors.New("charts: pdf page count failed")

	// ErrFetchFailed wraps a provider GetChart failure that has no stale
	// fallback available.
	ErrFetchFailed = errors.New("charts: provider fetch failed")

	// ErrDecodeFailed indicates the fetched artifact could not be decoded
	// to a pixel buffer.
	ErrDecodeFailed = errors.New("charts: chart decode failed")

	// ErrClosed identifies a closed database. The facade methods do not
	// return it; they report every failure through zero-value/false
	// results.
	ErrClosed = errors.New("charts: database closed")
)
