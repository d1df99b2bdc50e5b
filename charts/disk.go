// charts/disk.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mmp/vicecharts/log"
)

// ObsoleteAIRACMaxAge is how long an obsolete-cycle cache directory is
// given to live before the sweep removes it (§4.2).
const ObsoleteAIRACMaxAge = 30 * 24 * time.Hour

// chartPath constructs the on-disk path for a chart artifact under the
// given cache root, following the provider's layout (§4.2):
//
//	flat:          <cache>/<provider>/<AIRAC4>/<filename>
//	hierarchical:  <cache>/<provider>/<AIRAC4>/<ICAO>/<filename>
func chartPath(cacheRoot, providerName string, airac int, layout Layout, icao, filename string) string {
	base := filepath.Join(cacheRoot, providerName, fmt.Sprintf("%04d", airac))
	if layout == LayoutHierarchical {
		base = filepath.Join(base, icao)
	}
	return filepath.Join(base, filename)
}

// sweepObsoleteAIRAC removes cache subdirectories for AIRAC cycles older
// than currentAIRAC whose modification time is older than maxAge. It is
// deliberately best-effort: any error enumerating or stat'ing entries is
// logged and otherwise ignored (§4.2, §9).
func sweepObsoleteAIRAC(cacheRoot, providerName string, currentAIRAC int, maxAge time.Duration, lg *log.Logger) {
	root := filepath.Join(cacheRoot, providerName)
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			lg.Warnf("%s: unable to enumerate cache directory: %v", root, err)
		}
		return
	}

	now := time.Now()
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) != 4 {
			continue
		}
		cycle, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		if cycle < 1000 || cycle >= currentAIRAC {
			continue
		}

		info, err := e.Info()
		if err != nil {
			lg.Warnf("%s: unable to stat cache entry: %v", filepath.Join(root, name), err)
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}

		dir := filepath.Join(root, name)
		if err := os.RemoveAll(dir); err != nil {
			lg.Warnf("%s: unable to remove obsolete AIRAC cache: %v", dir, err)
		} else {
			lg.Infof("%s: removed obsolete AIRAC cache (cycle %d)", dir, cycle)
		}
	}
}
