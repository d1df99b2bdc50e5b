// charts/pdf.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mmp/vicecharts/internal/util"
	"github.com/mmp/vicecharts/log"
)

// PDFTools is the C3 subprocess-mediated PDF->raster bridge. Both tool
// paths are external collaborators (e.g. a PDF toolkit's pdftoppm/pdfinfo
// equivalents); the bridge itself only knows how to drive them over
// stdin/stdout without deadlocking.
type PDFTools struct {
	PageCountPath string // absolute path to the page-count tool, or "" if unavailable
	RasterPath    string // absolute path to the PDF->PNG raster tool, or "" if unavailable

	lg *log.Logger
}

func (t *PDFTools) available() bool {
	return t != nil && t.PageCountPath != "" && t.RasterPath != ""
}

// libPathEnv returns a copy of the current environment with the tool's
// own directory prepended to the dynamic-library search path, per §4.3.
func libPathEnv(toolPath string) []string {
	dir := filepath.Dir(toolPath)
	env := os.Environ()
	varName := "LD_LIBRARY_PATH"
	if runtime.GOOS == "windows" {
		varName = "PATH"
	} else if runtime.GOOS == "darwin" {
		varName = "DYLD_LIBRARY_PATH"
	}

	found := false
	for i, kv := range env {
		if strings.HasPrefix(kv, varName+"=") {
			env[i] = varName + "=" + dir + string(os.PathListSeparator) + strings.TrimPrefix(kv, varName+"=")
			found = true
			break
		}
	}
	if !found {
		env = append(env, varName+"="+dir)
	}
	return env
}

// pumpStdio writes in to the child's stdin (closing it on completion) and
// concurrently drains the child's stdout into a buffer, so that a child
// whose stdout pipe fills while the parent is still writing stdin cannot
// deadlock against the parent (§4.3, §9). Both directions run as
// goroutines under an errgroup; a write-side failure (e.g. EPIPE because
// the child exited early) is tolerated since the read side still wants to
// drain whatever the child produced before exiting.
func pumpStdio(stdin io.WriteCloser, stdout io.Reader, in []byte) ([]byte, error) {
	var out bytes.Buffer
	var g errgroup.Group

	g.Go(func() error {
		defer stdin.Close()
		_, err := stdin.Write(in)
		if err != nil {
			// A short write here typically means the child closed its
			// stdin early (e.g. it already has everything it needs, or
			// it's bailing out); the read side will still report the
			// real failure if there is one.
			return nil
		}
		return nil
	})

	g.Go(func() error {
		_, err := io.Copy(&out, stdout)
		// A short read followed by EOF is the normal shutdown path on
		// every platform; only surface genuine I/O errors.
		if err != nil && err != io.EOF {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return out.Bytes(), err
	}
	return out.Bytes(), nil
}

// CountPages spawns the page-count tool, feeds it pdf on stdin, and parses
// a "Pages: N" line out of its stdout. It returns -1 on any failure
// (§4.3).
func (t *PDFTools) CountPages(ctx context.Context, pdf []byte) (int, error) {
	if !t.available() {
		return -1, ErrToolMissing
	}

	cmd := exec.CommandContext(ctx, t.PageCountPath, "fd://0")
	cmd.Env = libPathEnv(t.PageCountPath)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return -1, fmt.Errorf("%w: %v", ErrPageCountFailed, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("%w: %v", ErrPageCountFailed, err)
	}
	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("%w: %v", ErrPageCountFailed, err)
	}

	out, pumpErr := pumpStdio(stdin, stdout, pdf)
	waitErr := cmd.Wait()
	if pumpErr != nil {
		t.lg.Warnf("pdf page count: pump failed: %v", pumpErr)
		return -1, fmt.Errorf("%w: %v", ErrPageCountFailed, pumpErr)
	}
	if waitErr != nil {
		t.lg.Warnf("pdf page count: tool exited with error: %v", waitErr)
		return -1, fmt.Errorf("%w: %v", ErrPageCountFailed, waitErr)
	}

	pages, ok := parsePagesLine(out)
	if !ok {
		t.lg.Warnf("pdf page count: no \"Pages:\" line in tool output")
		return -1, ErrPageCountFailed
	}
	return pages, nil
}

func parsePagesLine(out []byte) (int, bool) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "Pages:") {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
			if err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// Rasterize spawns the raster tool to render a single page of pdf to PNG
// at the given zoom, returning the PNG bytes. zoom is clamped to
// [0.1, 10.0] before use (§4.3, §8).
func (t *PDFTools) Rasterize(ctx context.Context, pdf []byte, page int, zoom float64) ([]byte, error) {
	if !t.available() {
		return nil, ErrToolMissing
	}
	zoom = util.Clamp(zoom, 0.1, 10.0)
	dpi := int(100 * zoom)

	args := []string{
		"-png",
		"-f", strconv.Itoa(page + 1),
		"-l", strconv.Itoa(page + 1),
		"-r", strconv.Itoa(dpi),
		"-cropbox",
		"-",
		"-",
	}
	cmd := exec.CommandContext(ctx, t.RasterPath, args...)
	cmd.Env = libPathEnv(t.RasterPath)
	prepareLowPriority(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterFailed, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterFailed, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterFailed, err)
	}
	priorityAfterStart(cmd)

	png, pumpErr := pumpStdio(stdin, stdout, pdf)
	waitErr := cmd.Wait()
	if pumpErr != nil {
		t.lg.Warnf("pdf rasterize: pump failed: %v", pumpErr)
		return nil, fmt.Errorf("%w: %v", ErrRasterFailed, pumpErr)
	}
	if waitErr != nil {
		t.lg.Warnf("pdf rasterize: tool exited with error: %v", waitErr)
		return nil, fmt.Errorf("%w: %v", ErrRasterFailed, waitErr)
	}
	if len(png) == 0 {
		return nil, ErrRasterFailed
	}
	return png, nil
}
