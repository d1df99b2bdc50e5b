//go:build !linux && !darwin

// charts/pdf_priority_other.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import "os/exec"

// prepareLowPriority and priorityAfterStart are no-ops on every platform
// other than Linux and macOS (e.g. Windows); the raster subprocess simply
// runs at normal priority there.
func prepareLowPriority(cmd *exec.Cmd) {}

func priorityAfterStart(cmd *exec.Cmd) {}
