//go:build linux || darwin

// charts/pdf_priority_unix.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// prepareLowPriority arranges, before Start, for cmd to run in its own
// process group so priorityAfterStart can renice the whole group rather
// than racing a child that may itself fork helpers.
func prepareLowPriority(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// priorityAfterStart lowers the niceness of cmd's process group once it
// has been started, so a rasterization burst doesn't starve host-realtime
// work (§4.3). Best-effort: failure (e.g. insufficient privilege) is not
// fatal to rasterization.
func priorityAfterStart(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	const niceDelta = 10
	_ = unix.Setpriority(unix.PRIO_PGRP, cmd.Process.Pid, niceDelta)
}
