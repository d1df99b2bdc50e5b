// charts/airac.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

// ValidAIRAC reports whether cycle looks like a plausible four-digit
// AIRAC cycle identifier (§GLOSSARY). It does not validate that the cycle
// is currently in effect, only that it's in the representable range used
// throughout disk-path construction and the obsolete-cycle sweep.
func ValidAIRAC(cycle int) bool {
	return cycle >= 1000 && cycle <= 9999
}
