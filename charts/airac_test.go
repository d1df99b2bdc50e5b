// charts/airac_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import "testing"

func TestValidAIRAC(t *testing.T) {
	cases := []struct {
		cycle int
		want  bool
	}{
		{999, false},
		{1000, true},
		{2407, true},
		{9999, true},
		{10000, false},
		{0, false},
		{-1, false},
	}
	for _, c := range cases {
		if got := ValidAIRAC(c.cycle); got != c.want {
			t.Errorf("ValidAIRAC(%d) = %v, want %v", c.cycle, got, c.want)
		}
	}
}
