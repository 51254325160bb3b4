package cmd

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	if got := renderTable(nil, nil, nil); got != "" {
		t.Errorf("renderTable() with no columns = %q, want empty", got)
	}

	out := renderTable(
		[]string{"ID", "Clips"},
		[][]string{{"1-1", "3"}, {"1-2"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	for _, want := range []string{"ID", "Clips", "1-1", "1-2", "3"} {
		if !strings.Contains(strings.ToUpper(out), strings.ToUpper(want)) {
			t.Errorf("renderTable() output missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n"); lines < 5 {
		t.Errorf("renderTable() rendered %d lines, want header, rows and borders", lines+1)
	}
}
