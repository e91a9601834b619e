package story

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCompactReplacesSummary(t *testing.T) {
	text := newFakeText()
	text.responses["summary"] = "Kara cracked the vault. Brin forged the manifest. The city noticed."

	sess := NewSession("a heist in a floating city", []Agent{{Name: "Kara", Eligible: true}}, "")
	sess.NarrativeHistory = []string{"turn one prose", "turn two prose", "turn three prose"}

	NewCompactor(text).Compact(context.Background(), sess)

	if sess.PlotSummary != text.responses["summary"] {
		t.Errorf("summary = %q, want wholesale replacement", sess.PlotSummary)
	}

	// The compactor summarizes the full history, not the recent window.
	calls := text.calls("summary")
	if len(calls) != 1 {
		t.Fatalf("summary calls = %d, want 1", len(calls))
	}
	for _, entry := range sess.NarrativeHistory {
		if !strings.Contains(calls[0].User, entry) {
			t.Errorf("compaction input missing history entry %q", entry)
		}
	}
}

func TestCompactKeepsSummaryOnFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeText)
	}{
		{"generation error", func(f *fakeText) { f.errs["summary"] = errors.New("upstream down") }},
		{"empty result", func(f *fakeText) { f.responses["summary"] = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := newFakeText()
			tt.setup(text)

			sess := NewSession("a resilient scenario", []Agent{{Name: "A", Eligible: true}}, "")
			sess.NarrativeHistory = []string{"some prose"}
			before := sess.PlotSummary

			NewCompactor(text).Compact(context.Background(), sess)

			if sess.PlotSummary != before {
				t.Errorf("summary changed to %q, want previous kept", sess.PlotSummary)
			}
		})
	}
}
