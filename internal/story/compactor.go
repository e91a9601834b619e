package story

import (
	"context"
	"log"
	"strings"

	"github.com/storyloom-dev/storyloom/internal/gen"
)

// Compactor collapses the full narrative history into a short plot summary.
// It is the only mechanism bounding long-term context growth: the summary
// replaces the previous one wholesale, trading detail on older turns for
// token-bounded prompts.
type Compactor struct {
	text gen.TextGenerator
}

// NewCompactor creates a compactor using the given text generator.
func NewCompactor(text gen.TextGenerator) *Compactor {
	return &Compactor{text: text}
}

// Compact summarizes the entire history (not just the recent window) and
// replaces the session's plot summary. A failed or empty generation leaves
// the previous summary in place; the next compaction cadence covers the
// same material again.
func (c *Compactor) Compact(ctx context.Context, sess *Session) {
	full := strings.Join(sess.NarrativeHistory, "\n")
	summary, err := c.text.Complete(ctx, gen.Request{
		System:      summarySystem,
		User:        full,
		Temperature: summaryTemperature,
	})
	if err != nil {
		log.Printf("compaction degraded for session %s: %v", sess.ID, err)
		return
	}
	if summary == "" {
		return
	}
	sess.PlotSummary = summary
}
