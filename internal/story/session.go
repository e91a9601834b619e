package story

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoAgents is returned when a session has no agents at all; no
// well-defined actor can be chosen, which is a configuration failure for
// the session rather than a generation problem.
var ErrNoAgents = errors.New("no agents available in session")

// recentSceneWindow is the number of trailing narrative entries included
// in the prompt context. Together with the compacted plot summary this is
// the sole bound on prompt growth between compaction events.
const recentSceneWindow = 3

// Session is one running story: world state, cast, dual narrative memory
// and turn metadata. Sessions are created by the engine's setup flow and
// mutated exclusively by the turn pipeline; the pipeline serializes turns
// per session, so Session itself carries no lock.
type Session struct {
	// ID is the opaque unique session token, immutable after creation.
	ID string `json:"session_id"`
	// Setting is the original scenario, immutable.
	Setting string `json:"setting"`
	// VisualStyle labels the art direction for generated images.
	VisualStyle string `json:"visual_style"`
	// State is the owned world state.
	State *StoryState `json:"state"`
	// Agents is the ordered cast roster.
	Agents []Agent `json:"agents"`
	// NarrativeHistory is the append-only full-fidelity prose memory.
	NarrativeHistory []string `json:"narrative_history"`
	// PlotSummary is the token-bounded memory. It is initialized from the
	// setting and overwritten wholesale by the compactor, never appended to.
	PlotSummary string `json:"plot_summary"`
	// TurnCount is incremented exactly once per completed turn and drives
	// the actor rotation.
	TurnCount int `json:"turn_count"`
	// LastImageURL is the most recent illustration URL, empty if none.
	LastImageURL string `json:"last_image_url"`
	// CreatedAt and UpdatedAt track lifecycle for listing and expiry.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session with a fresh ID and default world state.
func NewSession(setting string, agents []Agent, visualStyle string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:               uuid.New().String(),
		Setting:          setting,
		VisualStyle:      visualStyle,
		State:            NewStoryState(),
		Agents:           agents,
		NarrativeHistory: []string{},
		PlotSummary:      fmt.Sprintf("The story begins: %s", setting),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// AgentByName returns the named agent, or nil when absent.
func (s *Session) AgentByName(name string) *Agent {
	for i := range s.Agents {
		if s.Agents[i].Name == name {
			return &s.Agents[i]
		}
	}
	return nil
}

// ActiveActor selects the actor for the given 1-indexed turn by pure round
// robin over eligible agents: turn 1 picks the first eligible agent, turn 2
// the second, wrapping deterministically. When no agent is marked eligible
// the full roster is used instead, so a turn never fails purely because of
// eligibility flags. An empty roster returns ErrNoAgents.
func (s *Session) ActiveActor(turn int) (*Agent, error) {
	eligible := make([]*Agent, 0, len(s.Agents))
	for i := range s.Agents {
		if s.Agents[i].Eligible {
			eligible = append(eligible, &s.Agents[i])
		}
	}
	if len(eligible) == 0 {
		for i := range s.Agents {
			eligible = append(eligible, &s.Agents[i])
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNoAgents
	}
	if turn < 1 {
		turn = 1
	}
	return eligible[(turn-1)%len(eligible)], nil
}

// ContextForLLM renders the bounded prompt context: current world state,
// the plot summary verbatim, and the last three narrative entries joined
// by blank lines. It is recomputed fresh on every call, never cached.
func (s *Session) ContextForLLM() string {
	start := len(s.NarrativeHistory) - recentSceneWindow
	if start < 0 {
		start = 0
	}
	recent := strings.Join(s.NarrativeHistory[start:], "\n\n")
	return fmt.Sprintf(
		"--- STORY STATUS ---\n%s\n--- PLOT SUMMARY ---\n%s\n--- CURRENT SCENE ---\n%s",
		s.State.String(), s.PlotSummary, recent)
}

// LastNarrative returns the most recent prose block, falling back to the
// plot summary when the history is empty.
func (s *Session) LastNarrative() string {
	if len(s.NarrativeHistory) > 0 {
		return s.NarrativeHistory[len(s.NarrativeHistory)-1]
	}
	return s.PlotSummary
}

// Touch updates the modification timestamp.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}
