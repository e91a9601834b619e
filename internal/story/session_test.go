package story

import (
	"strings"
	"testing"
)

func TestActiveActorRotation(t *testing.T) {
	tests := []struct {
		name   string
		agents []Agent
		turns  []string // expected actor name per turn, starting at turn 1
	}{
		{
			name: "single eligible agent always acts",
			agents: []Agent{
				{Name: "Kara", Role: "Protagonist", Eligible: true},
				{Name: "Vex", Role: "Antagonist"},
			},
			turns: []string{"Kara", "Kara", "Kara"},
		},
		{
			name: "two eligible agents alternate",
			agents: []Agent{
				{Name: "Kara", Role: "Protagonist", Eligible: true},
				{Name: "Brin", Role: "Protagonist", Eligible: true},
				{Name: "Vex", Role: "Antagonist"},
			},
			turns: []string{"Kara", "Brin", "Kara", "Brin", "Kara"},
		},
		{
			name: "no eligible agents falls back to full roster",
			agents: []Agent{
				{Name: "Vex", Role: "Antagonist"},
				{Name: "Moth", Role: "Sidekick"},
			},
			turns: []string{"Vex", "Moth", "Vex"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := NewSession("test scenario", tt.agents, "Cinematic")
			for i, want := range tt.turns {
				turn := i + 1
				actor, err := sess.ActiveActor(turn)
				if err != nil {
					t.Fatalf("turn %d: unexpected error: %v", turn, err)
				}
				if actor.Name != want {
					t.Errorf("turn %d: got actor %q, want %q", turn, actor.Name, want)
				}
			}
		})
	}
}

func TestActiveActorEmptyRoster(t *testing.T) {
	sess := NewSession("a story with nobody in it", nil, "Cinematic")
	if _, err := sess.ActiveActor(1); err != ErrNoAgents {
		t.Fatalf("got %v, want ErrNoAgents", err)
	}
}

func TestActiveActorDeterministic(t *testing.T) {
	sess := NewSession("scenario", []Agent{
		{Name: "A", Eligible: true},
		{Name: "B", Eligible: true},
	}, "")
	first, _ := sess.ActiveActor(7)
	second, _ := sess.ActiveActor(7)
	if first.Name != second.Name {
		t.Errorf("same turn picked different actors: %q vs %q", first.Name, second.Name)
	}
}

func TestContextForLLMWindow(t *testing.T) {
	sess := NewSession("the windowing scenario", []Agent{{Name: "A", Eligible: true}}, "")
	sess.NarrativeHistory = []string{"turn one", "turn two", "turn three", "turn four", "turn five"}

	got := sess.ContextForLLM()

	for _, want := range []string{"turn three", "turn four", "turn five"} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing recent entry %q", want)
		}
	}
	for _, older := range []string{"turn one", "turn two"} {
		if strings.Contains(got, older) {
			t.Errorf("context includes entry %q beyond the recent window", older)
		}
	}
	if !strings.Contains(got, sess.PlotSummary) {
		t.Error("context missing plot summary")
	}
	if !strings.Contains(got, sess.State.String()) {
		t.Error("context missing world state")
	}
}

func TestContextForLLMShortHistory(t *testing.T) {
	sess := NewSession("short", []Agent{{Name: "A", Eligible: true}}, "")
	sess.NarrativeHistory = []string{"only entry"}
	if got := sess.ContextForLLM(); !strings.Contains(got, "only entry") {
		t.Errorf("context missing sole entry: %q", got)
	}
}

func TestLastNarrative(t *testing.T) {
	sess := NewSession("fallback scenario", []Agent{{Name: "A", Eligible: true}}, "")
	if got := sess.LastNarrative(); got != sess.PlotSummary {
		t.Errorf("empty history should fall back to plot summary, got %q", got)
	}
	sess.NarrativeHistory = append(sess.NarrativeHistory, "first", "second")
	if got := sess.LastNarrative(); got != "second" {
		t.Errorf("got %q, want most recent entry", got)
	}
}

func TestNewSessionDefaults(t *testing.T) {
	sess := NewSession("a heist in a floating city", []Agent{{Name: "A"}}, "Noir")
	if sess.ID == "" {
		t.Error("session ID not assigned")
	}
	if sess.State.Location != DefaultLocation {
		t.Errorf("location = %q, want %q", sess.State.Location, DefaultLocation)
	}
	if sess.State.CurrentQuest != DefaultQuest {
		t.Errorf("quest = %q, want %q", sess.State.CurrentQuest, DefaultQuest)
	}
	if !strings.Contains(sess.PlotSummary, "a heist in a floating city") {
		t.Errorf("plot summary should seed from the setting, got %q", sess.PlotSummary)
	}
	if sess.TurnCount != 0 {
		t.Errorf("turn count = %d, want 0", sess.TurnCount)
	}
	if len(sess.NarrativeHistory) != 0 {
		t.Errorf("history should start empty, got %d entries", len(sess.NarrativeHistory))
	}
}

func TestAgentByName(t *testing.T) {
	sess := NewSession("s", []Agent{{Name: "Kara"}, {Name: "Vex"}}, "")
	if a := sess.AgentByName("Vex"); a == nil || a.Name != "Vex" {
		t.Errorf("AgentByName(Vex) = %v", a)
	}
	if a := sess.AgentByName("absent"); a != nil {
		t.Errorf("AgentByName(absent) = %v, want nil", a)
	}
}
