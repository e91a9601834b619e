package story

import (
	"fmt"
	"strings"
)

// Default world state before any turn has been processed.
const (
	DefaultLocation = "start"
	DefaultQuest    = "explore the world"
)

// StoryState is the structured, queryable world state. It is mutated once
// per turn by the state-update stage and never reset mid-session. All
// fields are always non-nil so prompts can rely on a fully populated
// rendering.
type StoryState struct {
	// Location is the current place in the story.
	Location string `json:"location"`
	// Inventory lists carried items in insertion order.
	Inventory []string `json:"inventory"`
	// CurrentQuest is the active goal driving the actor's behavior.
	CurrentQuest string `json:"current_quest"`
	// ActiveThreats lists dangers present in the current scene.
	ActiveThreats []string `json:"active_threats"`
}

// NewStoryState returns a state populated with defaults.
func NewStoryState() *StoryState {
	return &StoryState{
		Location:      DefaultLocation,
		Inventory:     []string{},
		CurrentQuest:  DefaultQuest,
		ActiveThreats: []string{},
	}
}

// String renders the state for LLM prompts.
func (s *StoryState) String() string {
	return fmt.Sprintf("Location: %s | Inventory: %s | Quest: %s",
		s.Location, strings.Join(s.Inventory, ", "), s.CurrentQuest)
}
