package story

import (
	"encoding/json"
)

// StateDelta is the typed world-state update produced by the UPDATE STATE
// stage. Missing or malformed fields map to zero values; the pipeline
// applies only what is present.
type StateDelta struct {
	// NewLocation replaces the location when non-empty.
	NewLocation string `json:"new_location"`
	// InventoryChanges carries "+Item"/"-Item" deltas. They are accepted in
	// the contract but intentionally not applied by this engine; inventory
	// mutation is left to an extending collaborator.
	InventoryChanges []string `json:"inventory_changes"`
	// QuestUpdate replaces the current quest when non-empty.
	QuestUpdate string `json:"quest_update"`
	// Success reports whether the action succeeded.
	Success bool `json:"success"`
}

// parseStateDelta decodes a delta, degrading malformed output to the zero
// delta so a bad structured response never fails the turn.
func parseStateDelta(raw json.RawMessage) StateDelta {
	var delta StateDelta
	if len(raw) == 0 {
		return delta
	}
	if err := json.Unmarshal(raw, &delta); err != nil {
		return StateDelta{}
	}
	return delta
}

// apply mutates the state with the fields the delta carries.
func (d StateDelta) apply(state *StoryState) {
	if d.NewLocation != "" {
		state.Location = d.NewLocation
	}
	if d.QuestUpdate != "" {
		state.CurrentQuest = d.QuestUpdate
	}
	// Inventory deltas deliberately ignored.
}

// castResult is the typed session-setup payload: the generated cast plus
// visual style and starting location.
type castResult struct {
	Agents []struct {
		Name        string `json:"name"`
		Role        string `json:"role"`
		Description string `json:"description"`
		Personality string `json:"personality"`
	} `json:"agents"`
	VisualStyle      string `json:"visual_style"`
	StartingLocation string `json:"starting_location"`
}
