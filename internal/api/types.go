package api

import "github.com/storyloom-dev/storyloom/internal/story"

// StartRequest starts a new story from a scenario.
type StartRequest struct {
	Scenario string `json:"scenario"`
}

// TurnRequest advances an existing story by one turn. FateIntervention is
// the optional player input steering the turn.
type TurnRequest struct {
	SessionID        string `json:"session_id"`
	FateIntervention string `json:"fate_intervention,omitempty"`
}

// GameStateResponse is the session snapshot returned after start and turn.
type GameStateResponse struct {
	SessionID       string   `json:"session_id"`
	TurnCount       int      `json:"turn_count"`
	LastNarrative   string   `json:"last_narrative"`
	ImageURL        string   `json:"image_url,omitempty"`
	ActiveActorName string   `json:"active_actor_name"`
	CurrentLocation string   `json:"current_location"`
	CurrentQuest    string   `json:"current_quest"`
	Inventory       []string `json:"inventory"`
	History         []string `json:"history"`
}

// errorResponse carries a human-readable failure detail.
type errorResponse struct {
	Detail string `json:"detail"`
}

// historyWindow is the number of trailing prose blocks echoed to clients.
const historyWindow = 5

// buildResponse converts a session into the API snapshot.
func buildResponse(sess *story.Session) GameStateResponse {
	actorName := "Unknown"
	if actor, err := sess.ActiveActor(sess.TurnCount); err == nil {
		actorName = actor.Name
	}

	start := len(sess.NarrativeHistory) - historyWindow
	if start < 0 {
		start = 0
	}

	return GameStateResponse{
		SessionID:       sess.ID,
		TurnCount:       sess.TurnCount,
		LastNarrative:   sess.LastNarrative(),
		ImageURL:        sess.LastImageURL,
		ActiveActorName: actorName,
		CurrentLocation: sess.State.Location,
		CurrentQuest:    sess.State.CurrentQuest,
		Inventory:       sess.State.Inventory,
		History:         sess.NarrativeHistory[start:],
	}
}
